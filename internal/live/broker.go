// Package live is the change-notification fan-out behind the subscribe
// websocket. Every mutation handler publishes the topics for the record sets
// it touched; each subscription re-runs its query when one of its topics
// fires.
package live

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ConversationTopic fires when the conversation's message set or seen-sets
// change.
func ConversationTopic(conversationID uint) string {
	return fmt.Sprintf("conversation:%d", conversationID)
}

// InboxTopic fires when a user's conversation list changes: a conversation
// they participate in was created or had its recency bumped.
func InboxTopic(userID uint) string {
	return fmt.Sprintf("inbox:%d", userID)
}

func PresenceTopic(userID uint) string {
	return fmt.Sprintf("presence:%d", userID)
}

// UsersTopic fires on directory changes (webhook or client sync), not on
// presence heartbeats — heartbeats patch the user row too, but fanning those
// out through here would re-push every directory subscriber twice a minute
// per user.
const UsersTopic = "users"

// Subscription receives the name of each fired topic on C. The channel is
// buffered and sends are non-blocking: a subscriber that cannot keep up
// loses wakeups, not correctness, because every wakeup triggers a full
// re-query.
type Subscription struct {
	ID     string
	topics []string
	C      chan string
}

func (s *Subscription) Topics() []string {
	return append([]string(nil), s.topics...)
}

type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[string]*Subscription // topic -> sub ID -> sub
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[string]*Subscription)}
}

func (b *Broker) Subscribe(topics ...string) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		topics: append([]string(nil), topics...),
		C:      make(chan string, 32),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		if b.subs[t] == nil {
			b.subs[t] = make(map[string]*Subscription)
		}
		b.subs[t][sub.ID] = sub
	}
	return sub
}

// Unsubscribe detaches the subscription from all its topics and closes C.
// Safe to call once per subscription; Publish holds the read lock while
// sending, so no send can race the close.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := false
	for _, t := range sub.topics {
		if m := b.subs[t]; m != nil {
			if _, ok := m[sub.ID]; ok {
				delete(m, sub.ID)
				removed = true
			}
			if len(m) == 0 {
				delete(b.subs, t)
			}
		}
	}
	if removed {
		close(sub.C)
	}
}

// Publish wakes every subscription attached to any of the topics.
func (b *Broker) Publish(topics ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range topics {
		for _, sub := range b.subs[t] {
			select {
			case sub.C <- t:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscriptions are attached to a topic.
func (b *Broker) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
