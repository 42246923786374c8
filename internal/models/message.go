package models

import (
	"time"
)

// Message is append-only within its conversation; only the seen-set grows
// after creation (and IsEdited, which the current clients never set).
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text" json:"content"`
	Type           string    `gorm:"size:10;not null;default:'text'" json:"type"` // text, image, file
	IsEdited       bool      `gorm:"not null;default:false" json:"is_edited"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Seen []MessageSeen `gorm:"foreignKey:MessageID" json:"-"`
}

// SeenByIDs returns the user IDs that have seen this message (requires Seen
// to be preloaded).
func (m *Message) SeenByIDs() []uint {
	ids := make([]uint, 0, len(m.Seen))
	for _, s := range m.Seen {
		ids = append(ids, s.UserID)
	}
	return ids
}

// HasSeen reports whether userID is in the preloaded seen-set.
func (m *Message) HasSeen(userID uint) bool {
	for _, s := range m.Seen {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// MessageSeen is one entry of a message's seen-set. The sender's row is
// written in the same transaction as the message itself.
type MessageSeen struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_user" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (MessageSeen) TableName() string {
	return "message_seen"
}
