package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func sendPath(convID uint) string {
	return fmt.Sprintf("/api/v1/conversations/%d/messages", convID)
}

func TestMessagingRequiresAuth(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, sendPath(1), "", gin.H{"content": "hi"})
	wantStatus(t, rec, http.StatusUnauthorized)

	rec = e.do(t, http.MethodPost, sendPath(1), "garbage-token", gin.H{"content": "hi"})
	wantStatus(t, rec, http.StatusUnauthorized)
}

func TestMessagingRejectsUnregisteredCaller(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "ext_ghost", "ghost@example.com", "ghost")

	rec := e.do(t, http.MethodPost, sendPath(1), tok, gin.H{"content": "hi"})
	wantStatus(t, rec, http.StatusForbidden)
}

func TestSendToMissingConversationIs404(t *testing.T) {
	e := newEnv(t)
	_, tok := e.register(t, "ext_alice", "alice")

	rec := e.do(t, http.MethodPost, sendPath(999), tok, gin.H{"content": "hi"})
	wantStatus(t, rec, http.StatusNotFound)
}

// TestDirectMessageFlow walks the whole happy path of a first contact:
// sync, start the conversation, send, read from the other side, mark seen.
func TestDirectMessageFlow(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, bobTok := e.register(t, "ext_bob", "bob")

	convID := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, false)

	rec := e.do(t, http.MethodPost, sendPath(convID), aliceTok, gin.H{"content": "hi"})
	wantStatus(t, rec, http.StatusCreated)
	var sent struct {
		MessageID uint `json:"message_id"`
	}
	decode(t, rec, &sent)
	if sent.MessageID == 0 {
		t.Fatal("send did not return a message id")
	}

	// bob opens the conversation
	rec = e.do(t, http.MethodGet, sendPath(convID), bobTok, nil)
	wantStatus(t, rec, http.StatusOK)
	var msgs []struct {
		ID      uint   `json:"id"`
		Content string `json:"content"`
		Type    string `json:"type"`
		SeenBy  []uint `json:"seen_by"`
		Sender  *struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"sender"`
	}
	decode(t, rec, &msgs)
	if len(msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(msgs))
	}
	if msgs[0].Content != "hi" || msgs[0].Type != "text" {
		t.Errorf("message body mangled: %+v", msgs[0])
	}
	if msgs[0].Sender == nil || msgs[0].Sender.ID != alice.ID || msgs[0].Sender.Username != "alice" {
		t.Errorf("sender not resolved: %+v", msgs[0].Sender)
	}
	if len(msgs[0].SeenBy) != 1 || msgs[0].SeenBy[0] != alice.ID {
		t.Errorf("unread message seen-set must be {sender}, got %v", msgs[0].SeenBy)
	}

	unread := func(tok string) int64 {
		t.Helper()
		rec := e.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/unread", convID), tok, nil)
		wantStatus(t, rec, http.StatusOK)
		var resp struct {
			Count int64 `json:"count"`
		}
		decode(t, rec, &resp)
		return resp.Count
	}
	if n := unread(bobTok); n != 1 {
		t.Errorf("bob's unread: want 1, got %d", n)
	}
	if n := unread(aliceTok); n != 0 {
		t.Errorf("alice's unread: want 0, got %d", n)
	}

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/read", convID), bobTok, nil)
	wantStatus(t, rec, http.StatusOK)
	var marked struct {
		Marked int64 `json:"marked"`
	}
	decode(t, rec, &marked)
	if marked.Marked != 1 {
		t.Errorf("want 1 marked, got %d", marked.Marked)
	}
	if n := unread(bobTok); n != 0 {
		t.Errorf("bob's unread after read: want 0, got %d", n)
	}

	// repeat is a no-op
	rec = e.do(t, http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/read", convID), bobTok, nil)
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &marked)
	if marked.Marked != 0 {
		t.Errorf("repeat mark-as-read should mark nothing, got %d", marked.Marked)
	}

	// the seen-set now carries both participants
	rec = e.do(t, http.MethodGet, sendPath(convID), aliceTok, nil)
	wantStatus(t, rec, http.StatusOK)
	decode(t, rec, &msgs)
	if len(msgs[0].SeenBy) != 2 {
		t.Errorf("seen-set after read: want both participants, got %v", msgs[0].SeenBy)
	}
}

func TestSendRejectsEmptyContentAndBadType(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, _ := e.register(t, "ext_bob", "bob")
	convID := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, false)

	rec := e.do(t, http.MethodPost, sendPath(convID), aliceTok, gin.H{"content": ""})
	wantStatus(t, rec, http.StatusBadRequest)

	rec = e.do(t, http.MethodPost, sendPath(convID), aliceTok, gin.H{"content": "x", "type": "video"})
	wantStatus(t, rec, http.StatusBadRequest)
}
