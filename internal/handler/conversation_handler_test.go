package handler_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCreateDirectConversationDeduplicates(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, bobTok := e.register(t, "ext_bob", "bob")

	rec := e.do(t, http.MethodPost, "/api/v1/conversations", aliceTok, gin.H{
		"participant_ids": []uint{alice.ID, bob.ID},
	})
	wantStatus(t, rec, http.StatusCreated)
	var first struct {
		ConversationID uint `json:"conversation_id"`
		Reused         bool `json:"reused"`
	}
	decode(t, rec, &first)
	if first.Reused {
		t.Error("first conversation cannot be a reuse")
	}

	// same pair in reversed order from the other side resolves to the same row
	rec = e.do(t, http.MethodPost, "/api/v1/conversations", bobTok, gin.H{
		"participant_ids": []uint{bob.ID, alice.ID},
	})
	wantStatus(t, rec, http.StatusOK)
	var second struct {
		ConversationID uint `json:"conversation_id"`
		Reused         bool `json:"reused"`
	}
	decode(t, rec, &second)
	if !second.Reused || second.ConversationID != first.ConversationID {
		t.Errorf("want reuse of conversation %d, got %+v", first.ConversationID, second)
	}
}

func TestGroupConversationsAreNeverDeduplicated(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, _ := e.register(t, "ext_bob", "bob")

	id1 := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, true)
	id2 := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, true)
	if id1 == id2 {
		t.Error("two group creates with the same members must yield distinct conversations")
	}
}

func TestCreateDirectRequiresExactlyTwo(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, _ := e.register(t, "ext_bob", "bob")
	carol, _ := e.register(t, "ext_carol", "carol")

	rec := e.do(t, http.MethodPost, "/api/v1/conversations", aliceTok, gin.H{
		"participant_ids": []uint{alice.ID, bob.ID, carol.ID},
		"is_group":        false,
	})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestListConversationsOrderAndEnrichment(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, bobTok := e.register(t, "ext_bob", "bob")
	carol, _ := e.register(t, "ext_carol", "carol")

	withBob := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, false)
	withCarol := e.startConversation(t, aliceTok, []uint{alice.ID, carol.ID}, false)

	// activity in the older conversation moves it to the front
	rec := e.do(t, http.MethodPost, sendPath(withBob), bobTok, gin.H{"content": "hey"})
	wantStatus(t, rec, http.StatusCreated)

	rec = e.do(t, http.MethodGet, "/api/v1/conversations", aliceTok, nil)
	wantStatus(t, rec, http.StatusOK)
	var list []struct {
		ID           uint `json:"id"`
		Participants []struct {
			ID uint `json:"id"`
		} `json:"participants"`
		LastMessage *struct {
			Content string `json:"content"`
			Sender  *struct {
				ID uint `json:"id"`
			} `json:"sender"`
		} `json:"last_message"`
	}
	decode(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("want 2 conversations, got %d", len(list))
	}
	if list[0].ID != withBob || list[1].ID != withCarol {
		t.Errorf("want [%d %d] by recency, got [%d %d]", withBob, withCarol, list[0].ID, list[1].ID)
	}
	if len(list[0].Participants) != 2 {
		t.Errorf("want 2 resolved participants, got %d", len(list[0].Participants))
	}
	if list[0].LastMessage == nil || list[0].LastMessage.Content != "hey" {
		t.Fatalf("missing last-message preview: %+v", list[0].LastMessage)
	}
	if list[0].LastMessage.Sender == nil || list[0].LastMessage.Sender.ID != bob.ID {
		t.Errorf("preview sender not resolved to bob")
	}
	if list[1].LastMessage != nil {
		t.Errorf("empty conversation should have a null preview, got %+v", list[1].LastMessage)
	}
}

func TestListConversationsForUnregisteredCallerIsEmpty(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "ext_ghost", "ghost@example.com", "ghost")

	rec := e.do(t, http.MethodGet, "/api/v1/conversations", tok, nil)
	wantStatus(t, rec, http.StatusOK)
	if body := rec.Body.String(); body != "[]" {
		t.Errorf("want empty list, got %s", body)
	}
}

func TestGetMissingConversationIs404(t *testing.T) {
	e := newEnv(t)
	_, tok := e.register(t, "ext_alice", "alice")

	rec := e.do(t, http.MethodGet, "/api/v1/conversations/999", tok, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestDeletedParticipantIsDroppedFromView(t *testing.T) {
	e := newEnv(t)
	alice, aliceTok := e.register(t, "ext_alice", "alice")
	bob, _ := e.register(t, "ext_bob", "bob")
	convID := e.startConversation(t, aliceTok, []uint{alice.ID, bob.ID}, false)

	rec := e.do(t, http.MethodPost, webhookPath, "",
		webhookBody("user.deleted", "ext_bob", nil, nil, "", ""))
	wantStatus(t, rec, http.StatusOK)

	rec = e.do(t, http.MethodGet, "/api/v1/conversations", aliceTok, nil)
	wantStatus(t, rec, http.StatusOK)
	var list []struct {
		ID           uint `json:"id"`
		Participants []struct {
			ID uint `json:"id"`
		} `json:"participants"`
	}
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != convID {
		t.Fatalf("conversation should survive a participant deletion: %+v", list)
	}
	if len(list[0].Participants) != 1 || list[0].Participants[0].ID != alice.ID {
		t.Errorf("deleted participant must be dropped, got %+v", list[0].Participants)
	}
}
