package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"chirp/config"
	"chirp/internal/domain"
	"chirp/internal/live"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
)

// IdentityWebhookHandler ingests user lifecycle events from the identity
// provider. Contract: the endpoint ALWAYS answers 200 {"success": true} —
// malformed bodies, unknown event types and storage failures are logged,
// never surfaced, so the provider does not retry-storm us. The client-side
// /users/sync fallback covers events lost this way.
type IdentityWebhookHandler struct {
	userRepo *repository.UserRepository
	broker   *live.Broker
	cfg      *config.WebhookConfig
}

func NewIdentityWebhookHandler(userRepo *repository.UserRepository, broker *live.Broker, cfg *config.WebhookConfig) *IdentityWebhookHandler {
	return &IdentityWebhookHandler{userRepo: userRepo, broker: broker, cfg: cfg}
}

type webhookEvent struct {
	Type string      `json:"type"`
	Data webhookUser `json:"data"`
}

type webhookUser struct {
	ID             string  `json:"id"`
	Username       *string `json:"username"`
	FirstName      *string `json:"first_name"`
	ImageURL       string  `json:"image_url"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (h *IdentityWebhookHandler) Handle(c *gin.Context) {
	// Everything below falls through to the same 200 response.
	defer c.JSON(http.StatusOK, gin.H{"success": true})

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("[webhook] read body: %v", err)
		return
	}
	if h.cfg.Secret != "" && !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
		log.Printf("[webhook] signature mismatch, event dropped")
		return
	}
	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("[webhook] bad payload: %v", err)
		return
	}
	switch event.Type {
	case domain.EventUserCreated, domain.EventUserUpdated:
		if event.Data.ID == "" {
			log.Printf("[webhook] %s without data.id, ignored", event.Type)
			return
		}
		email := ""
		if len(event.Data.EmailAddresses) > 0 {
			email = event.Data.EmailAddresses[0].EmailAddress
		}
		username := deriveUsername(event.Data.Username, event.Data.FirstName, email)
		if _, err := h.userRepo.CreateOrUpdate(event.Data.ID, email, username, event.Data.ImageURL); err != nil {
			log.Printf("[webhook] upsert %s: %v", event.Data.ID, err)
			return
		}
		h.broker.Publish(live.UsersTopic)
	case domain.EventUserDeleted:
		if event.Data.ID == "" {
			return
		}
		if err := h.userRepo.DeleteByExternalID(event.Data.ID); err != nil {
			log.Printf("[webhook] delete %s: %v", event.Data.ID, err)
			return
		}
		h.broker.Publish(live.UsersTopic)
	default:
		// unrecognized event types are accepted and ignored
	}
}

// deriveUsername picks a display name with the provider's field precedence:
// username, then first name, then the email local part, then a literal
// fallback. Absent (null) fields fall through; an explicitly empty username
// is kept as sent.
func deriveUsername(username, firstName *string, email string) string {
	if username != nil {
		return *username
	}
	if firstName != nil {
		return *firstName
	}
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return domain.FallbackUsername
}

func (h *IdentityWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
