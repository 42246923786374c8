package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"chirp/internal/live"
	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PresenceHandler struct {
	userRepo *repository.UserRepository
	presRepo *repository.PresenceRepository
	views    *Views
	broker   *live.Broker
}

func NewPresenceHandler(userRepo *repository.UserRepository, presRepo *repository.PresenceRepository, views *Views, broker *live.Broker) *PresenceHandler {
	return &PresenceHandler{userRepo: userRepo, presRepo: presRepo, views: views, broker: broker}
}

type setPresenceRequest struct {
	IsOnline               *bool `json:"is_online" binding:"required"`
	IsTyping               *bool `json:"is_typing"`
	TypingInConversationID *uint `json:"typing_in_conversation_id"`
}

// SetPresence overwrites the caller's presence row in full: a heartbeat that
// omits is_typing resets typing to false, exactly as the clients rely on
// when they stop typing by just heartbeating. The user row's online flag is
// patched separately, outside the presence upsert.
func (h *PresenceHandler) SetPresence(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	var req setPresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := time.Now()
	if err := h.userRepo.SetOnline(caller.ID, *req.IsOnline, now); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	presence := &models.Presence{
		UserID:                 caller.ID,
		IsOnline:               *req.IsOnline,
		IsTyping:               req.IsTyping != nil && *req.IsTyping,
		TypingInConversationID: req.TypingInConversationID,
		LastSeen:               now,
	}
	if err := h.presRepo.Upsert(presence); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.broker.Publish(live.PresenceTopic(caller.ID))
	c.JSON(http.StatusOK, presence)
}

// GetPresence returns one user's presence, or null if they never reported
// any.
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, _ := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	p, err := h.presRepo.GetByUserID(uint(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

type presenceQueryRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required,min=1"`
}

// Query returns presence for a batch of users (e.g. all participants of an
// open conversation), null entries included.
func (h *PresenceHandler) Query(c *gin.Context) {
	var req presenceQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := h.views.PresenceList(req.UserIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
