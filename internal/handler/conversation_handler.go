package handler

import (
	"net/http"
	"strconv"

	"chirp/internal/live"
	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	userRepo *repository.UserRepository
	convRepo *repository.ConversationRepository
	views    *Views
	broker   *live.Broker
}

func NewConversationHandler(userRepo *repository.UserRepository, convRepo *repository.ConversationRepository, views *Views, broker *live.Broker) *ConversationHandler {
	return &ConversationHandler{userRepo: userRepo, convRepo: convRepo, views: views, broker: broker}
}

type createConversationRequest struct {
	ParticipantIDs []uint `json:"participant_ids" binding:"required,min=2"`
	IsGroup        bool   `json:"is_group"`
	GroupName      string `json:"group_name"`
	GroupImage     string `json:"group_image"`
}

// Create starts a conversation, reusing the existing one for a 1:1 pair.
// The find-then-insert has no isolation against a concurrent identical
// request; two racing first messages between the same pair can legitimately
// end up in two conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.IsGroup {
		if len(req.ParticipantIDs) != 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "direct conversations need exactly 2 participants"})
			return
		}
		existing, err := h.convRepo.FindDirect(req.ParticipantIDs[0], req.ParticipantIDs[1])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		if existing != nil {
			c.JSON(http.StatusOK, gin.H{"conversation_id": existing.ID, "reused": true})
			return
		}
	}
	conv := &models.Conversation{
		IsGroup:    req.IsGroup,
		GroupName:  req.GroupName,
		GroupImage: req.GroupImage,
	}
	if err := h.convRepo.Create(conv, req.ParticipantIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	topics := make([]string, 0, len(req.ParticipantIDs))
	for _, uid := range req.ParticipantIDs {
		topics = append(topics, live.InboxTopic(uid))
	}
	h.broker.Publish(topics...)
	c.JSON(http.StatusCreated, gin.H{"conversation_id": conv.ID, "reused": false})
}

// List returns the caller's conversations, most recent activity first. An
// authenticated but unregistered caller gets an empty list, not an error.
func (h *ConversationHandler) List(c *gin.Context) {
	caller := lookupCaller(c, h.userRepo)
	if caller == nil {
		c.JSON(http.StatusOK, []ConversationView{})
		return
	}
	views, err := h.views.ConversationList(caller.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	if id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	conv, err := h.convRepo.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	view, err := h.views.ConversationView(conv)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, view)
}
