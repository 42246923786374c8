package handler

import (
	"net/http"
	"strconv"

	"chirp/internal/domain"
	"chirp/internal/live"
	"chirp/internal/models"
	"chirp/internal/repository"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	userRepo *repository.UserRepository
	convRepo *repository.ConversationRepository
	msgRepo  *repository.MessageRepository
	views    *Views
	broker   *live.Broker
}

func NewMessageHandler(userRepo *repository.UserRepository, convRepo *repository.ConversationRepository, msgRepo *repository.MessageRepository, views *Views, broker *live.Broker) *MessageHandler {
	return &MessageHandler{userRepo: userRepo, convRepo: convRepo, msgRepo: msgRepo, views: views, broker: broker}
}

func conversationParam(c *gin.Context) uint {
	id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
	return uint(id)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type" binding:"omitempty,oneof=text image file"`
}

// Send appends a message and bumps the conversation's recency in one
// transaction, then notifies message-list and inbox subscribers.
func (h *MessageHandler) Send(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	convID := conversationParam(c)
	if convID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Type == "" {
		req.Type = domain.MessageTypeText
	}
	conv, err := h.convRepo.GetByID(convID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       caller.ID,
		Content:        req.Content,
		Type:           req.Type,
	}
	if err := h.msgRepo.Send(msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "send failed"})
		return
	}
	topics := []string{live.ConversationTopic(conv.ID)}
	for _, uid := range conv.ParticipantIDs() {
		topics = append(topics, live.InboxTopic(uid))
	}
	h.broker.Publish(topics...)
	c.JSON(http.StatusCreated, gin.H{"message_id": msg.ID, "created_at": msg.CreatedAt})
}

// List returns the conversation's messages oldest-first with resolved
// senders.
func (h *MessageHandler) List(c *gin.Context) {
	convID := conversationParam(c)
	if convID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	views, err := h.views.MessageList(convID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// MarkAsRead adds the caller to the seen-set of every unseen message in the
// conversation. Idempotent; repeat calls with no new messages mark nothing.
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	convID := conversationParam(c)
	if convID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	marked, err := h.msgRepo.MarkAsRead(convID, caller.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "mark failed"})
		return
	}
	if marked > 0 {
		h.broker.Publish(live.ConversationTopic(convID))
	}
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// Unread returns how many messages in the conversation the caller has not
// seen.
func (h *MessageHandler) Unread(c *gin.Context) {
	caller := resolveCaller(c, h.userRepo)
	if caller == nil {
		return
	}
	convID := conversationParam(c)
	if convID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}
	count, err := h.msgRepo.UnreadCount(convID, caller.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
