package repository

import (
	"errors"
	"time"

	"chirp/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Send appends the message, seeds its seen-set with the sender, and touches
// the parent conversation's last_message_at — all in one transaction, so no
// reader observes the message without the timestamp or vice versa.
func (r *MessageRepository) Send(msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		seen := models.MessageSeen{MessageID: msg.ID, UserID: msg.SenderID}
		if err := tx.Create(&seen).Error; err != nil {
			return err
		}
		msg.Seen = append(msg.Seen, seen)
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt).Error
	})
}

// ListByConversation returns all messages oldest-first with their seen-sets
// preloaded.
func (r *MessageRepository) ListByConversation(conversationID uint) ([]models.Message, error) {
	var list []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Preload("Seen").
		Find(&list).Error
	return list, err
}

// LastInConversation returns the newest message for preview, or nil when the
// conversation has none yet.
func (r *MessageRepository) LastInConversation(conversationID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Preload("Seen").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkAsRead adds userID to the seen-set of every message in the
// conversation it has not seen yet. Returns how many messages were newly
// marked; calling again with no new messages is a no-op.
func (r *MessageRepository) MarkAsRead(conversationID, userID uint) (int, error) {
	var marked int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		sub := tx.Model(&models.MessageSeen{}).Select("message_id").Where("user_id = ?", userID)
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND id NOT IN (?)", conversationID, sub).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Create(&models.MessageSeen{MessageID: id, UserID: userID}).Error; err != nil {
				return err
			}
		}
		marked = len(ids)
		return nil
	})
	return marked, err
}

// UnreadCount counts messages in the conversation whose seen-set does not
// contain userID. The sender is seeded into the seen-set at send time, so
// own messages never count as unread.
func (r *MessageRepository) UnreadCount(conversationID, userID uint) (int64, error) {
	var count int64
	sub := r.db.Model(&models.MessageSeen{}).Select("message_id").Where("user_id = ?", userID)
	err := r.db.Model(&models.Message{}).
		Where("conversation_id = ? AND id NOT IN (?)", conversationID, sub).
		Count(&count).Error
	return count, err
}
