package repository

import (
	"time"

	"chirp/internal/models"

	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindDirect scans non-group conversations for one whose participant pair is
// exactly {userA, userB}, order-independent. This is a read-then-check with
// no isolation against a concurrent identical create, so two simultaneous
// first messages between the same pair can still yield two conversations.
func (r *ConversationRepository) FindDirect(userA, userB uint) (*models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Preload("Participants").Where("is_group = ?", false).Find(&convs).Error
	if err != nil {
		return nil, err
	}
	for i := range convs {
		ids := convs[i].ParticipantIDs()
		if len(ids) != 2 {
			continue
		}
		if (ids[0] == userA && ids[1] == userB) || (ids[0] == userB && ids[1] == userA) {
			return &convs[i], nil
		}
	}
	return nil, nil
}

// Create inserts the conversation and its participant rows in one
// transaction. LastMessageAt starts at creation time so a fresh conversation
// sorts to the top of the list before its first message.
func (r *ConversationRepository) Create(conv *models.Conversation, participantIDs []uint) error {
	if conv.LastMessageAt.IsZero() {
		conv.LastMessageAt = time.Now()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		for _, uid := range participantIDs {
			p := models.ConversationParticipant{ConversationID: conv.ID, UserID: uid}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			conv.Participants = append(conv.Participants, p)
		}
		return nil
	})
}

// ListForUser returns the conversations userID participates in, most recent
// activity first.
func (r *ConversationRepository) ListForUser(userID uint) ([]models.Conversation, error) {
	var list []models.Conversation
	err := r.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.last_message_at DESC").
		Preload("Participants").
		Find(&list).Error
	return list, err
}

func (r *ConversationRepository) GetByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Preload("Participants").First(&conv, id).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}
