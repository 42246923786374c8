package models

import (
	"time"
)

type Conversation struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IsGroup       bool      `gorm:"not null;default:false;index" json:"is_group"`
	GroupName     string    `gorm:"size:255" json:"group_name,omitempty"`
	GroupImage    string    `gorm:"size:512" json:"group_image,omitempty"`
	LastMessageAt time.Time `gorm:"not null;index" json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"-"`
}

// ParticipantIDs returns the user IDs of all participants (requires
// Participants to be preloaded).
func (c *Conversation) ParticipantIDs() []uint {
	ids := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}

// HasParticipant reports whether userID is among the preloaded participants.
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// ConversationParticipant is one membership row. The unique pair index stops
// the same user being added to a conversation twice; it does not dedup whole
// conversations (two-party dedup is a scan at creation time).
type ConversationParticipant struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;uniqueIndex:idx_conversation_user" json:"conversation_id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_conversation_user;index" json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
