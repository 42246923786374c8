package models

import (
	"time"
)

// Presence is one row per user, fully overwritten on every set-presence
// call. The row outlives the client session: after a disconnect it keeps the
// last state the client managed to write (no server-side expiry).
type Presence struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	UserID                 uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	IsOnline               bool      `gorm:"not null;default:false" json:"is_online"`
	IsTyping               bool      `gorm:"not null;default:false" json:"is_typing"`
	TypingInConversationID *uint     `json:"typing_in_conversation_id,omitempty"`
	LastSeen               time.Time `gorm:"not null" json:"last_seen"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (Presence) TableName() string {
	return "presence"
}
