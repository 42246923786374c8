package models

import (
	"time"
)

// User mirrors one identity-provider account. Rows are hard-deleted on the
// provider's user.deleted event, so anything holding a user ID (participants,
// message senders, presence) may reference a row that no longer exists and
// readers must drop missing users instead of failing.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"uniqueIndex;size:255;not null" json:"external_id"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Username   string    `gorm:"size:64;not null" json:"username"`
	AvatarURL  string    `gorm:"size:512" json:"avatar_url"`
	IsOnline   bool      `gorm:"not null;default:false;index" json:"is_online"`
	LastSeen   time.Time `gorm:"not null" json:"last_seen"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
