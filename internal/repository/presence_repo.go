package repository

import (
	"chirp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Upsert replaces the caller's presence row wholesale. Callers must pass a
// fully populated record: an omitted typing flag arrives here as false and
// overwrites whatever was stored before. The conflict clause resolves the
// insert race of two concurrent first heartbeats at the unique user_id index
// instead of surfacing a duplicate-key error.
func (r *PresenceRepository) Upsert(p *models.Presence) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_online", "is_typing", "typing_in_conversation_id", "last_seen", "updated_at",
		}),
	}).Create(p).Error
}

func (r *PresenceRepository) GetByUserID(userID uint) (*models.Presence, error) {
	var p models.Presence
	err := r.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserIDs returns the presence rows that exist for the given users;
// users without a row are simply absent.
func (r *PresenceRepository) GetByUserIDs(userIDs []uint) ([]models.Presence, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []models.Presence
	err := r.db.Where("user_id IN ?", userIDs).Find(&list).Error
	return list, err
}
