package repository

import (
	"errors"
	"time"

	"chirp/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByExternalID(externalID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("external_id = ?", externalID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List() ([]models.User, error) {
	var list []models.User
	err := r.db.Order("username ASC").Find(&list).Error
	return list, err
}

// GetManyByIDs resolves a batch of user IDs. IDs with no matching row are
// simply absent from the result; callers render what resolved.
func (r *UserRepository) GetManyByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []models.User
	err := r.db.Where("id IN ?", ids).Find(&list).Error
	return list, err
}

// CreateOrUpdate upserts a user keyed on the identity-provider subject.
// First creation marks the user online with a fresh last_seen; later calls
// patch only the profile fields and leave the online state to the presence
// tracker.
func (r *UserRepository) CreateOrUpdate(externalID, email, username, avatarURL string) (*models.User, error) {
	var u models.User
	err := r.db.Where("external_id = ?", externalID).First(&u).Error
	if err == nil {
		u.Email = email
		u.Username = username
		u.AvatarURL = avatarURL
		if err := r.db.Model(&u).Updates(map[string]interface{}{
			"email":      email,
			"username":   username,
			"avatar_url": avatarURL,
		}).Error; err != nil {
			return nil, err
		}
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	u = models.User{
		ExternalID: externalID,
		Email:      email,
		Username:   username,
		AvatarURL:  avatarURL,
		IsOnline:   true,
		LastSeen:   time.Now(),
	}
	if err := r.db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteByExternalID hard-deletes the user row. Conversations, messages and
// presence rows referencing the user are left in place; readers filter the
// dangling references.
func (r *UserRepository) DeleteByExternalID(externalID string) error {
	return r.db.Where("external_id = ?", externalID).Delete(&models.User{}).Error
}

// SetOnline patches the online flag and last_seen on the user row itself.
// It runs separately from the presence upsert, so the two can transiently
// disagree.
func (r *UserRepository) SetOnline(userID uint, isOnline bool, lastSeen time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"is_online": isOnline,
		"last_seen": lastSeen,
	}).Error
}
