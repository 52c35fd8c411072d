package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserPreferences holds a user's notification channels and display currency.
// A row is created lazily with defaults the first time it is read.
type UserPreferences struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	EmailNotifications bool      `gorm:"not null" json:"email_notifications"`
	InAppNotifications bool      `gorm:"not null" json:"in_app_notifications"`
	Currency           string    `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (UserPreferences) TableName() string {
	return "user_preferences"
}

func (p *UserPreferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DefaultPreferences returns the defaults applied to a new preferences row.
func DefaultPreferences(userID uuid.UUID) UserPreferences {
	return UserPreferences{
		UserID:             userID,
		EmailNotifications: true,
		InAppNotifications: true,
		Currency:           DefaultCurrency,
	}
}
