package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidCurrency = errors.New("currency must be a 3-letter ISO code")

type PreferencesService struct {
	db *gorm.DB
}

func NewPreferencesService(db *gorm.DB) *PreferencesService {
	return &PreferencesService{db: db}
}

// Get returns the user's preferences, creating the default row on first
// access.
func (s *PreferencesService) Get(userID uuid.UUID) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := s.db.Where(models.UserPreferences{UserID: userID}).
		Attrs(models.DefaultPreferences(userID)).
		FirstOrCreate(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &prefs, nil
}

// Update applies the non-nil fields of req, creating the row with defaults
// for the rest when it does not exist. A name updates the user record.
func (s *PreferencesService) Update(userID uuid.UUID, req *dto.PreferencesRequest) (*models.UserPreferences, error) {
	var currency string
	if req.Currency != nil {
		currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
		if !isUpperCode3(currency) {
			return nil, ErrInvalidCurrency
		}
	}

	var prefs models.UserPreferences
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if req.Name != nil {
			result := tx.Model(&models.User{}).Where("id = ?", userID).Update("name", strings.TrimSpace(*req.Name))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}

		err := tx.Where("user_id = ?", userID).First(&prefs).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			prefs = models.DefaultPreferences(userID)
			applyPreferences(&prefs, req, currency)
			return tx.Create(&prefs).Error
		}
		if err != nil {
			return err
		}

		applyPreferences(&prefs, req, currency)
		return tx.Model(&prefs).Select("email_notifications", "in_app_notifications", "currency").Updates(&prefs).Error
	})
	if errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return &prefs, nil
}

func applyPreferences(p *models.UserPreferences, req *dto.PreferencesRequest, currency string) {
	if req.EmailNotifications != nil {
		p.EmailNotifications = *req.EmailNotifications
	}
	if req.InAppNotifications != nil {
		p.InAppNotifications = *req.InAppNotifications
	}
	if req.Currency != nil {
		p.Currency = currency
	}
}
