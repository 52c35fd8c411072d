package checker

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipient is the owner of a subscription as seen by the checker.
// Preferences is nil when the user never saved any.
type Recipient struct {
	Email       string
	Name        string
	Preferences *models.UserPreferences
}

// Store is the persistence the checker needs. Every write is an append or a
// single-row update.
type Store interface {
	ActiveSubscriptions(ctx context.Context) ([]models.TrackedFlight, error)
	// LatestPrice returns nil when the subscription has no samples yet.
	LatestPrice(ctx context.Context, trackedFlightID uuid.UUID) (*decimal.Decimal, error)
	Recipient(ctx context.Context, userID uuid.UUID) (Recipient, error)
	AppendPrice(ctx context.Context, sample *models.PriceUpdate) error
	AppendNotification(ctx context.Context, n *models.Notification) error
	MarkEmailSent(ctx context.Context, notificationID uuid.UUID) error
	TouchLastNotified(ctx context.Context, trackedFlightID uuid.UUID, price decimal.Decimal, notificationType string) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ActiveSubscriptions(ctx context.Context) ([]models.TrackedFlight, error) {
	var flights []models.TrackedFlight
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&flights).Error
	return flights, err
}

func (s *GormStore) LatestPrice(ctx context.Context, trackedFlightID uuid.UUID) (*decimal.Decimal, error) {
	var sample models.PriceUpdate
	err := s.db.WithContext(ctx).
		Where("tracked_flight_id = ?", trackedFlightID).
		Order("recorded_at DESC").
		First(&sample).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sample.Price, nil
}

func (s *GormStore) Recipient(ctx context.Context, userID uuid.UUID) (Recipient, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return Recipient{}, err
	}
	r := Recipient{Email: user.Email, Name: user.Name}

	var prefs models.UserPreferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	switch {
	case err == nil:
		r.Preferences = &prefs
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return Recipient{}, err
	}
	return r, nil
}

func (s *GormStore) AppendPrice(ctx context.Context, sample *models.PriceUpdate) error {
	return s.db.WithContext(ctx).Create(sample).Error
}

func (s *GormStore) AppendNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormStore) MarkEmailSent(ctx context.Context, notificationID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", notificationID).
		Update("sent_via_email", true).Error
}

func (s *GormStore) TouchLastNotified(ctx context.Context, trackedFlightID uuid.UUID, price decimal.Decimal, notificationType string) error {
	return s.db.WithContext(ctx).
		Model(&models.TrackedFlight{}).
		Where("id = ?", trackedFlightID).
		Updates(map[string]interface{}{
			"last_notified_price":    price,
			"last_notification_type": notificationType,
		}).Error
}
