package services

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

const notificationPageSize = 50

type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// List returns the user's newest notifications and the total unread count.
func (s *NotificationService) List(userID uuid.UUID) (*dto.NotificationsResponse, error) {
	var notes []models.Notification
	if err := s.db.Preload("TrackedFlight").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(notificationPageSize).
		Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	var unread int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	out := &dto.NotificationsResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notes)),
		Total:         len(notes),
		Unread:        unread,
	}
	for _, n := range notes {
		item := dto.NotificationResponse{
			ID:           n.ID,
			Message:      n.Message,
			Type:         n.Type,
			IsRead:       n.IsRead,
			SentViaEmail: n.SentViaEmail,
			SentViaInApp: n.SentViaInApp,
			Metadata:     n.Metadata,
			CreatedAt:    n.CreatedAt,
		}
		if f := n.TrackedFlight; f != nil {
			item.TrackedFlight = &dto.NotificationFlight{
				ID:          f.ID,
				Origin:      f.Origin,
				Destination: f.Destination,
				TargetPrice: f.TargetPrice,
			}
		}
		out.Notifications = append(out.Notifications, item)
	}
	return out, nil
}

// MarkAllRead flags every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uuid.UUID) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *NotificationService) MarkRead(userID, id uuid.UUID) error {
	var n models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to load notification: %w", err)
	}
	if n.IsRead {
		return nil
	}
	if err := s.db.Model(&n).Update("is_read", true).Error; err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) Delete(userID, id uuid.UUID) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
