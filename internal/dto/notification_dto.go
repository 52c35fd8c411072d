package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type NotificationFlight struct {
	ID          uuid.UUID       `json:"id"`
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

type NotificationResponse struct {
	ID            uuid.UUID           `json:"id"`
	Message       string              `json:"message"`
	Type          string              `json:"type"`
	IsRead        bool                `json:"is_read"`
	SentViaEmail  bool                `json:"sent_via_email"`
	SentViaInApp  bool                `json:"sent_via_in_app"`
	Metadata      datatypes.JSON      `json:"metadata"`
	CreatedAt     time.Time           `json:"created_at"`
	TrackedFlight *NotificationFlight `json:"tracked_flight"`
}

type NotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Total         int                    `json:"total"`
	Unread        int64                  `json:"unread"`
}

// PreferencesRequest is a partial update; nil fields are left unchanged.
type PreferencesRequest struct {
	Name               *string `json:"name"`
	EmailNotifications *bool   `json:"email_notifications"`
	InAppNotifications *bool   `json:"in_app_notifications"`
	Currency           *string `json:"currency"`
}
