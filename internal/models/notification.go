package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification types raised by the price checker.
const (
	NotificationBelowTarget   = "price_drop_below_target"
	NotificationPriceDrop     = "price_drop"
	NotificationRiseAfterDrop = "price_rise_after_drop"
)

// Notification is a user-facing price alert. Price values are copied into
// Metadata at creation time; the price update itself is not referenced.
type Notification struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TrackedFlightID uuid.UUID      `gorm:"type:uuid;not null;index" json:"tracked_flight_id"`
	Message         string         `gorm:"type:text;not null" json:"message"`
	Type            string         `gorm:"size:50;not null" json:"type"`
	IsRead          bool           `gorm:"not null;default:false;index" json:"is_read"`
	SentViaEmail    bool           `gorm:"not null;default:false" json:"sent_via_email"`
	SentViaInApp    bool           `gorm:"not null" json:"sent_via_in_app"`
	Metadata        datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	CreatedAt       time.Time      `json:"created_at"`

	TrackedFlight *TrackedFlight `gorm:"foreignKey:TrackedFlightID" json:"tracked_flight,omitempty"`
}

// NotificationMetadata is the denormalized price snapshot stored with a
// notification.
type NotificationMetadata struct {
	OldPrice         *decimal.Decimal `json:"old_price"`
	NewPrice         decimal.Decimal  `json:"new_price"`
	TargetPrice      decimal.Decimal  `json:"target_price"`
	PriceDrop        decimal.Decimal  `json:"price_drop"`
	PriceDropPercent decimal.Decimal  `json:"price_drop_percent"`
	BookingURL       string           `json:"booking_url,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SetMetadata encodes meta into the Metadata column.
func (n *Notification) SetMetadata(meta NotificationMetadata) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	n.Metadata = datatypes.JSON(b)
	return nil
}

// DecodeMetadata returns the stored price snapshot.
func (n *Notification) DecodeMetadata() (NotificationMetadata, error) {
	var meta NotificationMetadata
	if len(n.Metadata) == 0 {
		return meta, nil
	}
	err := json.Unmarshal(n.Metadata, &meta)
	return meta, err
}
