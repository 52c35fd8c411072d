package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultCurrency = "EUR"

// TrackedFlight is a user's subscription to a route or a specific flight
// with a target price. It is never hard-deleted: stopping tracking flips
// IsActive and inactive rows are skipped by every price check.
type TrackedFlight struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Origin      string          `gorm:"size:3;not null" json:"origin"`
	Destination string          `gorm:"size:3;not null" json:"destination"`
	TargetPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_price"`
	Currency    string          `gorm:"size:3;not null;default:'EUR'" json:"currency"`

	// Optional pin to one specific flight.
	FlightNumber  string `gorm:"size:20" json:"flight_number,omitempty"`
	Airline       string `gorm:"size:50" json:"airline,omitempty"`
	DepartureTime string `gorm:"size:5" json:"departure_time,omitempty"`

	DepartureDate      *time.Time `json:"departure_date,omitempty"`
	DateRangeStart     *time.Time `json:"date_range_start,omitempty"`
	DateRangeEnd       *time.Time `json:"date_range_end,omitempty"`
	PreferredTimeStart string     `gorm:"size:5" json:"preferred_time_start,omitempty"`
	PreferredTimeEnd   string     `gorm:"size:5" json:"preferred_time_end,omitempty"`
	AirlineFilter      string     `gorm:"size:50;default:'ANY'" json:"airline_filter"`
	MaxStops           int        `gorm:"default:0" json:"max_stops"`
	IsRoundTrip        bool       `gorm:"default:false" json:"is_round_trip"`
	ReturnDate         *time.Time `json:"return_date,omitempty"`
	BookingURL         string     `gorm:"type:text" json:"booking_url,omitempty"`
	IsActive           bool       `gorm:"not null;default:true;index" json:"is_active"`

	LastNotifiedPrice    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"last_notified_price,omitempty"`
	LastNotificationType string           `gorm:"size:50" json:"last_notification_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User         User          `gorm:"foreignKey:UserID" json:"-"`
	PriceUpdates []PriceUpdate `gorm:"foreignKey:TrackedFlightID" json:"price_updates,omitempty"`
}

func (f *TrackedFlight) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Currency == "" {
		f.Currency = DefaultCurrency
	}
	return nil
}

// Route renders the flight's route for messages and results.
func (f *TrackedFlight) Route() string {
	return f.Origin + " → " + f.Destination
}

// SearchDate is the date the price check searches for: the departure date
// when set, otherwise today (UTC), as YYYY-MM-DD.
func (f *TrackedFlight) SearchDate(now time.Time) string {
	if f.DepartureDate != nil {
		return f.DepartureDate.UTC().Format(time.DateOnly)
	}
	return now.UTC().Format(time.DateOnly)
}
