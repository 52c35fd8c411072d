package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceUpdate is one append-only price observation for a tracked flight.
type PriceUpdate struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TrackedFlightID uuid.UUID       `gorm:"type:uuid;not null;index:idx_price_updates_flight_recorded,priority:1" json:"tracked_flight_id"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency        string          `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Airline         string          `gorm:"size:50" json:"airline,omitempty"`
	FlightNumber    string          `gorm:"size:20" json:"flight_number,omitempty"`
	DepartureTime   *time.Time      `json:"departure_time,omitempty"`
	RecordedAt      time.Time       `gorm:"not null;index:idx_price_updates_flight_recorded,priority:2,sort:desc" json:"recorded_at"`

	TrackedFlight *TrackedFlight `gorm:"foreignKey:TrackedFlightID" json:"-"`
}

func (p *PriceUpdate) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return nil
}
