package services

import (
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const priceFeedSize = 50

type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// RecentPriceUpdates returns the newest price samples across all users.
func (s *AdminService) RecentPriceUpdates() ([]dto.PriceUpdateFeedItem, error) {
	var rows []struct {
		ID              uuid.UUID
		TrackedFlightID uuid.UUID
		Origin          string
		Destination     string
		UserEmail       string
		Price           decimal.Decimal
		Currency        string
		Airline         string
		FlightNumber    string
		RecordedAt      time.Time
	}
	err := s.db.Table("price_updates").
		Select(`price_updates.id, price_updates.tracked_flight_id,
			tracked_flights.origin, tracked_flights.destination,
			users.email AS user_email,
			price_updates.price, price_updates.currency, price_updates.airline,
			price_updates.flight_number, price_updates.recorded_at`).
		Joins("JOIN tracked_flights ON tracked_flights.id = price_updates.tracked_flight_id").
		Joins("JOIN users ON users.id = tracked_flights.user_id").
		Order("price_updates.recorded_at DESC").
		Limit(priceFeedSize).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price updates: %w", err)
	}

	out := make([]dto.PriceUpdateFeedItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.PriceUpdateFeedItem{
			ID:              r.ID,
			TrackedFlightID: r.TrackedFlightID,
			Route:           r.Origin + " → " + r.Destination,
			UserEmail:       r.UserEmail,
			Price:           r.Price,
			Currency:        r.Currency,
			Airline:         r.Airline,
			FlightNumber:    r.FlightNumber,
			RecordedAt:      r.RecordedAt,
		})
	}
	return out, nil
}
