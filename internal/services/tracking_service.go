package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTrackedFlightNotFound = errors.New("tracked flight not found")
	ErrMissingTrackFields    = errors.New("origin, destination, target price, and departure date are required")
	ErrInvalidAirport        = errors.New("airport codes must be 3-letter IATA codes")
	ErrInvalidDate           = errors.New("dates must be formatted as YYYY-MM-DD")
	ErrInvalidTime           = errors.New("times must be formatted as HH:MM")
	ErrInvalidPrice          = errors.New("prices must be positive")
)

const historyPreview = 10

// Price statistics fall back to these multiples of the target when a
// subscription has no samples yet.
var (
	lowestFallback  = decimal.RequireFromString("0.8")
	highestFallback = decimal.RequireFromString("1.5")
)

// PriceChecker checks one subscription now. *checker.Checker satisfies it.
type PriceChecker interface {
	CheckSubscription(ctx context.Context, flight models.TrackedFlight) (checker.Result, error)
}

type TrackingService struct {
	db      *gorm.DB
	checker PriceChecker
	params  pricing.Params
}

func NewTrackingService(db *gorm.DB, checker PriceChecker, params pricing.Params) *TrackingService {
	return &TrackingService{db: db, checker: checker, params: params}
}

// Create stores a new subscription together with its initial price sample.
func (s *TrackingService) Create(userID uuid.UUID, req *dto.TrackFlightRequest) (*dto.TrackFlightResponse, error) {
	origin := strings.ToUpper(strings.TrimSpace(req.Origin))
	destination := strings.ToUpper(strings.TrimSpace(req.Destination))
	if origin == "" || destination == "" || req.TargetPrice.IsZero() || req.DepartureDate == "" {
		return nil, ErrMissingTrackFields
	}
	if !isUpperCode3(origin) || !isUpperCode3(destination) {
		return nil, ErrInvalidAirport
	}
	target := req.TargetPrice.Round(2)
	if !target.IsPositive() || (req.CurrentPrice != nil && req.CurrentPrice.IsNegative()) {
		return nil, ErrInvalidPrice
	}

	departure, err := parseDate(req.DepartureDate)
	if err != nil {
		return nil, err
	}
	var returnDate, rangeStart, rangeEnd *time.Time
	if returnDate, err = parseOptionalDate(req.ReturnDate); err != nil {
		return nil, err
	}
	if rangeStart, err = parseOptionalDate(req.DateRangeStart); err != nil {
		return nil, err
	}
	if rangeEnd, err = parseOptionalDate(req.DateRangeEnd); err != nil {
		return nil, err
	}
	for _, hhmm := range []string{req.DepartureTime, req.PreferredTimeStart, req.PreferredTimeEnd} {
		if hhmm != "" && !isClock(hhmm) {
			return nil, ErrInvalidTime
		}
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = models.DefaultCurrency
	}
	airlineFilter := req.AirlineFilter
	if airlineFilter == "" {
		airlineFilter = req.Airline
	}
	if airlineFilter == "" {
		airlineFilter = "ANY"
	}

	flight := models.TrackedFlight{
		UserID:             userID,
		Origin:             origin,
		Destination:        destination,
		TargetPrice:        target,
		Currency:           currency,
		FlightNumber:       req.FlightNumber,
		Airline:            req.Airline,
		DepartureTime:      req.DepartureTime,
		DepartureDate:      &departure,
		DateRangeStart:     rangeStart,
		DateRangeEnd:       rangeEnd,
		PreferredTimeStart: req.PreferredTimeStart,
		PreferredTimeEnd:   req.PreferredTimeEnd,
		AirlineFilter:      airlineFilter,
		MaxStops:           req.MaxStops,
		IsRoundTrip:        req.IsRoundTrip,
		ReturnDate:         returnDate,
		BookingURL:         req.BookingURL,
		IsActive:           true,
	}

	initial := pricing.FallbackPrice(flight.TargetPrice, s.params)
	if req.CurrentPrice != nil {
		initial = req.CurrentPrice.Round(2)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&flight).Error; err != nil {
			return err
		}
		sample := models.PriceUpdate{
			TrackedFlightID: flight.ID,
			Price:           initial,
			Currency:        currency,
			Airline:         req.Airline,
			FlightNumber:    req.FlightNumber,
		}
		if req.DepartureTime != "" {
			t, _ := time.Parse("2006-01-02 15:04", req.DepartureDate+" "+req.DepartureTime)
			sample.DepartureTime = &t
		}
		return tx.Create(&sample).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracked flight: %w", err)
	}

	msg := fmt.Sprintf("Now tracking %s for flights below %s",
		flight.Route(), pricing.FormatMoney(flight.TargetPrice, currency))
	if req.FlightNumber != "" && req.DepartureTime != "" {
		msg = strings.TrimSpace(fmt.Sprintf("Now tracking %s %s on %s", req.Airline, req.FlightNumber, req.DepartureDate))
	}

	return &dto.TrackFlightResponse{Message: msg, TrackedFlight: flight}, nil
}

// List returns the user's active subscriptions, newest first, each with its
// latest samples and price statistics.
func (s *TrackingService) List(userID uuid.UUID) (*dto.TrackedFlightsResponse, error) {
	var flights []models.TrackedFlight
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at DESC").
		Find(&flights).Error; err != nil {
		return nil, fmt.Errorf("failed to list tracked flights: %w", err)
	}

	out := &dto.TrackedFlightsResponse{TrackedFlights: make([]dto.TrackedFlightResponse, 0, len(flights))}
	if len(flights) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(flights))
	for i, f := range flights {
		ids[i] = f.ID
	}
	stats, err := s.priceStats(ids)
	if err != nil {
		return nil, err
	}
	unread, err := s.unreadCounts(userID, ids)
	if err != nil {
		return nil, err
	}

	for _, f := range flights {
		if err := s.db.Where("tracked_flight_id = ?", f.ID).
			Order("recorded_at DESC").
			Limit(historyPreview).
			Find(&f.PriceUpdates).Error; err != nil {
			return nil, fmt.Errorf("failed to load price history: %w", err)
		}
		out.TrackedFlights = append(out.TrackedFlights, s.summarize(f, stats[f.ID], unread[f.ID]))
	}
	return out, nil
}

// Get returns one of the user's subscriptions with its full price history.
func (s *TrackingService) Get(userID, id uuid.UUID) (*dto.TrackedFlightResponse, error) {
	flight, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Where("tracked_flight_id = ?", flight.ID).
		Order("recorded_at DESC").
		Find(&flight.PriceUpdates).Error; err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}

	stats, err := s.priceStats([]uuid.UUID{flight.ID})
	if err != nil {
		return nil, err
	}
	unread, err := s.unreadCounts(userID, []uuid.UUID{flight.ID})
	if err != nil {
		return nil, err
	}
	resp := s.summarize(*flight, stats[flight.ID], unread[flight.ID])
	return &resp, nil
}

// Stop deactivates a subscription. Its history is kept.
func (s *TrackingService) Stop(userID, id uuid.UUID) error {
	result := s.db.Model(&models.TrackedFlight{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to stop tracking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTrackedFlightNotFound
	}
	return nil
}

// CheckNow runs a price check on one active subscription of the user.
func (s *TrackingService) CheckNow(ctx context.Context, userID, id uuid.UUID) (*checker.Result, error) {
	flight, err := s.owned(userID, id)
	if err != nil {
		return nil, err
	}
	if !flight.IsActive {
		return nil, ErrTrackedFlightNotFound
	}
	res, err := s.checker.CheckSubscription(ctx, *flight)
	if err != nil {
		return nil, fmt.Errorf("price check failed: %w", err)
	}
	return &res, nil
}

func (s *TrackingService) owned(userID, id uuid.UUID) (*models.TrackedFlight, error) {
	var flight models.TrackedFlight
	err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&flight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTrackedFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked flight: %w", err)
	}
	return &flight, nil
}

type priceStat struct {
	TrackedFlightID uuid.UUID
	Lowest          decimal.Decimal
	Highest         decimal.Decimal
}

func (s *TrackingService) priceStats(ids []uuid.UUID) (map[uuid.UUID]*priceStat, error) {
	var rows []priceStat
	if err := s.db.Model(&models.PriceUpdate{}).
		Select("tracked_flight_id, MIN(price) AS lowest, MAX(price) AS highest").
		Where("tracked_flight_id IN ?", ids).
		Group("tracked_flight_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load price statistics: %w", err)
	}
	out := make(map[uuid.UUID]*priceStat, len(rows))
	for i := range rows {
		out[rows[i].TrackedFlightID] = &rows[i]
	}
	return out, nil
}

func (s *TrackingService) unreadCounts(userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	var rows []struct {
		TrackedFlightID uuid.UUID
		Unread          int64
	}
	if err := s.db.Model(&models.Notification{}).
		Select("tracked_flight_id, COUNT(*) AS unread").
		Where("user_id = ? AND is_read = ? AND tracked_flight_id IN ?", userID, false, ids).
		Group("tracked_flight_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		out[r.TrackedFlightID] = r.Unread
	}
	return out, nil
}

// summarize expects f.PriceUpdates ordered newest first.
func (s *TrackingService) summarize(f models.TrackedFlight, stat *priceStat, unread int64) dto.TrackedFlightResponse {
	resp := dto.TrackedFlightResponse{
		TrackedFlight:       f,
		CurrentPrice:        pricing.FallbackPrice(f.TargetPrice, s.params),
		LowestPrice:         f.TargetPrice.Mul(lowestFallback).Round(2),
		HighestPrice:        f.TargetPrice.Mul(highestFallback).Round(2),
		UnreadNotifications: unread,
	}
	if len(f.PriceUpdates) > 0 {
		latest := f.PriceUpdates[0]
		resp.CurrentPrice = latest.Price
		resp.SpecificFlightDetails = &dto.SpecificFlightDetails{
			FlightNumber:  latest.FlightNumber,
			Airline:       latest.Airline,
			DepartureTime: latest.DepartureTime,
		}
	}
	if stat != nil {
		resp.LowestPrice = stat.Lowest
		resp.HighestPrice = stat.Highest
	}
	return resp
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// isUpperCode3 reports whether code is three letters A-Z, the shape of both
// IATA airport and ISO 4217 currency codes.
func isUpperCode3(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
