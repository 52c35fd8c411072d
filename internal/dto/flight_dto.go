package dto

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrackFlightRequest creates a subscription. Dates are YYYY-MM-DD and times
// HH:MM. FlightNumber with DepartureTime pins one specific flight.
type TrackFlightRequest struct {
	Origin             string           `json:"origin"`
	Destination        string           `json:"destination"`
	TargetPrice        decimal.Decimal  `json:"target_price"`
	Currency           string           `json:"currency"`
	DepartureDate      string           `json:"departure_date"`
	IsRoundTrip        bool             `json:"is_round_trip"`
	ReturnDate         string           `json:"return_date"`
	DateRangeStart     string           `json:"date_range_start"`
	DateRangeEnd       string           `json:"date_range_end"`
	PreferredTimeStart string           `json:"preferred_time_start"`
	PreferredTimeEnd   string           `json:"preferred_time_end"`
	AirlineFilter      string           `json:"airline_filter"`
	Airline            string           `json:"airline"`
	FlightNumber       string           `json:"flight_number"`
	DepartureTime      string           `json:"departure_time"`
	MaxStops           int              `json:"max_stops"`
	BookingURL         string           `json:"booking_url"`
	CurrentPrice       *decimal.Decimal `json:"current_price"`
}

type TrackFlightResponse struct {
	Message       string               `json:"message"`
	TrackedFlight models.TrackedFlight `json:"tracked_flight"`
}

type SpecificFlightDetails struct {
	FlightNumber  string     `json:"flight_number"`
	Airline       string     `json:"airline"`
	DepartureTime *time.Time `json:"departure_time"`
}

// TrackedFlightResponse is a subscription with its price statistics.
type TrackedFlightResponse struct {
	models.TrackedFlight
	CurrentPrice          decimal.Decimal        `json:"current_price"`
	LowestPrice           decimal.Decimal        `json:"lowest_price"`
	HighestPrice          decimal.Decimal        `json:"highest_price"`
	UnreadNotifications   int64                  `json:"unread_notifications"`
	SpecificFlightDetails *SpecificFlightDetails `json:"specific_flight_details"`
}

type TrackedFlightsResponse struct {
	TrackedFlights []TrackedFlightResponse `json:"tracked_flights"`
}

type SearchRequest struct {
	Origin      string
	Destination string
	Date        string
	ReturnDate  string
	Adults      int
	Children    int
	Infants     int
}

type FlightResult struct {
	ID           string          `json:"id"`
	Airline      string          `json:"airline"`
	FlightNumber string          `json:"flight_number"`
	Origin       string          `json:"origin"`
	Destination  string          `json:"destination"`
	Departure    time.Time       `json:"departure"`
	Arrival      time.Time       `json:"arrival"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	Stops        int             `json:"stops"`
	Duration     int             `json:"duration"`
	BookingURL   string          `json:"booking_url"`
}

type Passengers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

type SearchMeta struct {
	Origin       string     `json:"origin"`
	Destination  string     `json:"destination"`
	Date         string     `json:"date"`
	ReturnDate   *string    `json:"return_date"`
	Passengers   Passengers `json:"passengers"`
	TotalResults int        `json:"total_results"`
	Airlines     []string   `json:"airlines"`
	Cached       bool       `json:"cached"`
}

type SearchResponse struct {
	Flights []FlightResult `json:"flights"`
	Search  SearchMeta     `json:"search"`
}

type PriceCheckResponse struct {
	Message       string      `json:"message"`
	Success       bool        `json:"success"`
	Skipped       bool        `json:"skipped"`
	Checked       int         `json:"checked"`
	Notifications int         `json:"notifications"`
	Results       interface{} `json:"results"`
	Timestamp     string      `json:"timestamp"`
}

// PriceUpdateFeedItem is one row of the admin price feed.
type PriceUpdateFeedItem struct {
	ID              uuid.UUID       `json:"id"`
	TrackedFlightID uuid.UUID       `json:"tracked_flight_id"`
	Route           string          `json:"route"`
	UserEmail       string          `json:"user_email"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	Airline         string          `json:"airline,omitempty"`
	FlightNumber    string          `json:"flight_number,omitempty"`
	RecordedAt      time.Time       `json:"recorded_at"`
}
