// Package provider implements the price source the checker and the search
// endpoint query: airline providers behind a concurrent fan-out manager.
package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidQuery = errors.New("origin and destination are required")

// Query describes one route/date lookup.
type Query struct {
	Origin      string
	Destination string
	Date        string // YYYY-MM-DD
	ReturnDate  string
	Adults      int
	Children    int
	Infants     int
}

// Candidate is one priced flight returned by a provider.
type Candidate struct {
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Airline       string          `json:"airline"`
	FlightNumber  string          `json:"flight_number"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	Date          string          `json:"date"`
	DepartureTime string          `json:"departure_time"` // HH:MM
	ArrivalTime   string          `json:"arrival_time"`   // HH:MM
	BookingURL    string          `json:"booking_url"`
}

// Provider is a single airline price lookup. Search returns an empty slice
// when the airline has nothing on that route or date; errors are reserved
// for transport or parse failures.
type Provider interface {
	Name() string
	Serves(origin, destination string) bool
	Search(ctx context.Context, q Query) ([]Candidate, error)
}

// Route is a directed airport pair.
type Route struct {
	From string
	To   string
}
