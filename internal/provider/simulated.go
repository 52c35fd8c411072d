package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

type slot struct {
	departure string
	arrival   string
	number    string
}

// Simulator generates synthetic fares for a fixed route table. It stands in
// for a real airline lookup; the random source is injected so tests can
// seed it.
type Simulator struct {
	name      string
	routes    []Route
	slots     []slot
	basePrice float64
	step      float64
	variation float64
	floor     float64
	url       func(q Query) string

	mu  sync.Mutex
	rng *rand.Rand
}

func (s *Simulator) Name() string { return s.name }

func (s *Simulator) Serves(origin, destination string) bool {
	for _, r := range s.routes {
		if r.From == origin && r.To == destination {
			return true
		}
	}
	return false
}

// Routes returns the simulator's route table.
func (s *Simulator) Routes() []Route {
	out := make([]Route, len(s.routes))
	copy(out, s.routes)
	return out
}

func (s *Simulator) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Serves(q.Origin, q.Destination) {
		return []Candidate{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Candidate, 0, len(s.slots))
	for i, sl := range s.slots {
		base := s.basePrice + float64(i)*s.step
		price := base + (s.rng.Float64()-0.5)*s.variation
		if price < s.floor {
			price = s.floor
		}
		out = append(out, Candidate{
			Price:         decimal.NewFromFloat(price).Round(2),
			Currency:      "EUR",
			Airline:       s.name,
			FlightNumber:  sl.number,
			Origin:        q.Origin,
			Destination:   q.Destination,
			Date:          q.Date,
			DepartureTime: sl.departure,
			ArrivalTime:   sl.arrival,
			BookingURL:    s.url(q),
		})
	}
	return out, nil
}

// NewSeededRand returns a deterministic generator for simulators.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func NewRyanair(rng *rand.Rand) *Simulator {
	return &Simulator{
		name: "RYANAIR",
		routes: []Route{
			{"STN", "VLC"}, {"STN", "VCE"}, {"STN", "TSF"},
			{"VLC", "STN"}, {"VCE", "STN"}, {"TSF", "STN"},
		},
		slots: []slot{
			{"06:30", "09:45", "FR1234"},
			{"09:15", "12:30", "FR5678"},
			{"14:20", "17:35", "FR9012"},
			{"18:45", "22:00", "FR3456"},
			{"21:10", "00:25", "FR7890"},
		},
		basePrice: 29.99,
		step:      15,
		variation: 20,
		floor:     19.99,
		url: func(q Query) string {
			return fmt.Sprintf("https://www.ryanair.com/gb/en/booking/home/%s/%s/%s/%d/%d/%d/0",
				q.Origin, q.Destination, q.Date, max(q.Adults, 1), q.Children, q.Infants)
		},
		rng: rng,
	}
}

func NewEasyJet(rng *rand.Rand) *Simulator {
	return &Simulator{
		name: "EASYJET",
		routes: []Route{
			{"LGW", "VLC"}, {"LGW", "VCE"},
			{"VLC", "LGW"}, {"VCE", "LGW"},
		},
		slots: []slot{
			{"07:15", "10:30", "EZY1234"},
			{"11:45", "15:00", "EZY5678"},
			{"16:30", "19:45", "EZY9012"},
			{"20:15", "23:30", "EZY3456"},
		},
		basePrice: 49.99,
		step:      12,
		variation: 25,
		floor:     39.99,
		url: func(q Query) string {
			return fmt.Sprintf("https://www.easyjet.com/en/booking?dep=%s&arr=%s&date=%s",
				q.Origin, q.Destination, q.Date)
		},
		rng: rng,
	}
}

func NewWizzAir(rng *rand.Rand) *Simulator {
	return &Simulator{
		name: "WIZZAIR",
		routes: []Route{
			{"LGW", "TIA"}, {"STN", "TIA"},
			{"TIA", "LGW"}, {"TIA", "STN"},
		},
		slots: []slot{
			{"06:45", "10:15", "W61234"},
			{"14:20", "17:50", "W65678"},
			{"19:30", "23:00", "W69012"},
		},
		basePrice: 79.99,
		step:      20,
		variation: 30,
		floor:     59.99,
		url: func(q Query) string {
			return fmt.Sprintf("https://wizzair.com/en-gb/flights/%s/%s/%s",
				q.Origin, q.Destination, q.Date)
		},
		rng: rng,
	}
}
