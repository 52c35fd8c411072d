package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/provider"
)

var (
	ErrSearchRouteRequired = errors.New("origin and destination are required")
	ErrUnsupportedRoute    = errors.New("this route is not currently supported. Supported routes: London-Valencia, London-Tirana, London-Venice")
	ErrInvalidPassengers   = errors.New("at least one adult is required and passenger counts cannot be negative")
)

// FlightSearcher is satisfied by *provider.Manager.
type FlightSearcher interface {
	SupportsRoute(origin, destination string) bool
	FetchCandidates(ctx context.Context, q provider.Query) ([]provider.Candidate, error)
}

type SearchService struct {
	searcher FlightSearcher
	cache    cache.Cache
	ttl      time.Duration
	now      func() time.Time
}

// NewSearchService returns a search service. c may be nil to disable result
// caching.
func NewSearchService(searcher FlightSearcher, c cache.Cache, ttl time.Duration) *SearchService {
	return &SearchService{searcher: searcher, cache: c, ttl: ttl, now: time.Now}
}

// Search queries every airline serving the route and returns the flights
// sorted by price. Without a date it searches two months ahead.
func (s *SearchService) Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error) {
	origin := strings.ToUpper(strings.TrimSpace(req.Origin))
	destination := strings.ToUpper(strings.TrimSpace(req.Destination))
	if origin == "" || destination == "" {
		return nil, ErrSearchRouteRequired
	}
	if !s.searcher.SupportsRoute(origin, destination) {
		return nil, ErrUnsupportedRoute
	}
	if req.Adults < 1 || req.Children < 0 || req.Infants < 0 {
		return nil, ErrInvalidPassengers
	}

	date := req.Date
	if date == "" {
		date = s.now().UTC().AddDate(0, 2, 0).Format(time.DateOnly)
	}
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	if req.ReturnDate != "" {
		if _, err := parseDate(req.ReturnDate); err != nil {
			return nil, err
		}
	}

	q := provider.Query{
		Origin:      origin,
		Destination: destination,
		Date:        date,
		ReturnDate:  req.ReturnDate,
		Adults:      req.Adults,
		Children:    req.Children,
		Infants:     req.Infants,
	}
	key := cacheKey(q)
	if resp, ok := s.cached(ctx, key); ok {
		return resp, nil
	}

	candidates, err := s.searcher.FetchCandidates(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("flight search failed: %w", err)
	}

	resp := &dto.SearchResponse{
		Flights: make([]dto.FlightResult, 0, len(candidates)),
		Search: dto.SearchMeta{
			Origin:      origin,
			Destination: destination,
			Date:        date,
			Passengers:  dto.Passengers{Adults: req.Adults, Children: req.Children, Infants: req.Infants},
			Airlines:    []string{},
		},
	}
	if req.ReturnDate != "" {
		ret := req.ReturnDate
		resp.Search.ReturnDate = &ret
	}

	seen := make(map[string]bool)
	for i, c := range candidates {
		resp.Flights = append(resp.Flights, flightResult(i, date, c))
		if !seen[c.Airline] {
			seen[c.Airline] = true
			resp.Search.Airlines = append(resp.Search.Airlines, c.Airline)
		}
	}
	sort.SliceStable(resp.Flights, func(i, j int) bool {
		return resp.Flights[i].Price.LessThan(resp.Flights[j].Price)
	})
	resp.Search.TotalResults = len(resp.Flights)

	s.store(ctx, key, resp)
	return resp, nil
}

func (s *SearchService) cached(ctx context.Context, key string) (*dto.SearchResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	b, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			slog.Warn("search cache read failed", "error", err)
		}
		return nil, false
	}
	var resp dto.SearchResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		slog.Warn("search cache entry unreadable", "error", err)
		return nil, false
	}
	resp.Search.Cached = true
	return &resp, true
}

func (s *SearchService) store(ctx context.Context, key string, resp *dto.SearchResponse) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
		slog.Warn("search cache write failed", "error", err)
	}
}

func cacheKey(q provider.Query) string {
	return fmt.Sprintf("search:%s:%s:%s:%s:%d:%d:%d",
		q.Origin, q.Destination, q.Date, q.ReturnDate, q.Adults, q.Children, q.Infants)
}

func flightResult(i int, date string, c provider.Candidate) dto.FlightResult {
	departure, _ := time.Parse("2006-01-02 15:04", date+" "+c.DepartureTime)
	arrival, _ := time.Parse("2006-01-02 15:04", date+" "+c.ArrivalTime)
	if arrival.Before(departure) {
		arrival = arrival.Add(24 * time.Hour)
	}
	return dto.FlightResult{
		ID:           fmt.Sprintf("%s-%s-%d", strings.ToLower(c.Airline), c.FlightNumber, i),
		Airline:      c.Airline,
		FlightNumber: c.FlightNumber,
		Origin:       c.Origin,
		Destination:  c.Destination,
		Departure:    departure,
		Arrival:      arrival,
		Price:        c.Price,
		Currency:     c.Currency,
		Duration:     durationMinutes(c.DepartureTime, c.ArrivalTime),
		BookingURL:   c.BookingURL,
	}
}

// durationMinutes returns the minutes between two HH:MM clock times,
// wrapping past midnight.
func durationMinutes(departure, arrival string) int {
	d, err1 := time.Parse("15:04", departure)
	a, err2 := time.Parse("15:04", arrival)
	if err1 != nil || err2 != nil {
		return 0
	}
	minutes := int(a.Sub(d).Minutes())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return minutes
}
