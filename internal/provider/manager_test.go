package provider

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	routes     []Route
	candidates []Candidate
	err        error
	block      bool
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Serves(origin, destination string) bool {
	for _, r := range s.routes {
		if r.From == origin && r.To == destination {
			return true
		}
	}
	return false
}

func (s *stubProvider) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.candidates, s.err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string]string
}

func (r *recordingObserver) ObserveProviderSearch(provider, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]string{}
	}
	r.outcomes[provider] = outcome
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var stnVlc = []Route{{"STN", "VLC"}}

func TestFetchCandidatesPoolsInRegistrationOrder(t *testing.T) {
	m := NewManager(time.Second,
		&stubProvider{name: "A", routes: stnVlc, candidates: []Candidate{{Price: price("80"), FlightNumber: "A1"}}},
		&stubProvider{name: "B", routes: stnVlc, candidates: []Candidate{{Price: price("65"), FlightNumber: "B1"}, {Price: price("90"), FlightNumber: "B2"}}},
		&stubProvider{name: "C", routes: []Route{{"LGW", "TIA"}}, candidates: []Candidate{{Price: price("10")}}},
	)

	got, err := m.FetchCandidates(context.Background(), Query{Origin: "STN", Destination: "VLC", Date: "2026-12-01"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A1", got[0].FlightNumber)
	assert.Equal(t, "B1", got[1].FlightNumber)
	assert.Equal(t, "B2", got[2].FlightNumber)
}

func TestFetchCandidatesSettlesFailures(t *testing.T) {
	obs := &recordingObserver{}
	m := NewManager(20*time.Millisecond,
		&stubProvider{name: "broken", routes: stnVlc, err: errors.New("connection reset")},
		&stubProvider{name: "slow", routes: stnVlc, block: true},
		&stubProvider{name: "ok", routes: stnVlc, candidates: []Candidate{{Price: price("42.50")}}},
	)
	m.SetObserver(obs)

	got, err := m.FetchCandidates(context.Background(), Query{Origin: "STN", Destination: "VLC"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, price("42.50").Equal(got[0].Price))

	assert.Equal(t, OutcomeError, obs.outcomes["broken"])
	assert.Equal(t, OutcomeTimeout, obs.outcomes["slow"])
	assert.Equal(t, OutcomeOK, obs.outcomes["ok"])
}

func TestFetchCandidatesUnservedRouteIsEmpty(t *testing.T) {
	m := NewDefaultManager(time.Second, 1)

	got, err := m.FetchCandidates(context.Background(), Query{Origin: "JFK", Destination: "LAX"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.False(t, m.SupportsRoute("JFK", "LAX"))
}

func TestFetchCandidatesRejectsInvalidQuery(t *testing.T) {
	m := NewDefaultManager(time.Second, 1)

	_, err := m.FetchCandidates(context.Background(), Query{Origin: "STN"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFetchCandidatesCancelledContext(t *testing.T) {
	m := NewDefaultManager(time.Second, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.FetchCandidates(ctx, Query{Origin: "STN", Destination: "VLC"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAirlines(t *testing.T) {
	m := NewDefaultManager(time.Second, 1)

	assert.Equal(t, []string{"RYANAIR"}, m.Airlines("STN", "VLC"))
	assert.Equal(t, []string{"EASYJET"}, m.Airlines("LGW", "VCE"))
	assert.Equal(t, []string{"WIZZAIR"}, m.Airlines("TIA", "STN"))
	assert.Nil(t, m.Airlines("VLC", "TIA"))
}
