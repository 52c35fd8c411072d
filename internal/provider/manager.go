package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Observer receives one call per provider search.
type Observer interface {
	ObserveProviderSearch(provider, outcome string, elapsed time.Duration)
}

// Search outcomes reported to the Observer.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Manager fans a query out to every provider serving the route and pools
// the results. A provider that fails or times out contributes nothing; it
// never aborts the lookup.
type Manager struct {
	providers []Provider
	timeout   time.Duration
	observer  Observer
}

func NewManager(timeout time.Duration, providers ...Provider) *Manager {
	return &Manager{providers: providers, timeout: timeout}
}

// NewDefaultManager wires the three simulated airlines.
func NewDefaultManager(timeout time.Duration, seed uint64) *Manager {
	return NewManager(timeout,
		NewRyanair(NewSeededRand(seed)),
		NewEasyJet(NewSeededRand(seed+1)),
		NewWizzAir(NewSeededRand(seed+2)),
	)
}

func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

// Airlines returns the names of providers serving the route, in
// registration order.
func (m *Manager) Airlines(origin, destination string) []string {
	var names []string
	for _, p := range m.providers {
		if p.Serves(origin, destination) {
			names = append(names, p.Name())
		}
	}
	return names
}

func (m *Manager) SupportsRoute(origin, destination string) bool {
	return len(m.Airlines(origin, destination)) > 0
}

// FetchCandidates returns the pooled candidates of all serving providers,
// ordered by provider registration order and then by each provider's own
// order. An unserved route yields an empty slice.
func (m *Manager) FetchCandidates(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Origin == "" || q.Destination == "" {
		return nil, ErrInvalidQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var serving []Provider
	for _, p := range m.providers {
		if p.Serves(q.Origin, q.Destination) {
			serving = append(serving, p)
		}
	}

	results := make([][]Candidate, len(serving))
	var g errgroup.Group
	for i, p := range serving {
		g.Go(func() error {
			results[i] = m.search(ctx, p, q)
			return nil
		})
	}
	_ = g.Wait()

	var pooled []Candidate
	for _, r := range results {
		pooled = append(pooled, r...)
	}
	if pooled == nil {
		pooled = []Candidate{}
	}
	return pooled, nil
}

type searchResult struct {
	candidates []Candidate
	err        error
}

func (m *Manager) search(ctx context.Context, p Provider, q Query) []Candidate {
	start := time.Now()
	pctx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	done := make(chan searchResult, 1)
	go func() {
		c, err := p.Search(pctx, q)
		done <- searchResult{candidates: c, err: err}
	}()

	var res searchResult
	select {
	case res = <-done:
	case <-pctx.Done():
		res.err = pctx.Err()
	}

	outcome := OutcomeOK
	switch {
	case res.err != nil && pctx.Err() == context.DeadlineExceeded:
		outcome = OutcomeTimeout
		slog.Warn("provider search timed out", "provider", p.Name(), "route", q.Origin+"-"+q.Destination, "timeout", m.timeout)
	case res.err != nil:
		outcome = OutcomeError
		slog.Warn("provider search failed", "provider", p.Name(), "route", q.Origin+"-"+q.Destination, "error", res.err)
	default:
		slog.Debug("provider search complete", "provider", p.Name(), "flights", len(res.candidates))
	}
	if m.observer != nil {
		m.observer.ObserveProviderSearch(p.Name(), outcome, time.Since(start))
	}
	if res.err != nil {
		return nil
	}
	return res.candidates
}
