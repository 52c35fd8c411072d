package checker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/metrics"
	"github.com/getsentry/sentry-go"
)

// Summary is the outcome of one batch run.
type Summary struct {
	Success       bool          `json:"success"`
	Skipped       bool          `json:"skipped"`
	Checked       int           `json:"checked"`
	Notifications int           `json:"notifications"`
	Results       []Result      `json:"results"`
	Error         string        `json:"error,omitempty"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Runner checks every active subscription in sequence. At most one run is in
// flight per process; the guard is not shared across instances.
type Runner struct {
	checker *Checker
	delay   time.Duration
	running atomic.Bool
}

func NewRunner(c *Checker, delay time.Duration) *Runner {
	return &Runner{checker: c, delay: delay}
}

// Running reports whether a batch is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run executes one batch. A call made while another batch is in progress
// returns immediately with Skipped set.
func (r *Runner) Run(ctx context.Context) Summary {
	started := r.checker.now().UTC()
	if !r.running.CompareAndSwap(false, true) {
		slog.Info("price check already running, skipping")
		r.checker.observer.ObserveBatch(metrics.BatchSkipped, 0)
		return Summary{Skipped: true, Results: []Result{}, StartedAt: started}
	}
	defer r.running.Store(false)

	sum := r.run(ctx)
	sum.StartedAt = started
	sum.Duration = time.Since(started)
	status := metrics.BatchCompleted
	if !sum.Success {
		status = metrics.BatchFailed
	}
	r.checker.observer.ObserveBatch(status, sum.Duration)
	return sum
}

func (r *Runner) run(ctx context.Context) Summary {
	sum := Summary{Results: []Result{}}

	flights, err := r.checker.store.ActiveSubscriptions(ctx)
	if err != nil {
		slog.Error("failed to list active subscriptions", "error", err)
		sentry.CaptureException(err)
		sum.Error = "failed to list active subscriptions"
		return sum
	}
	slog.Info("price check started", "subscriptions", len(flights))

	for i, flight := range flights {
		if i > 0 && r.delay > 0 {
			select {
			case <-ctx.Done():
				sum.Error = ctx.Err().Error()
				return sum
			case <-time.After(r.delay):
			}
		}

		res, err := r.checker.CheckSubscription(ctx, flight)
		if err != nil {
			slog.Error("price check failed", "error", err, "flight_id", flight.ID, "route", flight.Route())
			sentry.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("flight_id", flight.ID.String())
				scope.SetTag("route", flight.Route())
				sentry.CaptureException(err)
			})
			res = Result{TrackedFlightID: flight.ID, Route: flight.Route(), Error: err.Error()}
		}
		sum.Results = append(sum.Results, res)
		sum.Checked++
		if res.NotificationSent {
			sum.Notifications++
		}
	}

	sum.Success = true
	slog.Info("price check complete", "checked", sum.Checked, "notifications", sum.Notifications)
	return sum
}
