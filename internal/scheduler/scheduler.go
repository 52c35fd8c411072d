// Package scheduler triggers the batch price check on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/robfig/cron/v3"
)

// BatchRunner is satisfied by *checker.Runner.
type BatchRunner interface {
	Run(ctx context.Context) checker.Summary
}

type Scheduler struct {
	cron    *cron.Cron
	entry   cron.EntryID
	runner  BatchRunner
	ctx     context.Context
	cancel  context.CancelFunc
	enabled bool
}

// New parses spec (standard five-field cron or a descriptor such as
// "@every 1h"). An empty spec or "off" yields a disabled scheduler whose
// Start and Stop are no-ops.
func New(spec string, runner BatchRunner) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{runner: runner, ctx: ctx, cancel: cancel}

	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "off") {
		return s, nil
	}

	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("invalid check schedule %q: %w", spec, err)
	}
	s.entry = id
	s.enabled = true
	return s, nil
}

func (s *Scheduler) Enabled() bool { return s.enabled }

// Next returns the next scheduled run, or the zero time when disabled or
// not yet started.
func (s *Scheduler) Next() time.Time {
	if !s.enabled {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) Start() {
	if !s.enabled {
		slog.Info("price check schedule disabled")
		return
	}
	s.cron.Start()
	slog.Info("price check schedule started", "next", s.Next())
}

// Stop cancels an in-flight batch and waits for it to return or for ctx to
// expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	if !s.enabled {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) tick() {
	sum := s.runner.Run(s.ctx)
	if sum.Skipped {
		slog.Info("scheduled price check skipped, previous run still active")
		return
	}
	slog.Info("scheduled price check finished",
		"success", sum.Success,
		"checked", sum.Checked,
		"notifications", sum.Notifications,
		"duration", sum.Duration.String(),
	)
}
