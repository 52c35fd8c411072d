package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// BatchStatus reports on the price check machinery.
type BatchStatus interface {
	Running() bool
}

type ScheduleStatus interface {
	Enabled() bool
	Next() time.Time
}

// Pinger is the search cache's liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	runner    BatchStatus
	scheduler ScheduleStatus
	cache     Pinger
}

// NewHealthHandler builds the health check. cache may be nil when no search
// cache is configured.
func NewHealthHandler(runner BatchStatus, scheduler ScheduleStatus, cache Pinger) *HealthHandler {
	return &HealthHandler{runner: runner, scheduler: scheduler, cache: cache}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "unhealthy: " + err.Error()
		}
	}

	schedule := "disabled"
	if h.scheduler.Enabled() {
		schedule = "next run " + h.scheduler.Next().UTC().Format(time.RFC3339)
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Cache:     cacheStatus,
		Scheduler: schedule,
		Checking:  h.runner.Running(),
	})
}
