package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// BatchRunner is satisfied by *checker.Runner.
type BatchRunner interface {
	Run(ctx context.Context) checker.Summary
}

type PriceCheckHandler struct {
	runner BatchRunner
}

func NewPriceCheckHandler(runner BatchRunner) *PriceCheckHandler {
	return &PriceCheckHandler{runner: runner}
}

// Run executes one batch over every active subscription. It serves both the
// cron trigger and the admin endpoint. A skipped run still answers 200.
func (h *PriceCheckHandler) Run(c *fiber.Ctx) error {
	sum := h.runner.Run(c.UserContext())

	resp := dto.PriceCheckResponse{
		Message:       "Price check completed",
		Success:       sum.Success,
		Skipped:       sum.Skipped,
		Checked:       sum.Checked,
		Notifications: sum.Notifications,
		Results:       sum.Results,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case sum.Skipped:
		resp.Message = "Price check already running"
	case !sum.Success:
		resp.Message = "Price check failed: " + sum.Error
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}
	return c.JSON(resp)
}

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) PriceUpdates(c *fiber.Ctx) error {
	feed, err := h.adminService.RecentPriceUpdates()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"price_updates": feed, "total": len(feed)})
}
