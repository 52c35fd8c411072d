package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// CronSecret guards the scheduled price-check trigger. With CRON_SECRET
// unset every request is rejected.
func CronSecret(cfg *config.Config) fiber.Handler {
	secret := []byte(cfg.CronSecret)

	return func(c *fiber.Ctx) error {
		got := []byte(c.Get("X-Cron-Secret"))
		if len(secret) == 0 || subtle.ConstantTimeCompare(got, secret) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}
