package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Health        *handlers.HealthHandler
	Search        *handlers.SearchHandler
	Tracking      *handlers.TrackingHandler
	Notifications *handlers.NotificationHandler
	Preferences   *handlers.PreferencesHandler
	PriceCheck    *handlers.PriceCheckHandler
	Admin         *handlers.AdminHandler
}

func Setup(app *fiber.App, cfg *config.Config, db *gorm.DB, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Credential endpoints: stricter 10 req/min per IP, shared across the three
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/auth/register", authLimit, h.Auth.Register)
	api.Post("/auth/login", authLimit, h.Auth.Login)
	api.Post("/auth/refresh", authLimit, h.Auth.Refresh)

	// JWT is applied per route so it never guards the public ones above
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, h.Auth.Logout)
	api.Get("/auth/me", jwt, h.Auth.Me)
	api.Delete("/auth/account", jwt, h.Auth.DeleteAccount)

	api.Get("/flights/search", h.Search.Search)

	track := api.Group("/flights/track", jwt)
	track.Post("/", h.Tracking.Create)
	track.Get("/", h.Tracking.List)
	track.Get("/:id", h.Tracking.Get)
	track.Delete("/:id", h.Tracking.Stop)
	track.Post("/:id/check", h.Tracking.Check)

	notifications := api.Group("/notifications", jwt)
	notifications.Get("/", h.Notifications.List)
	notifications.Put("/", h.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", h.Notifications.MarkRead)
	notifications.Delete("/:id", h.Notifications.Delete)

	api.Get("/user/preferences", jwt, h.Preferences.Get)
	api.Put("/user/preferences", jwt, h.Preferences.Update)

	api.Get("/cron/check-prices", middleware.CronSecret(cfg), h.PriceCheck.Run)

	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Post("/check-prices", h.PriceCheck.Run)
	admin.Get("/price-updates", h.Admin.PriceUpdates)
}
