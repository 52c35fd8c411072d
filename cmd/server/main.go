package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/provider"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/scheduler"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(logging.ParseLevel(cfg.LogLevel))

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, pgLogHandler)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	m := metrics.New(prometheus.DefaultRegisterer, cfg.AppEnv)

	// Price source
	manager := provider.NewDefaultManager(cfg.ProviderTimeout, uint64(time.Now().UnixNano()))
	manager.SetObserver(m)

	// Email is optional; without Mailjet keys only in-app notifications are created
	var sender notify.Sender
	if cfg.MailjetPublicKey != "" && cfg.MailjetPrivateKey != "" {
		sender = notify.NewMailjetSender(cfg.MailjetPublicKey, cfg.MailjetPrivateKey, cfg.MailFromEmail, cfg.MailFromName)
	} else {
		slog.Warn("mailjet not configured, email notifications disabled")
	}

	params := pricing.Params{
		DropThresholdPercent: cfg.DropThresholdPercent,
		FallbackMultiplier:   cfg.FallbackMultiplier,
	}
	priceChecker := checker.New(manager, checker.NewGormStore(database.DB), notify.NewDispatcher(sender), checker.Options{
		Params:       params,
		NotifyPolicy: cfg.NotifyPolicy,
		Observer:     m,
	})
	runner := checker.NewRunner(priceChecker, cfg.CheckDelay)

	sched, err := scheduler.New(cfg.CheckSchedule, runner)
	if err != nil {
		slog.Error("scheduler setup failed", "error", err)
		os.Exit(1)
	}

	// Search cache (optional)
	var searchCache cache.Cache
	var cachePinger handlers.Pinger
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, search cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			searchCache = rc
			cachePinger = rc
			defer rc.Close()
		}
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	trackingService := services.NewTrackingService(database.DB, priceChecker, params)
	notificationService := services.NewNotificationService(database.DB)
	preferencesService := services.NewPreferencesService(database.DB)
	searchService := services.NewSearchService(manager, searchCache, cfg.SearchCacheTTL)
	adminService := services.NewAdminService(database.DB)

	// Handlers
	h := routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		Health:        handlers.NewHealthHandler(runner, sched, cachePinger),
		Search:        handlers.NewSearchHandler(searchService),
		Tracking:      handlers.NewTrackingHandler(trackingService),
		Notifications: handlers.NewNotificationHandler(notificationService),
		Preferences:   handlers.NewPreferencesHandler(preferencesService),
		PriceCheck:    handlers.NewPriceCheckHandler(runner),
		Admin:         handlers.NewAdminHandler(adminService),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	routes.Setup(app, cfg, database.DB, h)

	sched.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	sched.Stop(stopCtx)
	cancel()

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error(),
			"request_id", c.Locals("requestid"))
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
