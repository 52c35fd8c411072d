package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Notification repeat policies.
const (
	NotifyEveryCheck = "every_check"
	NotifyOnChange   = "on_change"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string
	CronSecret   string

	// Server
	Port        string
	CORSOrigins string
	SentryDSN   string
	AppEnv      string
	LogLevel    string

	// Email (Mailjet)
	MailjetPublicKey  string
	MailjetPrivateKey string
	MailFromEmail     string
	MailFromName      string

	// Search cache (Redis, optional)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SearchCacheTTL time.Duration

	// Price checker
	CheckSchedule        string
	CheckDelay           time.Duration
	ProviderTimeout      time.Duration
	DropThresholdPercent decimal.Decimal
	FallbackMultiplier   decimal.Decimal
	NotifyPolicy         string
}

func Load() *Config {
	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "peregrinus"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),
		CronSecret:   getEnv("CRON_SECRET", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MailjetPublicKey:  getEnv("MAILJET_PUBLIC_KEY", ""),
		MailjetPrivateKey: getEnv("MAILJET_PRIVATE_KEY", ""),
		MailFromEmail:     getEnv("MAIL_FROM_EMAIL", "alerts@peregrinus.app"),
		MailFromName:      getEnv("MAIL_FROM_NAME", "Peregrinus Flight Alerts"),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        parseInt(getEnv("REDIS_DB", "0"), 0),
		SearchCacheTTL: parseDuration(getEnv("SEARCH_CACHE_TTL", "5m"), 5*time.Minute),

		CheckSchedule:        getEnv("CHECK_SCHEDULE", "@every 1h"),
		CheckDelay:           parseDuration(getEnv("CHECK_DELAY", "1s"), time.Second),
		ProviderTimeout:      parseDuration(getEnv("PROVIDER_TIMEOUT", "10s"), 10*time.Second),
		DropThresholdPercent: parseDecimal(getEnv("PRICE_DROP_THRESHOLD_PERCENT", "5"), decimal.NewFromInt(5)),
		FallbackMultiplier:   parseDecimal(getEnv("PRICE_FALLBACK_MULTIPLIER", "1.2"), decimal.RequireFromString("1.2")),
		NotifyPolicy:         getEnv("NOTIFY_POLICY", NotifyEveryCheck),
	}
}

// Validate checks the price checker settings. The fallback multiplier must
// keep the bootstrap price above target.
func (c *Config) Validate() error {
	if !c.FallbackMultiplier.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("PRICE_FALLBACK_MULTIPLIER must be greater than 1")
	}
	if c.DropThresholdPercent.IsNegative() {
		return errors.New("PRICE_DROP_THRESHOLD_PERCENT must not be negative")
	}
	if c.NotifyPolicy != NotifyEveryCheck && c.NotifyPolicy != NotifyOnChange {
		return errors.New("NOTIFY_POLICY must be " + NotifyEveryCheck + " or " + NotifyOnChange)
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseDecimal(s string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	return d
}
