package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.True(t, decimal.NewFromInt(5).Equal(cfg.DropThresholdPercent))
	assert.True(t, decimal.RequireFromString("1.2").Equal(cfg.FallbackMultiplier))
	assert.Equal(t, NotifyEveryCheck, cfg.NotifyPolicy)
	assert.Equal(t, time.Second, cfg.CheckDelay)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRICE_DROP_THRESHOLD_PERCENT", "7.5")
	t.Setenv("PRICE_FALLBACK_MULTIPLIER", "1.35")
	t.Setenv("NOTIFY_POLICY", NotifyOnChange)
	t.Setenv("CHECK_DELAY", "250ms")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, "7.5", cfg.DropThresholdPercent.String())
	assert.Equal(t, "1.35", cfg.FallbackMultiplier.String())
	assert.Equal(t, NotifyOnChange, cfg.NotifyPolicy)
	assert.Equal(t, 250*time.Millisecond, cfg.CheckDelay)
	assert.Equal(t, 3, cfg.RedisDB)
	require.NoError(t, cfg.Validate())
}

func TestLoadFallsBackOnGarbage(t *testing.T) {
	t.Setenv("PRICE_FALLBACK_MULTIPLIER", "lots")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, "1.2", cfg.FallbackMultiplier.String())
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.FallbackMultiplier = decimal.NewFromInt(1)
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.DropThresholdPercent = decimal.NewFromInt(-1)
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.NotifyPolicy = "sometimes"
	assert.Error(t, cfg.Validate())
}
