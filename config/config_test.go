package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/catalog")

	cfg := LoadConfig()

	assert.Equal(t, "postgres://localhost:5432/catalog", cfg.DatabaseURL)
	assert.Equal(t, "localhost:11211", cfg.MemcacheAddr)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, time.Second, cfg.FetchBaseDelay)
	assert.Equal(t, 2*time.Second, cfg.FetchJitter)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 3, cfg.EmptyPageLimit)
	assert.Equal(t, 5, cfg.NoNewPageLimit)
	assert.False(t, cfg.ProxyEnabled)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/catalog")
	t.Setenv("FETCH_BASE_DELAY_MS", "500")
	t.Setenv("STOP_EMPTY_PAGE_LIMIT", "10")
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("PROXY_URL", "http://proxy:3128")

	cfg := LoadConfig()

	assert.Equal(t, 500*time.Millisecond, cfg.FetchBaseDelay)
	assert.Equal(t, 10, cfg.EmptyPageLimit)
	assert.True(t, cfg.ProxyEnabled)
	require.NoError(t, cfg.Validate())
}

func TestValidateRequiresDatabaseURL(t *testing.T) {
	cfg := Config{MaxAttempts: 3, EmptyPageLimit: 3, NoNewPageLimit: 5}
	assert.Error(t, cfg.Validate())
}

func TestValidateProxyConsistency(t *testing.T) {
	cfg := Config{
		DatabaseURL:      "postgres://db/catalog",
		MaxAttempts:      3,
		EmptyPageLimit:   3,
		NoNewPageLimit:   5,
		RedisStreamCount: 1,
		ProxyEnabled:     true,
	}
	assert.Error(t, cfg.Validate(), "proxy enabled without URL must fail validation")

	cfg.ProxyURL = "http://proxy:3128"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsZeroStreamCount(t *testing.T) {
	cfg := Config{
		DatabaseURL:    "postgres://db/catalog",
		MaxAttempts:    3,
		EmptyPageLimit: 3,
		NoNewPageLimit: 5,
	}
	// sharded stream publishing picks a shard in [0, count); zero would panic
	assert.Error(t, cfg.Validate())

	cfg.RedisStreamCount = 1
	assert.NoError(t, cfg.Validate())
}
