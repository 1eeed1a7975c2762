package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BASE_URL", "")
	t.Setenv("VITE_BASE_URL", "")
	t.Setenv("API_PATH", "")
	t.Setenv("VITE_API_PATH", "")
	t.Setenv("REQUEST_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.CatalogTTL)
	assert.Empty(t, cfg.RedisAddr)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_URL is required")
	assert.Contains(t, err.Error(), "API_PATH is required")
}

func TestLoad_ViteFallback(t *testing.T) {
	t.Setenv("BASE_URL", "")
	t.Setenv("API_PATH", "")
	t.Setenv("VITE_BASE_URL", "https://shop.example.com")
	t.Setenv("VITE_API_PATH", "tenant")

	cfg := Load()

	assert.Equal(t, "https://shop.example.com", cfg.BaseURL)
	assert.Equal(t, "tenant", cfg.APIPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.example.com")
	t.Setenv("VITE_BASE_URL", "https://ignored.example.com")
	t.Setenv("API_PATH", "shop")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("BREAKER_ENABLED", "false")
	t.Setenv("BREAKER_MAX_FAILURES", "not-a-number")
	t.Setenv("CATALOG_TTL", "1m")

	cfg := Load()

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.BreakerEnabled)
	assert.Equal(t, uint32(5), cfg.BreakerMaxFailures)
	assert.Equal(t, time.Minute, cfg.CatalogTTL)
}
