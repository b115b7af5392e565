package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "LOG_LEVEL", "RECEIPT_CACHE_TTL", "APPSTORE_SANDBOX",
		"VALIDATOR_TIMEOUT", "API_KEYS", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "debug", cfg.Mode)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 5*time.Minute, cfg.ReceiptCacheTTL)
	require.Equal(t, 30*time.Second, cfg.ValidatorTimeout)
	require.False(t, cfg.UseSandbox)
	require.Empty(t, cfg.APIKeys)
	require.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APPSTORE_SANDBOX", "true")
	t.Setenv("APPSTORE_EXCLUDE_OLD_TRANSACTIONS", "1")
	t.Setenv("RECEIPT_CACHE_TTL", "90s")
	t.Setenv("VALIDATOR_TIMEOUT", "12")
	t.Setenv("API_KEYS", " key-a, ,key-b ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")

	cfg := Load()
	require.Equal(t, "9000", cfg.Port)
	require.True(t, cfg.UseSandbox)
	require.True(t, cfg.ExcludeOldTransactions)
	require.Equal(t, 90*time.Second, cfg.ReceiptCacheTTL)
	require.Equal(t, 12*time.Second, cfg.ValidatorTimeout)
	require.Equal(t, []string{"key-a", "key-b"}, cfg.APIKeys)
	require.Equal(t, []string{"https://app.example.com"}, cfg.CORSAllowedOrigins)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")
	t.Setenv("SOME_INT", "x")

	require.True(t, getEnvBool("SOME_BOOL", true))
	require.Equal(t, time.Minute, getEnvDuration("SOME_DURATION", time.Minute))
	require.Equal(t, 7, getEnvInt("SOME_INT", 7))
}
