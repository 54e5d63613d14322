package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "2025-07", cfg.ShopifyAPIVersion)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, time.Minute, cfg.ProvisionLockTTL)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Empty(t, cfg.RedisURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"PORT":               "9000",
		"APP_URL":            "https://genie.example.com/",
		"FRONTEND_URL":       "https://admin.example.com/",
		"REDIS_URL":          "redis://cache:6379/0",
		"LLM_TIMEOUT":        "5s",
		"LOG_LEVEL":          "DEBUG",
		"SHOPIFY_API_KEY":    "k",
		"SHOPIFY_API_SECRET": "s",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://genie.example.com", cfg.AppURL)
	assert.Equal(t, "https://admin.example.com", cfg.FrontendURL)
	assert.Equal(t, "redis://cache:6379/0", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_InvalidDuration(t *testing.T) {
	_, err := FromEnv(envOf(map[string]string{"HTTP_TIMEOUT": "soon"}))
	assert.Error(t, err)

	_, err = FromEnv(envOf(map[string]string{"PROVISION_LOCK_TTL": "-1s"}))
	assert.Error(t, err)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{"SHOPIFY_API_KEY": "k"}))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHOPIFY_API_SECRET")
	assert.NotContains(t, err.Error(), "SHOPIFY_API_KEY,")
}
