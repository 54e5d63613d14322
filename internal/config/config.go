package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the service configuration read from the environment
type Config struct {
	Port        string
	AppURL      string
	FrontendURL string

	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyAPIVersion string
	ShopifyScopes     string

	MongoURI      string
	MongoDatabase string
	RedisURL      string

	GeminiAPIKey string
	GeminiModel  string

	HTTPTimeout      time.Duration
	LLMTimeout       time.Duration
	ProvisionLockTTL time.Duration

	LogLevel zerolog.Level
}

// Load reads .env when present and then the process environment
func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: .env file not found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:              get("PORT", "8080"),
		AppURL:            strings.TrimRight(get("APP_URL", "http://localhost:8080"), "/"),
		FrontendURL:       strings.TrimRight(get("FRONTEND_URL", "http://localhost:3000"), "/"),
		ShopifyAPIKey:     get("SHOPIFY_API_KEY", ""),
		ShopifyAPISecret:  get("SHOPIFY_API_SECRET", ""),
		ShopifyAPIVersion: get("SHOPIFY_API_VERSION", "2025-07"),
		ShopifyScopes:     get("SHOPIFY_SCOPES", "read_products,write_script_tags,read_themes,write_themes,unauthenticated_read_checkouts"),
		MongoURI:          get("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:     get("MONGODB_DATABASE", "genie"),
		RedisURL:          get("REDIS_URL", ""),
		GeminiAPIKey:      get("GEMINI_API_KEY", ""),
		GeminiModel:       get("GEMINI_MODEL", "gemini-2.0-flash"),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(get("HTTP_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if cfg.LLMTimeout, err = duration(get("LLM_TIMEOUT", "20s")); err != nil {
		return nil, fmt.Errorf("invalid LLM_TIMEOUT: %w", err)
	}
	if cfg.ProvisionLockTTL, err = duration(get("PROVISION_LOCK_TTL", "60s")); err != nil {
		return nil, fmt.Errorf("invalid PROVISION_LOCK_TTL: %w", err)
	}
	if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// Validate reports missing settings the service cannot start without
func (c *Config) Validate() error {
	var missing []string
	if c.ShopifyAPIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.ShopifyAPISecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func duration(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", v)
	}
	return d, nil
}
