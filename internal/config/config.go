// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the site server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DirectoryBaseURL is the base URL of the external organization directory.
	// Required unless DEV_BACKEND is enabled.
	DirectoryBaseURL string `mapstructure:"DIRECTORY_BASE_URL"`
	// AuthBaseURL is the base URL of the external auth service. Required
	// unless DEV_BACKEND is enabled.
	AuthBaseURL string `mapstructure:"AUTH_BASE_URL"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// DevBackend serves the directory and auth endpoints in-process for local
	// development. Must not be true when Env is production (Load fails).
	DevBackend bool `mapstructure:"DEV_BACKEND"`
	// UpstreamTimeout is the per-request timeout for directory/auth calls (e.g. "5s").
	UpstreamTimeout string `mapstructure:"UPSTREAM_TIMEOUT"`
	// TenantCacheTTL bounds staleness of cached tenant configuration (e.g. "60s").
	TenantCacheTTL string `mapstructure:"TENANT_CACHE_TTL"`
	// TenantCacheMax is the maximum number of cached tenant configurations.
	TenantCacheMax int64 `mapstructure:"TENANT_CACHE_MAX"`
	// SecureCookies sets the Secure attribute on session cookies. Leave false
	// only for plain-HTTP local development.
	SecureCookies bool `mapstructure:"SECURE_COOKIES"`
	// SessionCookieTTL is the session cookie lifetime (e.g. "720h").
	SessionCookieTTL string `mapstructure:"SESSION_COOKIE_TTL"`
	// OTLPEndpoint is the OTLP collector endpoint; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DIRECTORY_BASE_URL", "")
	v.SetDefault("AUTH_BASE_URL", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("DEV_BACKEND", false)
	v.SetDefault("UPSTREAM_TIMEOUT", "5s")
	v.SetDefault("TENANT_CACHE_TTL", "60s")
	v.SetDefault("TENANT_CACHE_MAX", 1024)
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("SESSION_COOKIE_TTL", "720h") // 30d
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.DevBackend && cfg.Env == "production" {
		return nil, errors.New("config: DEV_BACKEND must not be true when APP_ENV=production")
	}

	if !cfg.DevBackend {
		if cfg.DirectoryBaseURL == "" {
			return nil, errors.New("config: DIRECTORY_BASE_URL must be set unless DEV_BACKEND=true")
		}
		if cfg.AuthBaseURL == "" {
			return nil, errors.New("config: AUTH_BASE_URL must be set unless DEV_BACKEND=true")
		}
	}

	if cfg.TenantCacheMax <= 0 {
		cfg.TenantCacheMax = 1024
	}

	return &cfg, nil
}

// UpstreamTimeoutDuration parses UpstreamTimeout as a time.Duration. Returns 5s if unset or invalid.
func (c *Config) UpstreamTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.UpstreamTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// TenantCacheTTLDuration parses TenantCacheTTL as a time.Duration. Returns 60s if unset or invalid.
func (c *Config) TenantCacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TenantCacheTTL)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// SessionCookieTTLDuration parses SessionCookieTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) SessionCookieTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionCookieTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}
