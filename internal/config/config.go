package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	PlatformJWTSecret    string
	PlatformJWTIssuer    string
	PlatformJWTAudience  string
	PlatformJWTClockSkew time.Duration

	RequestBodyLimitBytes  int64
	RateLimitWindow        time.Duration
	RateLimitMax           int
	ShutdownTimeout        time.Duration
	SecurityHeadersEnabled bool
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:                 valueOrDefault(k.String("APP_ENV"), "development"),
		Port:                   valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:               strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins:     splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		PlatformJWTSecret:      strings.TrimSpace(k.String("PLATFORM_JWT_SECRET")),
		PlatformJWTIssuer:      strings.TrimSpace(k.String("PLATFORM_JWT_ISSUER")),
		PlatformJWTAudience:    strings.TrimSpace(k.String("PLATFORM_JWT_AUDIENCE")),
		PlatformJWTClockSkew:   parseDuration(k.String("PLATFORM_JWT_CLOCK_SKEW"), "30s"),
		RequestBodyLimitBytes:  parseInt64(k.String("REQUEST_BODY_LIMIT_BYTES"), 1<<20),
		RateLimitWindow:        parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:           int(parseInt64(k.String("RATE_LIMIT_MAX"), 600)),
		ShutdownTimeout:        parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
		SecurityHeadersEnabled: parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
	}

	if cfg.IsProduction() && cfg.PlatformJWTSecret == "" {
		return nil, errors.New("PLATFORM_JWT_SECRET is required in production")
	}
	if cfg.RequestBodyLimitBytes <= 0 {
		return nil, errors.New("REQUEST_BODY_LIMIT_BYTES must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// CallerAuthEnabled reports whether platform callers must present a signed token.
func (c *Config) CallerAuthEnabled() bool {
	return c.PlatformJWTSecret != ""
}

// RateLimitEnabled reports whether a Redis-backed limiter can be built.
func (c *Config) RateLimitEnabled() bool {
	return c.RedisURL != "" && c.RateLimitMax > 0 && c.RateLimitWindow > 0
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
