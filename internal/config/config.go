// Package config loads the service configuration from the environment into
// a typed struct. Runtime-mode conditionals elsewhere in the codebase must
// receive the mode from here instead of reading the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RuntimeMode selects environment-conditional behavior. The only such
// conditional in the authorization path is the expert-id header fallback,
// which production never honors.
type RuntimeMode string

const (
	ModeProduction  RuntimeMode = "production"
	ModeDevelopment RuntimeMode = "development"
	ModeTest        RuntimeMode = "test"
)

// IsProduction reports whether the service runs with production semantics.
func (m RuntimeMode) IsProduction() bool { return m == ModeProduction }

type Config struct {
	Mode        RuntimeMode
	HTTP        HTTPConfig
	DatabaseURL string
	Telegram    TelegramConfig
	Auth        AuthConfig
	Audit       AuditConfig
	RateLimit   RateLimitConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type TelegramConfig struct {
	BotToken       string
	InitDataMaxAge time.Duration
}

type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

type AuditConfig struct {
	// Strict makes audit storage failures fail the request instead of
	// being logged and swallowed. Enabled in tests to pin the deny-audit
	// invariant.
	Strict bool
}

type RateLimitConfig struct {
	Burst     int
	PerSecond int
}

func Load() (Config, error) {
	mode, err := parseMode(getEnv("COURSEGRAM_MODE", string(ModeDevelopment)))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Mode: mode,
		HTTP: HTTPConfig{
			Addr:            getEnv("COURSEGRAM_HTTP_ADDR", ":8080"),
			ReadTimeout:     time.Duration(getEnvInt("COURSEGRAM_HTTP_READ_TIMEOUT_SEC", 15)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("COURSEGRAM_HTTP_WRITE_TIMEOUT_SEC", 15)) * time.Second,
			IdleTimeout:     time.Duration(getEnvInt("COURSEGRAM_HTTP_IDLE_TIMEOUT_SEC", 60)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("COURSEGRAM_HTTP_SHUTDOWN_TIMEOUT_SEC", 10)) * time.Second,
		},
		DatabaseURL: getEnv("COURSEGRAM_PG_DSN", ""),
		Telegram: TelegramConfig{
			BotToken:       getEnv("COURSEGRAM_BOT_TOKEN", ""),
			InitDataMaxAge: time.Duration(getEnvInt("COURSEGRAM_INITDATA_MAX_AGE_SEC", 86400)) * time.Second,
		},
		Auth: AuthConfig{
			TokenSecret: getEnv("COURSEGRAM_AUTH_SECRET", ""),
			TokenTTL:    time.Duration(getEnvInt("COURSEGRAM_TOKEN_TTL_MIN", 30)) * time.Minute,
		},
		Audit: AuditConfig{
			Strict: getEnvBool("COURSEGRAM_AUDIT_STRICT", false),
		},
		RateLimit: RateLimitConfig{
			Burst:     getEnvInt("COURSEGRAM_RATE_BURST", 20),
			PerSecond: getEnvInt("COURSEGRAM_RATE_PER_SEC", 10),
		},
	}

	if cfg.HTTP.Addr == "" {
		return Config{}, fmt.Errorf("COURSEGRAM_HTTP_ADDR must not be empty")
	}
	if cfg.Telegram.BotToken == "" {
		return Config{}, fmt.Errorf("COURSEGRAM_BOT_TOKEN must not be empty")
	}
	if cfg.Telegram.InitDataMaxAge <= 0 {
		return Config{}, fmt.Errorf("COURSEGRAM_INITDATA_MAX_AGE_SEC must be > 0")
	}
	if cfg.Auth.TokenSecret == "" {
		return Config{}, fmt.Errorf("COURSEGRAM_AUTH_SECRET must not be empty")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("COURSEGRAM_TOKEN_TTL_MIN must be > 0")
	}
	if cfg.Mode.IsProduction() && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("COURSEGRAM_PG_DSN must not be empty in production")
	}
	if cfg.RateLimit.Burst <= 0 || cfg.RateLimit.PerSecond <= 0 {
		return Config{}, fmt.Errorf("rate limit burst and per-second must be > 0")
	}

	return cfg, nil
}

func parseMode(raw string) (RuntimeMode, error) {
	switch RuntimeMode(strings.TrimSpace(strings.ToLower(raw))) {
	case ModeProduction:
		return ModeProduction, nil
	case ModeDevelopment:
		return ModeDevelopment, nil
	case ModeTest:
		return ModeTest, nil
	default:
		return "", fmt.Errorf("unknown COURSEGRAM_MODE %q", raw)
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}
