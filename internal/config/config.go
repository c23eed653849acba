package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "StakeHub Gateway"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultBackendTimeout  = 15 * time.Second
	defaultSessionTTL      = 12 * time.Hour
	defaultRememberTTL     = 30 * 24 * time.Hour
	defaultSessionWait     = 5 * time.Second
	defaultSessionPoll     = 100 * time.Millisecond
	defaultMFAChallengeTTL = 5 * time.Minute
	defaultLoginPerMinute  = 5
	defaultRedirect        = "/dashboard"
)

// Config captures gateway runtime configuration loaded from environment variables.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	BackendURL      string
	BackendTimeout  time.Duration
	RedisURL        string
	DatabaseURL     string // optional; enables the Postgres audit log
	SessionTTL      time.Duration
	RememberTTL     time.Duration
	SessionWait     time.Duration
	SessionPoll     time.Duration
	MFAChallengeTTL time.Duration
	LoginPerMinute  int
	DefaultRedirect string
	ShutdownPeriod  time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		BackendURL:      strings.TrimRight(os.Getenv("BACKEND_URL"), "/"),
		BackendTimeout:  defaultBackendTimeout,
		RedisURL:        os.Getenv("REDIS_URL"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SessionTTL:      defaultSessionTTL,
		RememberTTL:     defaultRememberTTL,
		SessionWait:     defaultSessionWait,
		SessionPoll:     defaultSessionPoll,
		MFAChallengeTTL: defaultMFAChallengeTTL,
		LoginPerMinute:  defaultLoginPerMinute,
		DefaultRedirect: getEnv("DEFAULT_REDIRECT", defaultRedirect),
		ShutdownPeriod:  defaultShutdownDelay,
	}

	durations := []struct {
		envVar string
		dst    *time.Duration
	}{
		{"BACKEND_TIMEOUT", &cfg.BackendTimeout},
		{"SESSION_TTL", &cfg.SessionTTL},
		{"SESSION_REMEMBER_TTL", &cfg.RememberTTL},
		{"SESSION_WAIT_TIMEOUT", &cfg.SessionWait},
		{"SESSION_POLL_INTERVAL", &cfg.SessionPoll},
		{"MFA_CHALLENGE_TTL", &cfg.MFAChallengeTTL},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("LOGIN_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_PER_MINUTE: %w", err)
		}
		cfg.LoginPerMinute = n
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be set")
	}

	if cfg.RedisURL == "" && !cfg.IsDev() {
		return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
	}

	if cfg.SessionPoll <= 0 || cfg.SessionWait < cfg.SessionPoll {
		return Config{}, fmt.Errorf("SESSION_WAIT_TIMEOUT must be at least SESSION_POLL_INTERVAL")
	}

	return cfg, nil
}

// IsDev reports whether the gateway runs in a development-like environment.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
