package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL            string
	SocketURL         string
	DBFile            string
	AuthScheme        string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	TypingTimeout     time.Duration
	TypingTTL         time.Duration
	PendingTTL        time.Duration
	MaxMessages       int
	LogLevel          slog.Level
}

// Load reads the configuration from the environment. A .env file in the working
// directory is applied first and never overrides variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		APIURL:     getEnv("PARLEY_API_URL", "http://localhost:3000/api/"),
		SocketURL:  getEnv("PARLEY_SOCKET_URL", "http://localhost:3001"),
		DBFile:     getEnv("PARLEY_DB", "parley.db"),
		AuthScheme: os.Getenv("PARLEY_AUTH_SCHEME"),
	}

	var err error
	if cfg.ReconnectAttempts, err = getEnvAsInt("RECONNECT_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.MaxMessages, err = getEnvAsInt("MAX_MESSAGES", 200); err != nil {
		return nil, err
	}
	if cfg.ReconnectDelay, err = getEnvAsDuration("RECONNECT_DELAY", time.Second); err != nil {
		return nil, err
	}
	if cfg.TypingTimeout, err = getEnvAsDuration("TYPING_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.TypingTTL, err = getEnvAsDuration("TYPING_TTL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PendingTTL, err = getEnvAsDuration("PENDING_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	for name, raw := range map[string]string{"PARLEY_API_URL": c.APIURL, "PARLEY_SOCKET_URL": c.SocketURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}

	if !strings.HasSuffix(c.APIURL, "/") {
		c.APIURL += "/"
	}

	if c.DBFile == "" {
		return fmt.Errorf("PARLEY_DB is required")
	}

	if c.ReconnectAttempts < 0 {
		return fmt.Errorf("RECONNECT_ATTEMPTS must not be negative")
	}

	if c.ReconnectDelay <= 0 || c.TypingTimeout <= 0 || c.TypingTTL <= 0 || c.PendingTTL <= 0 {
		return fmt.Errorf("RECONNECT_DELAY, TYPING_TIMEOUT, TYPING_TTL and PENDING_TTL must be greater than 0")
	}

	if c.MaxMessages <= 0 {
		return fmt.Errorf("MAX_MESSAGES must be greater than 0")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
