// Package config loads and validates environment variables at startup.
// Fail-fast: if a variable is set to an invalid value, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all runtime configuration for the digest service.
type Config struct {
	Port        string
	GRPCPort    string // optional: gRPC health service is disabled when empty
	DatabaseURL string // optional: digests are kept in memory when empty
	RedisURL    string // optional: no seen-cache or events when empty
	SearchFile  string
	OutputDir   string
	BaseURL     string // public URL the report links are built from
	LogLevel    string

	ScrapeIntervalHours int    // how often the cron job fires
	ScrapeCron          string // overrides ScrapeIntervalHours when set

	TelegramToken  string
	TelegramChatID int64

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string // e.g. "in", "gb", "us"

	RequestsPerMinute int
	RequestTimeout    time.Duration
	MaxRetries        int
	SeenTTL           time.Duration
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	interval, err := positiveInt("SCRAPE_INTERVAL_HOURS", 24)
	if err != nil {
		return nil, err
	}

	spec := strings.TrimSpace(os.Getenv("SCRAPE_CRON"))
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("SCRAPE_CRON %q is not a valid cron spec: %w", spec, err)
		}
	}

	var chatID int64
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if s := os.Getenv("TELEGRAM_CHAT_ID"); s != "" {
		chatID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer, got %q", s)
		}
	}
	if token != "" && chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	rpm, err := positiveInt("REQUESTS_PER_MINUTE", 5)
	if err != nil {
		return nil, err
	}
	timeout, err := positiveInt("REQUEST_TIMEOUT_SECONDS", 15)
	if err != nil {
		return nil, err
	}
	seenTTL, err := positiveInt("SEEN_TTL_HOURS", 30*24)
	if err != nil {
		return nil, err
	}

	retries := 2
	if s := os.Getenv("MAX_RETRIES"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("MAX_RETRIES must be a non-negative integer, got %q", s)
		}
		retries = v
	}

	return &Config{
		Port:                envOr("DIGEST_PORT", "8081"),
		GRPCPort:            os.Getenv("DIGEST_GRPC_PORT"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		SearchFile:          envOr("SEARCH_CONFIG", "configs/search.yaml"),
		OutputDir:           envOr("OUTPUT_DIR", "output"),
		BaseURL:             strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		ScrapeIntervalHours: interval,
		ScrapeCron:          spec,
		TelegramToken:       token,
		TelegramChatID:      chatID,
		AdzunaAppID:         os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:        os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:       envOr("ADZUNA_COUNTRY", "in"),
		RequestsPerMinute:   rpm,
		RequestTimeout:      time.Duration(timeout) * time.Second,
		MaxRetries:          retries,
		SeenTTL:             time.Duration(seenTTL) * time.Hour,
	}, nil
}

// Schedule returns the cron spec the scheduler should use.
func (c *Config) Schedule() string {
	if c.ScrapeCron != "" {
		return c.ScrapeCron
	}
	return fmt.Sprintf("@every %dh", c.ScrapeIntervalHours)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func positiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}
