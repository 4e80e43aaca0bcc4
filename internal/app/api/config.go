package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
)

// Config carries environment-driven settings for the restock API process.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	RestockInterval   time.Duration
	RestockAutostart  bool
	NotifierBaseURL   string
	NotifierTimeout   time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		RestockInterval:   60 * time.Minute,
		RestockAutostart:  isTruthy(envDefault("RESTOCK_AUTOSTART", "true")),
		NotifierBaseURL:   strings.TrimSpace(os.Getenv("NOTIFIER_BASE_URL")),
		NotifierTimeout:   10 * time.Second,
	}
	if raw := strings.TrimSpace(os.Getenv("RESTOCK_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("RESTOCK_INTERVAL_MINUTES must be a positive integer")
		}
		cfg.RestockInterval = time.Duration(minutes) * time.Minute
	}
	if raw := strings.TrimSpace(os.Getenv("NOTIFIER_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("NOTIFIER_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.NotifierTimeout = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
