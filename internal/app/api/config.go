package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port             string
	RedisAddr        string
	TrackingCacheTTL time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:             envDefault("PORT", "8080"),
		RedisAddr:        strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		TrackingCacheTTL: time.Minute,
	}
	if raw := strings.TrimSpace(os.Getenv("TRACKING_CACHE_TTL_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("TRACKING_CACHE_TTL_SECONDS must be a positive integer")
		}
		cfg.TrackingCacheTTL = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
