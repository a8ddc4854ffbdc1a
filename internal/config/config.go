// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits with an error.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the placement service.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	CountsRefreshHours int // how often the counts cache is rebuilt
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	refresh := 1
	if s := os.Getenv("COUNTS_REFRESH_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("COUNTS_REFRESH_HOURS must be a positive integer, got %q", s)
		}
		refresh = v
	}

	port := os.Getenv("PLACEMENT_PORT")
	if port == "" {
		port = "8083"
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		CountsRefreshHours: refresh,
	}, nil
}
