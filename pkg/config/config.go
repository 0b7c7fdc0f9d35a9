package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Port string

	// Listing cache
	CacheDBPath     string
	CacheTTLMinutes int

	// Search provider
	SearchTimeoutSeconds int
	RatePerSecond        float64
	RateBurst            int

	// Comparison engine
	BloomExpectedItems uint64
	BloomFPRate        float64
	BloomHighWater     float64
	BulkConcurrency    int
}

// Default returns configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Port:                 "9090",
		CacheDBPath:          "./cache.db",
		CacheTTLMinutes:      1440,
		SearchTimeoutSeconds: 30,
		RatePerSecond:        2.0,
		RateBurst:            3,
		BloomExpectedItems:   10000,
		BloomFPRate:          0.01,
		BloomHighWater:       0.5,
		BulkConcurrency:      8,
	}
}

// LoadFromEnv loads .env (if present) then overrides from environment
// variables.
func (c *Config) LoadFromEnv() {
	// Silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("CACHE_DB_PATH"); v != "" {
		c.CacheDBPath = v
	}
	if v := os.Getenv("CACHE_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheTTLMinutes = n
		}
	}
	if v := os.Getenv("SEARCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SearchTimeoutSeconds = n
		}
	}
	if v := os.Getenv("SCRAPE_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("SCRAPE_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("BLOOM_EXPECTED_ITEMS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			c.BloomExpectedItems = n
		}
	}
	if v := os.Getenv("BLOOM_FP_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			c.BloomFPRate = f
		}
	}
	if v := os.Getenv("BLOOM_HIGH_WATER"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			c.BloomHighWater = f
		}
	}
	if v := os.Getenv("BULK_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.BulkConcurrency = n
		}
	}
}
