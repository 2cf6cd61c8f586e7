package config

import (
	"strings"
	"time"
)

// RateLimitConfig describes token-bucket parameters for the request limiter.
// The limiter sits in front of the contact-disclosure endpoints, where token
// issuance and redemption must not be hammered.
type RateLimitConfig struct {
	Enabled        bool          // master switch, RATE_LIMIT_ENABLED
	Capacity       int           // bucket size (burst allowance)
	RefillTokens   int           // tokens added per refill interval
	RefillInterval time.Duration // how often the bucket refills
	TTL            time.Duration // idle expiry for bucket keys in Redis
	Prefix         string        // Redis key namespace
}

// LoadRateLimitConfig reads limiter settings from the environment, applying
// conservative defaults suitable for the disclosure endpoints.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        strings.EqualFold(getenv("RATE_LIMIT_ENABLED", "true"), "true"),
		Capacity:       atoi(getenv("RATE_LIMIT_CAPACITY", "10")),
		RefillTokens:   atoi(getenv("RATE_LIMIT_REFILL_TOKENS", "5")),
		RefillInterval: time.Duration(atoi(getenv("RATE_LIMIT_REFILL_MS", "60000"))) * time.Millisecond,
		TTL:            time.Duration(atoi(getenv("RATE_LIMIT_TTL_SEC", "600"))) * time.Second,
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10
	}
	if cfg.RefillTokens <= 0 {
		cfg.RefillTokens = 5
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Minute
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return cfg
}
