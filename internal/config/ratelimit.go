package config

import (
	"strings"
	"time"
)

// RateLimitConfig controls the Redis token-bucket limiter applied to
// the auth and POS route groups. When disabled or when no Redis client
// is available the limiter becomes a pass-through.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip, user, route or combinations
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads environment variables with sane defaults:
// 30 requests of burst, refilling 10 per second.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        getenv("RATELIMIT_ENABLED", "true") == "true",
		Capacity:       atoi(getenv("RATELIMIT_CAPACITY", "30")),
		RefillTokens:   atoi(getenv("RATELIMIT_REFILL_TOKENS", "10")),
		RefillInterval: parseDur(getenv("RATELIMIT_REFILL_INTERVAL", "1s")),
		TTL:            parseDur(getenv("RATELIMIT_TTL", "10m")),
		KeyStrategy:    strings.ToLower(getenv("RATELIMIT_KEY_STRATEGY", "ip_route")),
		Prefix:         getenv("RATELIMIT_PREFIX", "rl"),
		Debug:          getenv("RATELIMIT_DEBUG", "false") == "true",
	}
}
