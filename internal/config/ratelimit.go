package config

import "time"

// RateLimitConfig configures the Redis token bucket.  SkipPrefixes lists
// request paths that are never limited; the public scoreboard is polled by
// every team's dashboard and is exempt by default.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	SkipPrefixes   []string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 100),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 100),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Minute),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
		SkipPrefixes:   splitList(getenv("RATE_LIMIT_SKIP", "/api/scores")),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if def.Capacity < 1 {
		def.Capacity = 1
	}
	if def.RefillTokens < 1 {
		def.RefillTokens = 1
	}
	if def.RefillInterval <= 0 {
		def.RefillInterval = time.Second
	}
	if minTTL := 5 * def.RefillInterval; def.TTL < minTTL {
		def.TTL = minTTL
	}
	return def
}
