package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hackathon-range/shop-backend/internal/config"
)

// tokenBucketScript refills and takes one token atomically.
// KEYS[1] bucket; ARGV now_ms, capacity, refill_tokens, interval_ms, ttl_s.
// Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])
    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    local intervals = math.floor(math.max(0, now_ms - last_refill) / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals * refill_tokens)
        last_refill = last_refill + intervals * interval_ms
    end

    local allowed, retry_after_ms = 0, 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
    end

    redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
    redis.call('EXPIRE', key, ttl_seconds)
    return { allowed, tokens, retry_after_ms }
`)

// bucketResult is one evaluation of the limiter script.
type bucketResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// parseBucket decodes the script reply.
func parseBucket(v any) (bucketResult, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) != 3 {
		return bucketResult{}, fmt.Errorf("unexpected limiter reply %#v", v)
	}
	return bucketResult{
		Allowed:    asInt64(arr[0]) == 1,
		Remaining:  asInt64(arr[1]),
		RetryAfter: time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, nil
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// take spends one token from key.
func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string, now time.Time) (bucketResult, error) {
	v, err := tokenBucketScript.Run(ctx, rdb, []string{key},
		now.UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Result()
	if err != nil {
		return bucketResult{}, err
	}
	return parseBucket(v)
}

// retryAfterSeconds rounds d up to whole seconds for the Retry-After header.
func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// NewTokenBucket limits requests with a Redis token bucket so all replicas
// share one budget per key.  The public scoreboard and any other path
// under cfg.SkipPrefixes is never limited.  Redis errors let the request
// through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipRateLimit(cfg, c.Request().URL.Path) {
				return next(c)
			}
			key := buildRateKey(cfg, c)
			res, err := take(c.Request().Context(), rdb, cfg, key, time.Now())
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if !res.Allowed {
				secs := retryAfterSeconds(res.RetryAfter)
				h.Set("Retry-After", strconv.Itoa(secs))
				if cfg.Debug {
					c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, res.RetryAfter)
				}
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "Too many requests",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// buildRateKey names the bucket of c.  The route part uses the matched
// pattern so /api/products/1 and /api/products/2 share one budget.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}

// skipRateLimit reports whether path falls under one of cfg.SkipPrefixes.
func skipRateLimit(cfg config.RateLimitConfig, path string) bool {
	for _, p := range cfg.SkipPrefixes {
		if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
			return true
		}
	}
	return false
}
