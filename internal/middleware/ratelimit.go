package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehjm/barberdesk/internal/config"
)

// bucketScript implements an atomic token bucket in Redis. State lives
// in a hash per key; the script refills, takes one token if available
// and reports how long to wait otherwise, all in one round trip.
var bucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl = tonumber(ARGV[5])

	local s = redis.call('HMGET', key, 'tokens', 'refilled_ms')
	local tokens = tonumber(s[1])
	local refilled = tonumber(s[2])
	if tokens == nil or refilled == nil then
		tokens = capacity
		refilled = now_ms
	end

	if interval_ms > 0 and refill > 0 then
		local steps = math.floor(math.max(0, now_ms - refilled) / interval_ms)
		if steps > 0 then
			tokens = math.min(capacity, tokens + steps * refill)
			refilled = refilled + steps * interval_ms
		end
	end

	local allowed = 0
	local wait_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		wait_ms = math.max(0, interval_ms - (now_ms - refilled))
	end

	redis.call('HMSET', key, 'tokens', tokens, 'refilled_ms', refilled)
	redis.call('EXPIRE', key, ttl)
	return { allowed, tokens, wait_ms }
`)

// RateLimit applies a per-key token bucket to a route group. Redis
// being down never blocks traffic; the limiter fails open.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := bucketScript.Run(c.Request().Context(), rdb,
				[]string{rateKey(cfg, c)},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: redis error: %v", err)
				}
				return next(c)
			}

			arr, ok := res.([]interface{})
			if !ok || len(arr) != 3 {
				return next(c)
			}
			allowed := toInt64(arr[0]) == 1
			remaining := toInt64(arr[1])
			waitMs := toInt64(arr[2])

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(waitMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey builds the bucket key. Authenticated callers are bucketed by
// profile so a busy shop terminal does not starve other shops sharing
// a NAT; anonymous traffic falls back to the client IP.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	actor := "anon"
	if v, ok := c.Get("profile_id").(uint64); ok && v != 0 {
		actor = strconv.FormatUint(v, 10)
	}
	route := c.Request().Method + " " + c.Path()

	switch cfg.KeyStrategy {
	case "ip":
		parts = append(parts, "ip", ip)
	case "actor":
		parts = append(parts, "actor", actor)
	case "actor_route":
		parts = append(parts, "actor", actor, "route", route)
	default: // ip_route
		parts = append(parts, "ip", ip, "route", route)
	}
	return strings.Join(parts, ":")
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}
