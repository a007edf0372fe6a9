package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/matchpoint/court-reservation/internal/config"
)

// tokenBucketScript refills and drains one bucket atomically.  State is
// a Redis hash of the remaining tokens and the last refill timestamp;
// returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local bucket = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', bucket, 'tokens', 'refilled_at')
local tokens = tonumber(state[1])
local refilled_at = tonumber(state[2])
if tokens == nil or refilled_at == nil then
    tokens = capacity
    refilled_at = now
end

local cycles = math.floor(math.max(0, now - refilled_at) / interval)
if cycles > 0 then
    tokens = math.min(capacity, tokens + cycles * refill)
    refilled_at = refilled_at + cycles * interval
end

local allowed = 0
local retry_after = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after = math.max(0, interval - (now - refilled_at))
end

redis.call('HMSET', bucket, 'tokens', tokens, 'refilled_at', refilled_at)
redis.call('EXPIRE', bucket, ttl)
return { allowed, tokens, retry_after }
`)

// NewTokenBucket returns a distributed rate limiter keyed per the
// configured strategy.  With a nil Redis client or Enabled=false it is
// a no-op, and any Redis failure fails open: a broken limiter must not
// take reservations down with it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            res, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                if cfg.Debug {
                    c.Logger().Warnf("rate limiter unavailable for %s: %v", key, err)
                }
                return next(c)
            }
            allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }

            if !allowed {
                retrySecs := int((retryMs + 999) / 1000)
                h.Set("Retry-After", strconv.Itoa(retrySecs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "too_many_requests",
                    "message":     "rate limit exceeded",
                    "retry_after": retrySecs,
                })
            }
            return next(c)
        }
    }
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
    return next
}

// rateKey assembles the bucket key from the strategy's underscore-joined
// parts, e.g. "ip_user_route" or just "user".  Unknown parts are
// ignored; an empty result falls back to the full combination.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix}
    for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
        switch dim {
        case "ip":
            parts = append(parts, "ip", clientIP(c))
        case "user":
            parts = append(parts, "user", rateKeyUser(c))
        case "route":
            parts = append(parts, "route", c.Request().Method+" "+c.Path())
        }
    }
    if len(parts) == 1 {
        parts = append(parts,
            "ip", clientIP(c),
            "user", rateKeyUser(c),
            "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}

func clientIP(c echo.Context) string {
    if ip := c.RealIP(); ip != "" {
        return ip
    }
    return "unknown"
}

// rateKeyUser stringifies whatever subject claim the auth middleware
// stored; unauthenticated requests share the "anon" bucket per IP.
func rateKeyUser(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case nil:
        return "anon"
    case string:
        if v == "" {
            return "anon"
        }
        return v
    default:
        return fmt.Sprint(v)
    }
}
