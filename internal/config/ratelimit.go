package config

import "time"

// RateLimitConfig tunes the Redis token-bucket limiter applied in front
// of every route.  Capacity is the burst size; RefillTokens are added
// back every RefillInterval.  TTL bounds how long an idle bucket key
// survives in Redis.  KeyStrategy selects which request attributes make
// up the bucket key (underscore-joined combination of "ip", "user" and
// "route").
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig builds a RateLimitConfig from the environment and
// clamps the values into a usable range.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBoolDefault("RATE_LIMIT_ENABLED", true),
        Capacity:       envIntDefault("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envIntDefault("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDurDefault("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDurDefault("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStrDefault("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStrDefault("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBoolDefault("RATE_LIMIT_DEBUG", false),
    }
    if cfg.Capacity < 1 {
        cfg.Capacity = 1
    }
    if cfg.RefillTokens < 1 {
        cfg.RefillTokens = 1
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // Idle buckets must outlive a few refill cycles or limits reset on
    // every quiet period.
    if min := 5 * cfg.RefillInterval; cfg.TTL < min {
        cfg.TTL = min
    }
    return cfg
}
