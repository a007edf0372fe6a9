package config

import (
    "strings"
    "time"
)

// CacheConfig tunes the Redis response cache that fronts the public
// availability view.  Availability slots drift as holds come and go,
// so the TTL should stay short.  Methods is the set of HTTP methods
// eligible for caching; KeyStrategy selects which request attributes
// form the cache key.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig builds a CacheConfig from the environment.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBoolDefault("CACHE_ENABLED", true),
        Methods:      methodSet(envStrDefault("CACHE_METHODS", "GET")),
        TTL:          envDurDefault("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStrDefault("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStrDefault("CACHE_PREFIX", "cache"),
        MaxBodyBytes: envIntDefault("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

func methodSet(csv string) map[string]bool {
    set := make(map[string]bool)
    for _, m := range strings.Split(csv, ",") {
        if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
            set[m] = true
        }
    }
    return set
}
