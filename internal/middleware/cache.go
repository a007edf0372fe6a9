package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/matchpoint/court-reservation/internal/config"
)

// cachedResponse is the stored form of a cache entry.  Headers are kept
// so replayed responses carry the same content type and formatting as
// the original.
type cachedResponse struct {
    Status int         `json:"status"`
    Header http.Header `json:"header"`
    Body   []byte      `json:"body"`
}

// responseRecorder tees the handler's output into a buffer, truncated
// at limit, while still streaming it to the client.
type responseRecorder struct {
    http.ResponseWriter
    status int
    body   bytes.Buffer
    limit  int
}

func (r *responseRecorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
    if room := r.limit - r.body.Len(); room > 0 {
        if len(b) > room {
            r.body.Write(b[:room])
        } else {
            r.body.Write(b)
        }
    }
    return r.ResponseWriter.Write(b)
}

// NewRedisCache caches successful responses for the configured methods.
// The availability day view is its only consumer: that endpoint is read
// far more often than holds and bookings change it, and a short TTL
// keeps stale slots within tolerance.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[c.Request().Method] {
                return next(c)
            }
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
                    return replay(c, hit)
                }
            }

            rec := &responseRecorder{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          cfg.MaxBodyBytes,
            }
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            // Only complete 200 bodies are cacheable; a truncated
            // capture means the response outgrew the limit.
            if rec.status == http.StatusOK && rec.body.Len() < cfg.MaxBodyBytes {
                entry := cachedResponse{
                    Status: rec.status,
                    Header: c.Response().Header().Clone(),
                    Body:   rec.body.Bytes(),
                }
                if raw, err := json.Marshal(entry); err == nil {
                    // The request context may already be done; the
                    // write should still land.
                    _ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
                }
            }
            return nil
        }
    }
}

func replay(c echo.Context, hit cachedResponse) error {
    h := c.Response().Header()
    for name, vals := range hit.Header {
        if strings.EqualFold(name, "Content-Length") || strings.EqualFold(name, "X-Cache") {
            continue
        }
        for _, v := range vals {
            h.Add(name, v)
        }
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(hit.Status)
    if len(hit.Body) > 0 {
        _, _ = c.Response().Write(hit.Body)
    }
    return nil
}

// cacheKey hashes the strategy-selected request attributes under the
// configured prefix.  Hashing keeps arbitrary query strings out of the
// Redis keyspace.  The concrete URL path is used, never the registered
// route pattern: the pattern collapses every :id value into one key, so
// one resource's response would be replayed for all of them.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    path := r.URL.Path
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{path}
    case "method_route":
        parts = []string{r.Method, path}
    case "method_route_query":
        parts = []string{r.Method, path, r.URL.RawQuery}
    default: // route_query
        parts = []string{path, r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum)
}
