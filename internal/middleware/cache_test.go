package middleware

import (
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/config"
)

func availabilityContext(e *echo.Echo, target string) echo.Context {
    req := httptest.NewRequest("GET", target, nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/resources/:id/availability")
    return c
}

func TestCacheKeyDistinguishesPathParams(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

    court := cacheKey(cfg, availabilityContext(e, "/v1/resources/1/availability?date=2026-06-17"))
    coach := cacheKey(cfg, availabilityContext(e, "/v1/resources/2/availability?date=2026-06-17"))
    if court == coach {
        t.Fatalf("different resources share cache key %q", court)
    }

    // Every strategy must key on the concrete path, not the route
    // pattern both requests were matched by.
    for _, strategy := range []string{"route", "method_route", "method_route_query"} {
        cfg.KeyStrategy = strategy
        a := cacheKey(cfg, availabilityContext(e, "/v1/resources/1/availability"))
        b := cacheKey(cfg, availabilityContext(e, "/v1/resources/2/availability"))
        if a == b {
            t.Errorf("strategy %q: different resources share cache key %q", strategy, a)
        }
    }
}

func TestCacheKeyStable(t *testing.T) {
    e := echo.New()
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

    first := cacheKey(cfg, availabilityContext(e, "/v1/resources/1/availability?date=2026-06-17"))
    again := cacheKey(cfg, availabilityContext(e, "/v1/resources/1/availability?date=2026-06-17"))
    if first != again {
        t.Fatalf("identical requests produced keys %q and %q", first, again)
    }

    otherDay := cacheKey(cfg, availabilityContext(e, "/v1/resources/1/availability?date=2026-06-18"))
    if first == otherDay {
        t.Fatal("route_query strategy must separate keys by query string")
    }
}
