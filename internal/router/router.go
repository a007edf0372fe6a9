package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/matchpoint/court-reservation/internal/config"
    "github.com/matchpoint/court-reservation/internal/handler"
    "github.com/matchpoint/court-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated availability view.  The
// day view is read-only and popular, so it sits behind the Redis
// response cache; a short TTL keeps stale slots tolerable.
func RegisterPublic(e *echo.Echo, a *handler.AvailabilityHandler, rdb *redis.Client, cacheCfg config.CacheConfig) {
    e.GET("/v1/resources/:id/availability", a.DaySlots, middleware.NewRedisCache(cacheCfg, rdb))
}
