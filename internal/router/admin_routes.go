package router

import (
    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/handler"
    "github.com/matchpoint/court-reservation/internal/middleware"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.  Pricing
// rules shape what every member pays, so their management is restricted
// to administrators.
func RegisterAdmin(e *echo.Echo, pricing *handler.PricingHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("ADMIN"),
    )

    g.POST("/pricing/rules", pricing.CreateRule)
    g.GET("/pricing/rules", pricing.ListRules)
}
