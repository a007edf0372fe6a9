package router

import (
    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/handler"
    "github.com/matchpoint/court-reservation/internal/middleware"
)

// RegisterMember registers member-scoped endpoints under /v1.  All
// routes require a valid JWT with the MEMBER or ADMIN role.  Members
// can check availability, place and manage holds, confirm and cancel
// bookings, preview prices and queue on the waitlist.
func RegisterMember(e *echo.Echo, holds *handler.HoldHandler, bookings *handler.BookingHandler,
    availability *handler.AvailabilityHandler, pricing *handler.PricingHandler,
    waitlist *handler.WaitlistHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole("MEMBER", "ADMIN"),
    )

    // ---- Holds ----
    g.POST("/holds", holds.Create)
    g.PUT("/holds/:id/extend", holds.Extend)
    g.DELETE("/holds/:id", holds.Release)

    // ---- Availability ----
    g.POST("/availability/check", availability.Check)

    // ---- Bookings ----
    g.POST("/bookings", bookings.Confirm)
    g.GET("/bookings/:id", bookings.Get)
    g.DELETE("/bookings/:id", bookings.Cancel)
    g.GET("/my-bookings", bookings.List)

    // ---- Pricing ----
    g.POST("/pricing/preview", pricing.Preview)

    // ---- Waitlist ----
    g.POST("/waitlist", waitlist.Join)
    g.GET("/waitlist", waitlist.List)
}
