package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/service"
)

// BookingHandler exposes booking confirmation, cancellation and
// listing.  All methods assume JWT authentication and role validation
// have already been performed by middleware.
type BookingHandler struct {
    Bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
    if bookings == nil {
        panic("nil service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: bookings}
}

func bookingResponse(b *model.Booking) echo.Map {
    return echo.Map{
        "id":          b.ID,
        "status":      b.Status,
        "start_at":    b.Window.StartAt.UTC().Format(time.RFC3339),
        "end_at":      b.Window.EndAt.UTC().Format(time.RFC3339),
        "resources":   b.Resources,
        "pricing":     b.Pricing,
        "total_cents": b.TotalCents,
    }
}

// Confirm handles POST /v1/bookings.  With a hold_id in the body the
// caller's live hold is converted into a confirmed booking; without
// one the booking is taken directly, re-checking availability
// atomically.  Either way the pricing snapshot is frozen at this
// moment.  Returns 201 with the booking, or 409 when the hold has
// expired or a direct booking loses the capacity race.
func (h *BookingHandler) Confirm(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        HoldID    uint64        `json:"hold_id"`
        Resources []resourceRef `json:"resources"`
        windowRequest
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    var b *model.Booking
    if body.HoldID != 0 {
        b, err = h.Bookings.ConfirmFromHold(c.Request().Context(), userID, body.HoldID)
    } else {
        b, err = h.Bookings.ConfirmDirect(c.Request().Context(), userID, toRefs(body.Resources), body.window())
    }
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, bookingResponse(b))
}

// Get handles GET /v1/bookings/:id.  Only the owner may view a booking.
func (h *BookingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    b, err := h.Bookings.GetForUser(c.Request().Context(), userID, bookingID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, bookingResponse(b))
}

// List handles GET /v1/my-bookings.  It returns all of the caller's
// bookings, newest window first, with derived statuses.
func (h *BookingHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Bookings.ListForUser(c.Request().Context(), userID)
    if err != nil {
        return respondError(c, err)
    }
    items := make([]echo.Map, 0, len(bookings))
    for _, b := range bookings {
        items = append(items, bookingResponse(b))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Cancel handles DELETE /v1/bookings/:id.  A confirmed booking is
// cancelled, its window freed and the waitlist promoted; completed and
// cancelled bookings yield 409.  Returns 204 on success.
func (h *BookingHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.Bookings.Cancel(c.Request().Context(), userID, bookingID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
