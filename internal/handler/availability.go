package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/service"
)

// AvailabilityHandler exposes the read-only availability views.
type AvailabilityHandler struct {
    Availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability *service.AvailabilityService) *AvailabilityHandler {
    if availability == nil {
        panic("nil service passed to NewAvailabilityHandler")
    }
    return &AvailabilityHandler{Availability: availability}
}

// DaySlots handles GET /v1/resources/:id/availability?date=YYYY-MM-DD.
// It returns the hourly slots of the resource for the given day with
// their availability, derived from live holds and confirmed bookings at
// the moment of the request.
func (h *AvailabilityHandler) DaySlots(c echo.Context) error {
    resourceID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
    }
    day, err := time.Parse("2006-01-02", c.QueryParam("date"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }
    slots, err := h.Availability.DaySlots(c.Request().Context(), resourceID, day)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "resource_id": resourceID,
        "date":        day.Format("2006-01-02"),
        "slots":       slots,
    })
}

// Check handles POST /v1/availability/check.  It answers whether the
// requested resource set can be reserved over the window, without
// claiming anything.  The caller's own live holds are ignored so a
// re-check during checkout never blocks on itself.
func (h *AvailabilityHandler) Check(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        Resources []resourceRef `json:"resources"`
        windowRequest
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    result, err := h.Availability.Check(c.Request().Context(), toRefs(body.Resources), body.window(), userID)
    if err != nil {
        return respondError(c, err)
    }
    resp := echo.Map{"available": result.Available}
    if !result.Available {
        resp["resource_id"] = result.BlockingResourceID
        resp["reason"] = result.Reason
    }
    return c.JSON(http.StatusOK, resp)
}
