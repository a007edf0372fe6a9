package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/service"
)

// HoldHandler exposes the temporary-claim endpoints.  All methods
// assume JWT authentication and role validation have already been
// performed by middleware.
type HoldHandler struct {
    Holds *service.HoldService
}

// NewHoldHandler constructs a HoldHandler.
func NewHoldHandler(holds *service.HoldService) *HoldHandler {
    if holds == nil {
        panic("nil service passed to NewHoldHandler")
    }
    return &HoldHandler{Holds: holds}
}

func holdResponse(h *model.Hold, expiresIn int64) echo.Map {
    resources := make([]resourceRef, 0, len(h.Resources))
    for _, r := range h.Resources {
        resources = append(resources, resourceRef{ResourceID: r.ResourceID, Quantity: r.Quantity})
    }
    return echo.Map{
        "id":                 h.ID,
        "status":             h.Status,
        "start_at":           h.Window.StartAt.UTC().Format(time.RFC3339),
        "end_at":             h.Window.EndAt.UTC().Format(time.RFC3339),
        "resources":          resources,
        "expires_at":         h.ExpiresAt.UTC().Format(time.RFC3339),
        "expires_in_seconds": expiresIn,
        "extended":           h.Extended,
    }
}

// Create handles POST /v1/holds.  The body names the desired resources
// and window; on success the claim is returned with its expiry.
// Repeating the exact same request while the hold is live returns the
// existing hold with 200 instead of creating a duplicate.
func (h *HoldHandler) Create(c echo.Context) error {
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
    hold, created, err := h.Holds.Create(c.Request().Context(), userID, toRefs(body.Resources), body.window())
    if err != nil {
        return respondError(c, err)
    }
    status := http.StatusOK
    if created {
        status = http.StatusCreated
    }
    return c.JSON(status, holdResponse(hold, h.Holds.ExpiresIn(hold)))
}

// Extend handles PUT /v1/holds/:id/extend.  A live hold gets one
// three-minute extension; an expired or already-extended hold yields
// 409.
func (h *HoldHandler) Extend(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    holdID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
    }
    hold, err := h.Holds.Extend(c.Request().Context(), holdID, userID)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, holdResponse(hold, h.Holds.ExpiresIn(hold)))
}

// Release handles DELETE /v1/holds/:id.  The hold ends immediately and
// its window is offered to the waitlist.  Returns 204 on success.
func (h *HoldHandler) Release(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    holdID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
    }
    if err := h.Holds.Release(c.Request().Context(), holdID, userID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
