package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/service"
)

// WaitlistHandler exposes the waitlist join and listing endpoints.
type WaitlistHandler struct {
    Waitlist *service.WaitlistService
}

// NewWaitlistHandler constructs a WaitlistHandler.
func NewWaitlistHandler(waitlist *service.WaitlistService) *WaitlistHandler {
    if waitlist == nil {
        panic("nil service passed to NewWaitlistHandler")
    }
    return &WaitlistHandler{Waitlist: waitlist}
}

func waitlistResponse(e *model.WaitlistEntry) echo.Map {
    resp := echo.Map{
        "id":          e.ID,
        "resource_id": e.ResourceID,
        "start_at":    e.Window.StartAt.UTC().Format(time.RFC3339),
        "end_at":      e.Window.EndAt.UTC().Format(time.RFC3339),
        "position":    e.Position,
        "status":      e.Status,
        "expires_at":  e.ExpiresAt.UTC().Format(time.RFC3339),
    }
    if e.NotifiedAt != nil {
        resp["notified_at"] = e.NotifiedAt.UTC().Format(time.RFC3339)
    }
    return resp
}

// Join handles POST /v1/waitlist.  The caller queues for an unavailable
// slot and receives their position; the entry expires on its own when
// the desired window passes.
func (h *WaitlistHandler) Join(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        ResourceID uint64              `json:"resource_id"`
        Prefs      model.WaitlistPrefs `json:"prefs"`
        windowRequest
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    entry, err := h.Waitlist.Join(c.Request().Context(), userID, body.ResourceID, body.window(), body.Prefs)
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, waitlistResponse(entry))
}

// List handles GET /v1/waitlist?status=.  It returns the caller's
// entries, optionally filtered by status.
func (h *WaitlistHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    entries, err := h.Waitlist.ListForUser(c.Request().Context(), userID, c.QueryParam("status"))
    if err != nil {
        return respondError(c, err)
    }
    items := make([]echo.Map, 0, len(entries))
    for _, e := range entries {
        items = append(items, waitlistResponse(e))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
