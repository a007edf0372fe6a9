package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/repository"
    "github.com/matchpoint/court-reservation/internal/service"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// resourceRef is the request form of one requested resource line.
type resourceRef struct {
    ResourceID uint64 `json:"resource_id"`
    Quantity   uint32 `json:"quantity"`
}

// windowRequest is the request form of a reservation window.  Both
// timestamps are RFC3339.
type windowRequest struct {
    StartAt time.Time `json:"start_at"`
    EndAt   time.Time `json:"end_at"`
}

func toRefs(in []resourceRef) []model.HoldResource {
    out := make([]model.HoldResource, 0, len(in))
    for _, r := range in {
        out = append(out, model.HoldResource{ResourceID: r.ResourceID, Quantity: r.Quantity})
    }
    return out
}

func (w windowRequest) window() model.Window {
    return model.Window{StartAt: w.StartAt.UTC(), EndAt: w.EndAt.UTC()}
}

// respondError maps service and repository errors onto HTTP statuses:
// validation failures become 400, ownership violations 403, missing
// rows 404 and reservation races 409.  A capacity conflict carries the
// blocking resource id so clients can tell the user which line failed.
func respondError(c echo.Context, err error) error {
    var verr *service.ValidationError
    var cerr *repository.ConflictError
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason})
    case errors.As(err, &cerr):
        body := echo.Map{"error": cerr.Reason}
        if cerr.ResourceID != 0 {
            body["resource_id"] = cerr.ResourceID
        }
        return c.JSON(http.StatusConflict, body)
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
