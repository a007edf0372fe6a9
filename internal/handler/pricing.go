package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/service"
)

// PricingHandler exposes price previews for members and rule management
// for administrators.
type PricingHandler struct {
    Pricing *service.PricingService
}

// NewPricingHandler constructs a PricingHandler.
func NewPricingHandler(pricing *service.PricingService) *PricingHandler {
    if pricing == nil {
        panic("nil service passed to NewPricingHandler")
    }
    return &PricingHandler{Pricing: pricing}
}

// Preview handles POST /v1/pricing/preview.  It prices the requested
// resources over the window under the currently active rules without
// reserving or persisting anything.  The same calculation runs at
// confirmation time, so the preview matches the eventual charge as long
// as the rule set does not change in between.
func (h *PricingHandler) Preview(c echo.Context) error {
    var body struct {
        Resources []resourceRef `json:"resources"`
        windowRequest
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    snapshot, err := h.Pricing.Snapshot(c.Request().Context(), toRefs(body.Resources), body.window())
    if err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, snapshot)
}

type ruleResponse struct {
    ID          uint64               `json:"id"`
    Name        string               `json:"name"`
    Description string               `json:"description,omitempty"`
    Type        string               `json:"type"`
    Conditions  model.RuleConditions `json:"conditions"`
    Multiplier  float64              `json:"multiplier"`
    Priority    int                  `json:"priority"`
    Active      bool                 `json:"active"`
}

func toRuleResponse(r model.PricingRule) ruleResponse {
    return ruleResponse{
        ID:          r.ID,
        Name:        r.Name,
        Description: r.Description,
        Type:        r.Type,
        Conditions:  r.Conditions,
        Multiplier:  r.Multiplier,
        Priority:    r.Priority,
        Active:      r.Active,
    }
}

// CreateRule handles POST /v1/pricing/rules (admin only).  The rule is
// validated against its type's condition requirements before being
// stored; it takes effect on the next evaluation.
func (h *PricingHandler) CreateRule(c echo.Context) error {
    var body struct {
        Name        string               `json:"name"`
        Description string               `json:"description"`
        Type        string               `json:"type"`
        Conditions  model.RuleConditions `json:"conditions"`
        Multiplier  float64              `json:"multiplier"`
        Priority    int                  `json:"priority"`
        Active      *bool                `json:"active"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    rule := &model.PricingRule{
        Name:        body.Name,
        Description: body.Description,
        Type:        body.Type,
        Conditions:  body.Conditions,
        Multiplier:  body.Multiplier,
        Priority:    body.Priority,
        Active:      body.Active == nil || *body.Active, // rules default to active
    }
    if err := h.Pricing.DefineRule(c.Request().Context(), rule); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusCreated, toRuleResponse(*rule))
}

// ListRules handles GET /v1/pricing/rules (admin only).  It returns
// every rule, active or not.
func (h *PricingHandler) ListRules(c echo.Context) error {
    rules, err := h.Pricing.ListRules(c.Request().Context())
    if err != nil {
        return respondError(c, err)
    }
    items := make([]ruleResponse, 0, len(rules))
    for _, r := range rules {
        items = append(items, toRuleResponse(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
