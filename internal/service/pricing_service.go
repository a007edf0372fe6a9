package service

import (
    "context"
    "math"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/pricing"
)

// RuleStore persists pricing rules.
type RuleStore interface {
    ListActive(ctx context.Context) ([]model.PricingRule, error)
    ListAll(ctx context.Context) ([]model.PricingRule, error)
    Create(ctx context.Context, rule *model.PricingRule, now time.Time) error
}

// PricingService builds pricing snapshots for previews and booking
// confirmation, and validates administrative rule definitions.  The
// same snapshot code serves both paths so a preview always matches the
// eventual charge for the same window and rule set.
type PricingService struct {
    resources ResourceStore
    rules     RuleStore
    now       func() time.Time
}

// NewPricingService constructs a PricingService.
func NewPricingService(resources ResourceStore, rules RuleStore) *PricingService {
    return &PricingService{resources: resources, rules: rules, now: time.Now}
}

// Snapshot prices the requested resources over the window: each
// resource's hourly base rate runs through the rule evaluator with the
// resource's pricing type, then the final hourly rate is scaled by the
// window length and quantity.  Nothing is persisted.
func (s *PricingService) Snapshot(ctx context.Context, refs []model.HoldResource, w model.Window) (*model.PricingSnapshot, error) {
    w = w.UTC()
    refs, err := normalizeRefs(refs)
    if err != nil {
        return nil, err
    }
    if !w.WellFormed() {
        return nil, validationf("window start must be before window end")
    }
    ids := make([]uint64, 0, len(refs))
    for _, ref := range refs {
        ids = append(ids, ref.ResourceID)
    }
    resources, err := s.resources.GetByIDs(ctx, ids)
    if err != nil {
        return nil, err
    }
    rules, err := s.rules.ListActive(ctx)
    if err != nil {
        return nil, err
    }

    hours := w.Hours()
    snapshot := &model.PricingSnapshot{Fees: make([]model.ResourceFee, 0, len(refs))}
    for _, ref := range refs {
        res, ok := resources[ref.ResourceID]
        if !ok {
            return nil, validationf("unknown resource %d", ref.ResourceID)
        }
        eval := pricing.Evaluate(res.BaseRateCents, res.PricingType(), w, rules)
        fee := int64(math.Round(float64(eval.FinalRateCents)*hours)) * int64(ref.Quantity)
        snapshot.Fees = append(snapshot.Fees, model.ResourceFee{
            ResourceID:     res.ID,
            ResourceName:   res.Name,
            Quantity:       ref.Quantity,
            BaseRateCents:  res.BaseRateCents,
            FinalRateCents: eval.FinalRateCents,
            FeeCents:       fee,
            AppliedRules:   eval.Applied,
        })
        snapshot.TotalCents += fee
    }
    return snapshot, nil
}

// DefineRule validates and stores an administrative rule definition.
// A negative multiplier is rejected here, at definition time, so the
// evaluator never has to defend against one.
func (s *PricingService) DefineRule(ctx context.Context, rule *model.PricingRule) error {
    if rule.Name == "" {
        return validationf("rule name is required")
    }
    if !model.KnownRuleType(rule.Type) {
        return validationf("unknown rule type %q", rule.Type)
    }
    if rule.Multiplier < 0 {
        return validationf("multiplier must not be negative")
    }
    if err := validateConditions(rule); err != nil {
        return err
    }
    return s.rules.Create(ctx, rule, s.now().UTC())
}

// ListRules returns every rule for the administrative listing.
func (s *PricingService) ListRules(ctx context.Context) ([]model.PricingRule, error) {
    return s.rules.ListAll(ctx)
}

func validateConditions(rule *model.PricingRule) error {
    c := rule.Conditions
    switch rule.Type {
    case model.RuleTypeTimeBased:
        if c.StartHour < 0 || c.EndHour > 24 || c.StartHour >= c.EndHour {
            return validationf("time-based rule requires 0 <= start_hour < end_hour <= 24")
        }
    case model.RuleTypeDayBased:
        for _, d := range c.DaysOfWeek {
            if d < 0 || d > 6 {
                return validationf("day-based rule: day %d out of range 0-6", d)
            }
        }
    case model.RuleTypeCourtType:
        if len(c.CourtTypes) == 0 {
            return validationf("court-type rule requires at least one court type")
        }
    case model.RuleTypeSeasonal:
        from, err := time.Parse(model.RuleDate, c.StartDate)
        if err != nil {
            return validationf("seasonal rule: invalid start_date %q", c.StartDate)
        }
        to, err := time.Parse(model.RuleDate, c.EndDate)
        if err != nil {
            return validationf("seasonal rule: invalid end_date %q", c.EndDate)
        }
        if to.Before(from) {
            return validationf("seasonal rule: end_date before start_date")
        }
    case model.RuleTypeFestival, model.RuleTypeSpecificDate:
        if _, err := time.Parse(model.RuleDate, c.Date); err != nil {
            return validationf("%s rule: invalid date %q", rule.Type, c.Date)
        }
    case model.RuleTypeCustom:
        if c.Custom == nil || c.Custom.Predicate == "" {
            return validationf("custom rule requires a predicate name")
        }
    }
    return nil
}
