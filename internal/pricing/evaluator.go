// Package pricing computes final rates by composing active pricing
// rules over a reservation window.  Evaluation is deterministic: rules
// are ordered by priority descending with ties broken by id ascending,
// and every predicate is tested against the window being priced, never
// against the wall clock.
package pricing

import (
    "math"
    "sort"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// Evaluation is the outcome of pricing a single resource over a window.
// Applied lists every matched rule in evaluation order so callers can
// show users exactly how the final rate was reached.
type Evaluation struct {
    FinalRateCents int64
    Applied        []model.AppliedRule
}

// Evaluate prices an hourly base rate for a resource of the given
// pricing type (court subtype for courts, resource type otherwise) over
// the window.  Inactive rules must be filtered out by the caller's
// fetch; the function still skips them defensively.  Matched multipliers
// compose multiplicatively in sorted order and the result is rounded to
// the nearest cent.
func Evaluate(baseRateCents int64, pricingType string, w model.Window, rules []model.PricingRule) Evaluation {
    ordered := make([]model.PricingRule, 0, len(rules))
    for _, r := range rules {
        if r.Active {
            ordered = append(ordered, r)
        }
    }
    sort.Slice(ordered, func(i, j int) bool {
        if ordered[i].Priority != ordered[j].Priority {
            return ordered[i].Priority > ordered[j].Priority
        }
        return ordered[i].ID < ordered[j].ID
    })

    rate := float64(baseRateCents)
    var applied []model.AppliedRule
    for _, r := range ordered {
        if !Matches(r, pricingType, w) {
            continue
        }
        rate *= r.Multiplier
        applied = append(applied, model.AppliedRule{
            RuleID:     r.ID,
            Name:       r.Name,
            Type:       r.Type,
            Multiplier: r.Multiplier,
        })
    }
    return Evaluation{FinalRateCents: int64(math.Round(rate)), Applied: applied}
}

// Matches tests a single rule's typed predicate against the window.
// Unknown rule types never match.
func Matches(r model.PricingRule, pricingType string, w model.Window) bool {
    start := w.StartAt.UTC()
    switch r.Type {
    case model.RuleTypeTimeBased:
        h := start.Hour()
        return h >= r.Conditions.StartHour && h < r.Conditions.EndHour
    case model.RuleTypeDayBased:
        // An empty day set matches every day.
        if len(r.Conditions.DaysOfWeek) == 0 {
            return true
        }
        day := int(start.Weekday())
        for _, d := range r.Conditions.DaysOfWeek {
            if d == day {
                return true
            }
        }
        return false
    case model.RuleTypeCourtType:
        for _, t := range r.Conditions.CourtTypes {
            if t == pricingType {
                return true
            }
        }
        return false
    case model.RuleTypeSeasonal:
        return dateInRange(start, r.Conditions.StartDate, r.Conditions.EndDate)
    case model.RuleTypeFestival, model.RuleTypeSpecificDate:
        return start.Format(model.RuleDate) == r.Conditions.Date
    case model.RuleTypeCustom:
        if r.Conditions.Custom == nil {
            return false
        }
        return evalCustom(r.Conditions.Custom, w)
    }
    return false
}

// dateInRange checks that the window start's calendar date falls inside
// [startDate, endDate], both bounds inclusive.  Malformed bounds never
// match.
func dateInRange(start time.Time, startDate, endDate string) bool {
    from, err := time.Parse(model.RuleDate, startDate)
    if err != nil {
        return false
    }
    to, err := time.Parse(model.RuleDate, endDate)
    if err != nil {
        return false
    }
    day, err := time.Parse(model.RuleDate, start.Format(model.RuleDate))
    if err != nil {
        return false
    }
    return !day.Before(from) && !day.After(to)
}
