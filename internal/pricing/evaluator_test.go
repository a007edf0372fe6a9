package pricing

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// window builds a UTC window on 2026-06-17 (a Wednesday) for the given
// hours.
func window(startHour, endHour int) model.Window {
    day := time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC)
    return model.Window{
        StartAt: day.Add(time.Duration(startHour) * time.Hour),
        EndAt:   day.Add(time.Duration(endHour) * time.Hour),
    }
}

func TestEvaluateEveningPeak(t *testing.T) {
    rules := []model.PricingRule{
        {
            ID:         1,
            Name:       "Evening peak",
            Type:       model.RuleTypeTimeBased,
            Conditions: model.RuleConditions{StartHour: 18, EndHour: 21},
            Multiplier: 1.2,
            Active:     true,
        },
    }
    got := Evaluate(500, model.CourtTypeIndoor, window(19, 20), rules)
    if got.FinalRateCents != 600 {
        t.Fatalf("final rate = %d, want 600", got.FinalRateCents)
    }
    if len(got.Applied) != 1 || got.Applied[0].RuleID != 1 {
        t.Fatalf("applied = %+v, want rule 1", got.Applied)
    }
}

func TestEvaluateTimeBasedBoundaries(t *testing.T) {
    rules := []model.PricingRule{
        {
            ID:         1,
            Type:       model.RuleTypeTimeBased,
            Conditions: model.RuleConditions{StartHour: 18, EndHour: 21},
            Multiplier: 2,
            Active:     true,
        },
    }
    // Start hour is inclusive, end hour exclusive.
    if got := Evaluate(100, "indoor", window(18, 19), rules); got.FinalRateCents != 200 {
        t.Errorf("start boundary: rate = %d, want 200", got.FinalRateCents)
    }
    if got := Evaluate(100, "indoor", window(21, 22), rules); got.FinalRateCents != 100 {
        t.Errorf("end boundary: rate = %d, want 100", got.FinalRateCents)
    }
    // Only the window start hour matters, not hours covered later.
    if got := Evaluate(100, "indoor", window(17, 20), rules); got.FinalRateCents != 100 {
        t.Errorf("pre-peak start: rate = %d, want 100", got.FinalRateCents)
    }
}

func TestEvaluateOrderAndComposition(t *testing.T) {
    rules := []model.PricingRule{
        {ID: 3, Name: "b", Type: model.RuleTypeDayBased, Multiplier: 0.5, Priority: 1, Active: true},
        {ID: 7, Name: "c", Type: model.RuleTypeDayBased, Multiplier: 2, Priority: 1, Active: true},
        {ID: 1, Name: "a", Type: model.RuleTypeDayBased, Multiplier: 3, Priority: 9, Active: true},
        {ID: 2, Name: "off", Type: model.RuleTypeDayBased, Multiplier: 100, Priority: 99, Active: false},
    }
    got := Evaluate(100, "indoor", window(10, 11), rules)
    // 100 * 3 * 0.5 * 2 = 300; inactive rule ignored.
    if got.FinalRateCents != 300 {
        t.Fatalf("final rate = %d, want 300", got.FinalRateCents)
    }
    wantOrder := []uint64{1, 3, 7}
    if len(got.Applied) != len(wantOrder) {
        t.Fatalf("applied %d rules, want %d", len(got.Applied), len(wantOrder))
    }
    for i, id := range wantOrder {
        if got.Applied[i].RuleID != id {
            t.Errorf("applied[%d] = rule %d, want %d", i, got.Applied[i].RuleID, id)
        }
    }
}

func TestEvaluateDeterministicForFixedWindow(t *testing.T) {
    rules := []model.PricingRule{
        {ID: 1, Type: model.RuleTypeTimeBased, Conditions: model.RuleConditions{StartHour: 18, EndHour: 21}, Multiplier: 1.2, Active: true},
        {ID: 2, Type: model.RuleTypeDayBased, Conditions: model.RuleConditions{DaysOfWeek: []int{3}}, Multiplier: 1.1, Active: true},
    }
    first := Evaluate(500, "indoor", window(19, 20), rules)
    for i := 0; i < 5; i++ {
        again := Evaluate(500, "indoor", window(19, 20), rules)
        if again.FinalRateCents != first.FinalRateCents {
            t.Fatalf("evaluation %d differs: %d vs %d", i, again.FinalRateCents, first.FinalRateCents)
        }
    }
}

func TestMatchesDayBased(t *testing.T) {
    w := window(10, 11) // 2026-06-17 is a Wednesday (day 3)
    wed := model.PricingRule{Type: model.RuleTypeDayBased, Conditions: model.RuleConditions{DaysOfWeek: []int{3}}}
    weekend := model.PricingRule{Type: model.RuleTypeDayBased, Conditions: model.RuleConditions{DaysOfWeek: []int{0, 6}}}
    all := model.PricingRule{Type: model.RuleTypeDayBased}
    if !Matches(wed, "indoor", w) {
        t.Error("wednesday rule should match a wednesday window")
    }
    if Matches(weekend, "indoor", w) {
        t.Error("weekend rule should not match a wednesday window")
    }
    if !Matches(all, "indoor", w) {
        t.Error("empty day set should match all days")
    }
}

func TestMatchesCourtType(t *testing.T) {
    r := model.PricingRule{Type: model.RuleTypeCourtType, Conditions: model.RuleConditions{CourtTypes: []string{"indoor"}}}
    if !Matches(r, "indoor", window(10, 11)) {
        t.Error("indoor rule should match indoor court")
    }
    if Matches(r, "outdoor", window(10, 11)) {
        t.Error("indoor rule should not match outdoor court")
    }
}

func TestMatchesDateRules(t *testing.T) {
    w := window(10, 11) // starts on 2026-06-17
    seasonal := model.PricingRule{
        Type:       model.RuleTypeSeasonal,
        Conditions: model.RuleConditions{StartDate: "2026-06-01", EndDate: "2026-08-31"},
    }
    if !Matches(seasonal, "indoor", w) {
        t.Error("summer rule should match a june window")
    }
    seasonal.Conditions = model.RuleConditions{StartDate: "2026-07-01", EndDate: "2026-08-31"}
    if Matches(seasonal, "indoor", w) {
        t.Error("july rule should not match a june window")
    }

    festival := model.PricingRule{Type: model.RuleTypeFestival, Conditions: model.RuleConditions{Date: "2026-06-17"}}
    if !Matches(festival, "indoor", w) {
        t.Error("festival rule on the window date should match")
    }
    festival.Conditions.Date = "2026-06-18"
    if Matches(festival, "indoor", w) {
        t.Error("festival rule on another date should not match")
    }
}

func TestCustomPredicate(t *testing.T) {
    RegisterCustomPredicate("min-duration", func(params json.RawMessage, w model.Window) bool {
        var p struct {
            MinHours float64 `json:"min_hours"`
        }
        if err := json.Unmarshal(params, &p); err != nil {
            return false
        }
        return w.Hours() >= p.MinHours
    })
    rule := model.PricingRule{
        ID:   5,
        Type: model.RuleTypeCustom,
        Conditions: model.RuleConditions{Custom: &model.CustomCondition{
            Predicate: "min-duration",
            Params:    json.RawMessage(`{"min_hours": 2}`),
        }},
        Multiplier: 0.9,
        Active:     true,
    }
    long := Evaluate(1000, "indoor", window(10, 13), []model.PricingRule{rule})
    if long.FinalRateCents != 900 {
        t.Errorf("3h window: rate = %d, want 900", long.FinalRateCents)
    }
    short := Evaluate(1000, "indoor", window(10, 11), []model.PricingRule{rule})
    if short.FinalRateCents != 1000 {
        t.Errorf("1h window: rate = %d, want 1000", short.FinalRateCents)
    }

    // Unregistered predicates never match.
    rule.Conditions.Custom.Predicate = "no-such-predicate"
    missing := Evaluate(1000, "indoor", window(10, 13), []model.PricingRule{rule})
    if missing.FinalRateCents != 1000 {
        t.Errorf("unregistered predicate: rate = %d, want 1000", missing.FinalRateCents)
    }
}
