package model

import (
    "encoding/json"
    "time"
)

// Pricing rule types.  Each type selects which fields of RuleConditions
// are meaningful; the evaluator tests the typed predicate against the
// booking window, never against the wall clock, so a fixed window always
// prices the same.
const (
    RuleTypeTimeBased    = "time-based"
    RuleTypeDayBased     = "day-based"
    RuleTypeCourtType    = "court-type"
    RuleTypeSeasonal     = "seasonal"
    RuleTypeFestival     = "festival"
    RuleTypeSpecificDate = "specific-date"
    RuleTypeCustom       = "custom"
)

// RuleDate is the calendar-date format used by seasonal, festival and
// specific-date conditions.
const RuleDate = "2006-01-02"

// CustomCondition carries the payload of a custom rule: the name of a
// predicate registered at runtime plus opaque parameters that only the
// predicate interprets.
type CustomCondition struct {
    Predicate string          `json:"predicate"`
    Params    json.RawMessage `json:"params,omitempty"`
}

// RuleConditions is the tagged condition payload of a pricing rule.
// Only the fields selected by the rule's type are consulted; the rest
// stay at their zero values.  The struct is stored as a JSON column.
type RuleConditions struct {
    StartHour  int              `json:"start_hour,omitempty"`   // time-based: inclusive hour 0-23
    EndHour    int              `json:"end_hour,omitempty"`     // time-based: exclusive hour 1-24
    DaysOfWeek []int            `json:"days_of_week,omitempty"` // day-based: 0=Sunday..6=Saturday, empty = all
    CourtTypes []string         `json:"court_types,omitempty"`  // court-type: e.g. indoor, outdoor
    StartDate  string           `json:"start_date,omitempty"`   // seasonal: inclusive YYYY-MM-DD
    EndDate    string           `json:"end_date,omitempty"`     // seasonal: inclusive YYYY-MM-DD
    Date       string           `json:"date,omitempty"`         // festival / specific-date: YYYY-MM-DD
    Custom     *CustomCondition `json:"custom,omitempty"`       // custom: registered predicate + params
}

// PricingRule adjusts the hourly rate of matching reservations by a
// multiplier.  Rules are defined by administrators and are read-only to
// the evaluator.  Higher priority rules are evaluated first; matched
// multipliers compose multiplicatively.
//
// Fields:
//  ID          - primary key identifier.
//  Name        - short administrative label, e.g. "Evening peak".
//  Description - optional free text.
//  Type        - one of the RuleType constants.
//  Conditions  - typed condition payload (JSON column).
//  Multiplier  - rate factor, must be >= 0; validated at definition time.
//  Priority    - higher values are evaluated first; ties break by id.
//  Active      - inactive rules are skipped entirely.
type PricingRule struct {
    ID          uint64         // pricing_rules.id
    Name        string         // pricing_rules.name
    Description string         // pricing_rules.description
    Type        string         // pricing_rules.type
    Conditions  RuleConditions // pricing_rules.conditions (JSON column)
    Multiplier  float64        // pricing_rules.multiplier
    Priority    int            // pricing_rules.priority
    Active      bool           // pricing_rules.active
    CreatedAt   time.Time      // pricing_rules.created_at
    UpdatedAt   time.Time      // pricing_rules.updated_at
}

// KnownRuleType reports whether t is one of the supported rule types.
func KnownRuleType(t string) bool {
    switch t {
    case RuleTypeTimeBased, RuleTypeDayBased, RuleTypeCourtType,
        RuleTypeSeasonal, RuleTypeFestival, RuleTypeSpecificDate, RuleTypeCustom:
        return true
    }
    return false
}
