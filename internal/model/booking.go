package model

import "time"

// Booking statuses.  Confirmed is the only live state; completed and
// cancelled are terminal and a booking never leaves them.
const (
    BookingStatusConfirmed = "confirmed"
    BookingStatusCompleted = "completed"
    BookingStatusCancelled = "cancelled"
)

// AppliedRule records one pricing rule that matched during evaluation,
// kept inside the booking's pricing snapshot for transparency.  Rules
// are listed in evaluation order (priority descending, id ascending).
type AppliedRule struct {
    RuleID     uint64  `json:"rule_id"`
    Name       string  `json:"name"`
    Type       string  `json:"type"`
    Multiplier float64 `json:"multiplier"`
}

// ResourceFee is the priced line for a single resource within a booking
// or a price preview.
type ResourceFee struct {
    ResourceID     uint64        `json:"resource_id"`
    ResourceName   string        `json:"resource_name"`
    Quantity       uint32        `json:"quantity"`
    BaseRateCents  int64         `json:"base_rate_cents"`  // hourly rate before rules
    FinalRateCents int64         `json:"final_rate_cents"` // hourly rate after rules
    FeeCents       int64         `json:"fee_cents"`        // final rate x hours x quantity
    AppliedRules   []AppliedRule `json:"applied_rules"`
}

// PricingSnapshot freezes the price calculation at confirmation time.
// Re-evaluating rules later must never change what a user was charged,
// so the snapshot is persisted verbatim with the booking.
type PricingSnapshot struct {
    Fees       []ResourceFee `json:"fees"`
    TotalCents int64         `json:"total_cents"`
}

// BookingResource is one reserved line of a booking.
type BookingResource struct {
    ResourceID uint64 `json:"resource_id"` // booking_resources.resource_id
    Quantity   uint32 `json:"quantity"`    // booking_resources.quantity
    FeeCents   int64  `json:"fee_cents"`   // booking_resources.fee_cents
}

// Booking is a confirmed reservation created from a hold (or directly,
// when the caller skips the hold step).  Bookings are an audit trail:
// rows are never physically deleted, only transitioned to a terminal
// status.
//
// Fields:
//  ID         - primary key identifier.
//  UserID     - owning user; only the owner may cancel.
//  Window     - reserved time window.
//  Resources  - reserved resource lines with their fees.
//  Status     - confirmed, completed or cancelled.
//  Pricing    - frozen pricing snapshot from confirmation time.
//  TotalCents - denormalised snapshot total for listings.
type Booking struct {
    ID         uint64            // bookings.id
    UserID     uint64            // bookings.user_id
    Window     Window            // bookings.start_at / bookings.end_at
    Resources  []BookingResource // booking_resources rows
    Status     string            // bookings.status
    Pricing    PricingSnapshot   // bookings.pricing (JSON column)
    TotalCents int64             // bookings.total_cents
    CreatedAt  time.Time         // bookings.created_at
    UpdatedAt  time.Time         // bookings.updated_at
}

// EffectiveStatus derives the status as of the given instant without
// mutating anything: a confirmed booking whose window has ended reads as
// completed even before the sweep persists the transition.
func (b *Booking) EffectiveStatus(now time.Time) string {
    if b.Status == BookingStatusConfirmed && b.Window.Ended(now) {
        return BookingStatusCompleted
    }
    return b.Status
}

// Blocks reports whether the booking consumes capacity at the given
// instant.  Cancelled and completed bookings free their window.
func (b *Booking) Blocks(now time.Time) bool {
    return b.EffectiveStatus(now) == BookingStatusConfirmed
}
