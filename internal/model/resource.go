package model

import "time"

// Resource types.  Courts and coaches have capacity 1; equipment is
// tracked as a pooled quantity with capacity N.
const (
    ResourceTypeCourt     = "court"
    ResourceTypeCoach     = "coach"
    ResourceTypeEquipment = "equipment"
)

// Court subtypes used by court-type pricing rules.
const (
    CourtTypeIndoor  = "indoor"
    CourtTypeOutdoor = "outdoor"
)

// Resource statuses.  Only active resources may be held or booked;
// maintenance and disabled resources are reported as blocked.
const (
    ResourceStatusActive      = "active"
    ResourceStatusMaintenance = "maintenance"
    ResourceStatusDisabled    = "disabled"
)

// Resource is a bookable item from the catalog: a court, a coach or a
// pooled equipment type.  The catalog is owned by an external service;
// this engine reads it and never writes to it.
//
// Fields:
//  ID            - primary key identifier.
//  Name          - human readable name, e.g. "Court 3" or "Pro Rackets".
//  Type          - one of court, coach, equipment.
//  CourtType     - indoor/outdoor, set only when Type is court.
//  Capacity      - concurrent units available (1 for court/coach).
//  BaseRateCents - hourly base rate in cents before pricing rules.
//  Status        - active, maintenance or disabled.
type Resource struct {
    ID            uint64    // resources.id
    Name          string    // resources.name
    Type          string    // resources.type
    CourtType     string    // resources.court_type (empty unless court)
    Capacity      uint32    // resources.capacity
    BaseRateCents int64     // resources.base_rate_cents
    Status        string    // resources.status
    CreatedAt     time.Time // resources.created_at
    UpdatedAt     time.Time // resources.updated_at
}

// Bookable reports whether the resource can accept new holds or
// bookings.  Maintenance and disabled resources are excluded.
func (r *Resource) Bookable() bool {
    return r.Status == ResourceStatusActive
}

// PricingType returns the value matched by court-type pricing rules:
// the court subtype for courts, otherwise the resource type itself.
func (r *Resource) PricingType() string {
    if r.Type == ResourceTypeCourt && r.CourtType != "" {
        return r.CourtType
    }
    return r.Type
}
