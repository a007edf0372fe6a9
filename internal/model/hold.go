package model

import "time"

// Hold statuses.  A hold leaves active exactly once: released by its
// owner, expired by the clock, or converted into a booking (which
// records it as released).
const (
    HoldStatusActive   = "active"
    HoldStatusReleased = "released"
    HoldStatusExpired  = "expired"
)

// Default hold lifetimes.  A fresh hold lives five minutes; a single
// extension resets the clock to three minutes from the moment of the
// extension call.
const (
    HoldTTL       = 5 * time.Minute
    HoldExtendTTL = 3 * time.Minute
)

// HoldResource is one line of a hold: a resource and the quantity
// claimed from its capacity.  Courts and coaches always carry
// quantity 1; equipment may claim several units.
type HoldResource struct {
    ResourceID uint64 `json:"resource_id"` // hold_resources.resource_id
    Quantity   uint32 `json:"quantity"`    // hold_resources.quantity
}

// Hold is a short-lived exclusive claim on one or more resources over a
// window, taken while a user walks through checkout.  Expiry is passive:
// any reader must treat ExpiresAt <= now as expired regardless of the
// stored status, and the background sweep later persists the transition.
//
// Fields:
//  ID        - primary key identifier.
//  UserID    - owning user; only the owner may extend or release.
//  Window    - the claimed time window.
//  Resources - resource refs with claimed quantities.
//  Status    - active, released or expired.
//  ExpiresAt - instant after which the hold no longer blocks anyone.
//  Extended  - whether the single allowed extension was used.
type Hold struct {
    ID        uint64         // holds.id
    UserID    uint64         // holds.user_id
    Window    Window         // holds.start_at / holds.end_at
    Resources []HoldResource // hold_resources rows
    Status    string         // holds.status
    ExpiresAt time.Time      // holds.expires_at
    Extended  bool           // holds.extended
    CreatedAt time.Time      // holds.created_at
    UpdatedAt time.Time      // holds.updated_at
}

// Live reports whether the hold still blocks availability at the given
// instant.  The stored status alone is not authoritative because the
// sweep may lag; the expiry timestamp always wins.
func (h *Hold) Live(now time.Time) bool {
    return h.Status == HoldStatusActive && h.ExpiresAt.After(now)
}

// SameRequest reports whether the hold covers exactly the given window
// and resource set.  Used for idempotent hold creation: re-requesting an
// identical hold returns the existing one instead of conflicting with
// it.  Resource order is not significant.
func (h *Hold) SameRequest(refs []HoldResource, w Window) bool {
    if !h.Window.StartAt.Equal(w.StartAt) || !h.Window.EndAt.Equal(w.EndAt) {
        return false
    }
    if len(h.Resources) != len(refs) {
        return false
    }
    want := make(map[uint64]uint32, len(refs))
    for _, ref := range refs {
        want[ref.ResourceID] += ref.Quantity
    }
    for _, ref := range h.Resources {
        q, ok := want[ref.ResourceID]
        if !ok || q != ref.Quantity {
            return false
        }
        delete(want, ref.ResourceID)
    }
    return len(want) == 0
}
