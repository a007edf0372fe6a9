package model

import "time"

// Waitlist entry statuses.  Expired and converted are terminal; an entry
// never transitions out of them.  Notified marks queue-position
// bookkeeping when a covering slot frees up.
const (
    WaitlistStatusWaiting   = "waiting"
    WaitlistStatusNotified  = "notified"
    WaitlistStatusExpired   = "expired"
    WaitlistStatusConverted = "converted"
)

// WaitlistPrefs captures what the user would book if the slot frees up:
// optional equipment quantities and an optional coach.  Stored as a JSON
// column and echoed back in notifications.
type WaitlistPrefs struct {
    Equipment []HoldResource `json:"equipment,omitempty"`
    CoachID   uint64         `json:"coach_id,omitempty"`
}

// WaitlistEntry is one user's place in the FIFO queue for a resource
// and desired window.  Positions are monotonically assigned in join
// order and never reused, so position numbers keep their meaning even
// after earlier entries expire.  Entries expire passively once the
// desired window has fully passed.
//
// Fields:
//  ID         - primary key identifier.
//  UserID     - queued user.
//  ResourceID - resource the user is waiting for.
//  Window     - desired time window.
//  Prefs      - equipment/coach preferences (JSON column).
//  Position   - 1-based queue position, unique per (resource, window).
//  Status     - waiting, notified, expired or converted.
//  NotifiedAt - when the entry was promoted to notified, if ever.
//  ExpiresAt  - end of the desired window; the entry is dead past it.
type WaitlistEntry struct {
    ID         uint64        // waitlist_entries.id
    UserID     uint64        // waitlist_entries.user_id
    ResourceID uint64        // waitlist_entries.resource_id
    Window     Window        // waitlist_entries.start_at / end_at
    Prefs      WaitlistPrefs // waitlist_entries.prefs (JSON column)
    Position   uint32        // waitlist_entries.position
    Status     string        // waitlist_entries.status
    NotifiedAt *time.Time    // waitlist_entries.notified_at (nullable)
    ExpiresAt  time.Time     // waitlist_entries.expires_at
    CreatedAt  time.Time     // waitlist_entries.created_at
}

// Terminal reports whether the entry has reached a final status.
func (e *WaitlistEntry) Terminal() bool {
    return e.Status == WaitlistStatusExpired || e.Status == WaitlistStatusConverted
}

// Live reports whether the entry still occupies a queue position at the
// given instant.  As with holds, the expiry timestamp is authoritative
// even before the sweep persists the transition.
func (e *WaitlistEntry) Live(now time.Time) bool {
    if e.Terminal() {
        return false
    }
    return e.ExpiresAt.After(now)
}
