// Package queue defines message payloads exchanged over the message
// broker, the publisher used by the serving path and the notification
// consumer.  Publishing is strictly fire-and-forget: a broker outage
// degrades notifications, never reservations.
package queue

// Queue names.  All queues are declared durable by both publisher and
// consumer.
const (
    BookingConfirmedQueue      = "booking.confirmed"
    WaitlistExpiredQueue       = "waitlist.expired"
    WaitlistSlotAvailableQueue = "waitlist.slot_available"
)

// BookedResourceLine is one reserved resource inside a booking event.
type BookedResourceLine struct {
    ResourceID uint64 `json:"resource_id"`
    Name       string `json:"name"`
    Quantity   uint32 `json:"quantity"`
    FeeCents   int64  `json:"fee_cents"`
}

// BookingConfirmedEvent is published when a booking is successfully
// confirmed.  It carries enough information for downstream consumers to
// notify the user or feed analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID   uint64               `json:"booking_id"`
    UserID      uint64               `json:"user_id"`
    Resources   []BookedResourceLine `json:"resources"`
    StartsAt    string               `json:"starts_at"`
    EndsAt      string               `json:"ends_at"`
    TotalCents  int64                `json:"total_cents"`
    ConfirmedAt string               `json:"confirmed_at"`
}

// WaitlistExpiredEvent is published at most once per entry when the
// sweep expires a waitlist entry whose desired window has passed.
type WaitlistExpiredEvent struct {
    EntryID      uint64 `json:"entry_id"`
    UserID       uint64 `json:"user_id"`
    ResourceID   uint64 `json:"resource_id"`
    Position     uint32 `json:"position"`
    DesiredStart string `json:"desired_start"`
    DesiredEnd   string `json:"desired_end"`
    ExpiredAt    string `json:"expired_at"`
}

// WaitlistSlotAvailableEvent is published when a freed slot promotes a
// waiting entry to notified.
type WaitlistSlotAvailableEvent struct {
    EntryID      uint64 `json:"entry_id"`
    UserID       uint64 `json:"user_id"`
    ResourceID   uint64 `json:"resource_id"`
    Position     uint32 `json:"position"`
    DesiredStart string `json:"desired_start"`
    DesiredEnd   string `json:"desired_end"`
    NotifiedAt   string `json:"notified_at"`
}
