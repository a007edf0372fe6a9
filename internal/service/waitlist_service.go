package service

import (
    "context"
    "log"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/queue"
)

// WaitlistStore persists waitlist entries.  JoinAtomic must assign the
// queue position inside the same transaction as the insert; the Mark*
// transitions must be guarded by status so each happens at most once.
type WaitlistStore interface {
    JoinAtomic(ctx context.Context, e *model.WaitlistEntry, now time.Time) error
    ListByUser(ctx context.Context, userID uint64, status string) ([]*model.WaitlistEntry, error)
    ListDueWaiting(ctx context.Context, now time.Time) ([]*model.WaitlistEntry, error)
    FirstWaitingOverlapping(ctx context.Context, resourceID uint64, w model.Window, now time.Time) (*model.WaitlistEntry, error)
    FindConvertible(ctx context.Context, userID, resourceID uint64, w model.Window) (*model.WaitlistEntry, error)
    MarkExpired(ctx context.Context, id uint64, now time.Time) (bool, error)
    MarkNotified(ctx context.Context, id uint64, now time.Time) (bool, error)
    MarkConverted(ctx context.Context, id uint64, now time.Time) (bool, error)
}

// WaitlistService maintains the FIFO queue of users waiting for an
// unavailable slot, expires entries whose window has passed and
// promotes entries when a covering slot frees up.
type WaitlistService struct {
    entries   WaitlistStore
    resources ResourceStore
    events    EventPublisher // may be nil
    now       func() time.Time
}

// NewWaitlistService constructs a WaitlistService.  events may be nil
// when notifications are not wired in.
func NewWaitlistService(entries WaitlistStore, resources ResourceStore, events EventPublisher) *WaitlistService {
    return &WaitlistService{entries: entries, resources: resources, events: events, now: time.Now}
}

// Join appends the user to the queue for (resource, desired window).
// The position is assigned under the store's transactional guarantee,
// so concurrent joins get distinct, monotonically increasing positions.
// The entry expires passively when the desired window ends.
func (s *WaitlistService) Join(ctx context.Context, userID, resourceID uint64, w model.Window, prefs model.WaitlistPrefs) (*model.WaitlistEntry, error) {
    now := s.now().UTC()
    w = w.UTC()
    if resourceID == 0 {
        return nil, validationf("invalid resource id")
    }
    if err := validateFutureWindow(w, now); err != nil {
        return nil, err
    }
    if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
        return nil, err
    }
    e := &model.WaitlistEntry{
        UserID:     userID,
        ResourceID: resourceID,
        Window:     w,
        Prefs:      prefs,
        Status:     model.WaitlistStatusWaiting,
        ExpiresAt:  w.EndAt,
    }
    if err := s.entries.JoinAtomic(ctx, e, now); err != nil {
        return nil, err
    }
    return e, nil
}

// ListForUser returns the caller's entries, optionally filtered by
// status.  An unknown status value is rejected rather than silently
// matching nothing.
func (s *WaitlistService) ListForUser(ctx context.Context, userID uint64, status string) ([]*model.WaitlistEntry, error) {
    switch status {
    case "", model.WaitlistStatusWaiting, model.WaitlistStatusNotified,
        model.WaitlistStatusExpired, model.WaitlistStatusConverted:
    default:
        return nil, validationf("unknown waitlist status %q", status)
    }
    return s.entries.ListByUser(ctx, userID, status)
}

// ExpireDue transitions every waiting entry whose desired window has
// fully passed to expired and publishes one expiry notice per entry.
// The status-guarded transition decides who owns the notification, so
// re-running the sweep never re-notifies an already-expired entry.
func (s *WaitlistService) ExpireDue(ctx context.Context) (int, error) {
    now := s.now().UTC()
    due, err := s.entries.ListDueWaiting(ctx, now)
    if err != nil {
        return 0, err
    }
    expired := 0
    for _, e := range due {
        won, err := s.entries.MarkExpired(ctx, e.ID, now)
        if err != nil {
            return expired, err
        }
        if !won {
            continue // another sweep got there first
        }
        expired++
        if s.events != nil {
            ev := queue.WaitlistExpiredEvent{
                EntryID:      e.ID,
                UserID:       e.UserID,
                ResourceID:   e.ResourceID,
                Position:     e.Position,
                DesiredStart: e.Window.StartAt.UTC().Format(time.RFC3339),
                DesiredEnd:   e.Window.EndAt.UTC().Format(time.RFC3339),
                ExpiredAt:    now.Format(time.RFC3339),
            }
            if err := s.events.WaitlistExpired(ctx, ev); err != nil {
                log.Printf("waitlist: publish expiry event failed: %v", err)
            }
        }
    }
    return expired, nil
}

// PromoteFreed promotes the lowest-position waiting entry on each
// freed resource whose desired window overlaps the freed window.
// Called when a hold is released or a booking cancelled.  Promotion is
// queue bookkeeping plus a notification; it never reserves anything on
// the user's behalf.  Failures are logged and never propagate to the
// releasing operation.
func (s *WaitlistService) PromoteFreed(ctx context.Context, refs []model.HoldResource, w model.Window) {
    now := s.now().UTC()
    for _, ref := range refs {
        e, err := s.entries.FirstWaitingOverlapping(ctx, ref.ResourceID, w, now)
        if err != nil {
            log.Printf("waitlist: promotion scan for resource %d failed: %v", ref.ResourceID, err)
            continue
        }
        if e == nil {
            continue
        }
        won, err := s.entries.MarkNotified(ctx, e.ID, now)
        if err != nil {
            log.Printf("waitlist: promote entry %d failed: %v", e.ID, err)
            continue
        }
        if !won {
            continue
        }
        if s.events != nil {
            ev := queue.WaitlistSlotAvailableEvent{
                EntryID:      e.ID,
                UserID:       e.UserID,
                ResourceID:   e.ResourceID,
                Position:     e.Position,
                DesiredStart: e.Window.StartAt.UTC().Format(time.RFC3339),
                DesiredEnd:   e.Window.EndAt.UTC().Format(time.RFC3339),
                NotifiedAt:   now.Format(time.RFC3339),
            }
            if err := s.events.WaitlistSlotAvailable(ctx, ev); err != nil {
                log.Printf("waitlist: publish slot-available event failed: %v", err)
            }
        }
    }
}

// ConvertMatching marks the user's own queued entries converted when
// they book a slot they were waiting for.  Best-effort bookkeeping:
// failures are logged and never affect the booking.
func (s *WaitlistService) ConvertMatching(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window) {
    now := s.now().UTC()
    for _, ref := range refs {
        e, err := s.entries.FindConvertible(ctx, userID, ref.ResourceID, w)
        if err != nil {
            log.Printf("waitlist: conversion scan for resource %d failed: %v", ref.ResourceID, err)
            continue
        }
        if e == nil {
            continue
        }
        if _, err := s.entries.MarkConverted(ctx, e.ID, now); err != nil {
            log.Printf("waitlist: convert entry %d failed: %v", e.ID, err)
        }
    }
}
