package model

import (
    "testing"
    "time"
)

func win(startHour, endHour int) Window {
    day := time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC)
    return Window{
        StartAt: day.Add(time.Duration(startHour) * time.Hour),
        EndAt:   day.Add(time.Duration(endHour) * time.Hour),
    }
}

func TestWindowOverlaps(t *testing.T) {
    cases := []struct {
        name string
        a, b Window
        want bool
    }{
        {"identical", win(10, 12), win(10, 12), true},
        {"partial", win(10, 12), win(11, 13), true},
        {"contained", win(10, 14), win(11, 12), true},
        {"back to back", win(10, 12), win(12, 14), false},
        {"disjoint", win(8, 9), win(12, 14), false},
    }
    for _, tc := range cases {
        if got := tc.a.Overlaps(tc.b); got != tc.want {
            t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
        }
        // Overlap is symmetric.
        if got := tc.b.Overlaps(tc.a); got != tc.want {
            t.Errorf("%s (reversed): Overlaps = %v, want %v", tc.name, got, tc.want)
        }
    }
}

func TestBookingEffectiveStatus(t *testing.T) {
    now := time.Date(2026, 6, 17, 12, 0, 0, 0, time.UTC)
    b := &Booking{Status: BookingStatusConfirmed, Window: win(10, 12)}
    if got := b.EffectiveStatus(now); got != BookingStatusCompleted {
        t.Errorf("elapsed confirmed booking reads %q, want completed", got)
    }
    // The boundary instant counts as ended (half-open window).
    if got := b.EffectiveStatus(b.Window.EndAt); got != BookingStatusCompleted {
        t.Errorf("booking at its end instant reads %q, want completed", got)
    }
    b.Window = win(13, 14)
    if got := b.EffectiveStatus(now); got != BookingStatusConfirmed {
        t.Errorf("future confirmed booking reads %q, want confirmed", got)
    }
    cancelled := &Booking{Status: BookingStatusCancelled, Window: win(10, 12)}
    if got := cancelled.EffectiveStatus(now); got != BookingStatusCancelled {
        t.Errorf("cancelled booking reads %q, want cancelled", got)
    }
}

func TestHoldLive(t *testing.T) {
    now := time.Date(2026, 6, 17, 12, 0, 0, 0, time.UTC)
    h := &Hold{Status: HoldStatusActive, ExpiresAt: now.Add(time.Minute)}
    if !h.Live(now) {
        t.Error("active unexpired hold should be live")
    }
    // Expiry is passive: the deadline itself already counts as expired.
    h.ExpiresAt = now
    if h.Live(now) {
        t.Error("hold at its expiry instant should not be live")
    }
    h.ExpiresAt = now.Add(time.Minute)
    h.Status = HoldStatusReleased
    if h.Live(now) {
        t.Error("released hold should not be live")
    }
}
