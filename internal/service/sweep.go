package service

import (
    "context"
    "log"
    "sync"
    "time"
)

// HoldSweeper persists the expired status on overdue holds.
type HoldSweeper interface {
    ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// BookingCompleter persists the completed status on elapsed bookings.
type BookingCompleter interface {
    CompleteDue(ctx context.Context) (int64, error)
}

// WaitlistExpirer expires overdue waitlist entries and notifies them.
type WaitlistExpirer interface {
    ExpireDue(ctx context.Context) (int, error)
}

// Sweep is the background reconciliation pass: it ages out expired
// holds and waitlist entries and completes elapsed bookings.  The sweep
// is cosmetic cleanup, not a correctness mechanism; every read path
// already filters on expires_at, so nothing breaks if a cycle is late
// or fails.  One Sweep runs per process, on a ticker, and a minimum
// interval guard keeps overlapping triggers (or an over-eager caller)
// from producing redundant concurrent passes.
type Sweep struct {
    holds    HoldSweeper
    bookings BookingCompleter
    waitlist WaitlistExpirer

    interval    time.Duration
    minInterval time.Duration

    mu      sync.Mutex
    lastRun time.Time
    now     func() time.Time
}

// NewSweep constructs a Sweep.  interval is the ticker period;
// minInterval is the floor between two effective passes regardless of
// how often RunOnce is invoked.
func NewSweep(holds HoldSweeper, bookings BookingCompleter, waitlist WaitlistExpirer, interval, minInterval time.Duration) *Sweep {
    if interval <= 0 {
        interval = time.Minute
    }
    if minInterval <= 0 {
        minInterval = 30 * time.Second
    }
    return &Sweep{
        holds:       holds,
        bookings:    bookings,
        waitlist:    waitlist,
        interval:    interval,
        minInterval: minInterval,
        now:         time.Now,
    }
}

// Run executes sweep cycles until the context is cancelled.  Intended
// to be started once from main in its own goroutine.
func (s *Sweep) Run(ctx context.Context) {
    ticker := time.NewTicker(s.interval)
    defer ticker.Stop()
    for {
        select {
        case <-ctx.Done():
            return
        case <-ticker.C:
            s.RunOnce(ctx)
        }
    }
}

// RunOnce performs a single sweep cycle, honouring the minimum
// interval.  It returns true when a cycle actually ran.  Every step is
// idempotent, so running twice in a row yields the same state as once;
// step failures are logged and retried on the next cycle without
// aborting the remaining steps.
func (s *Sweep) RunOnce(ctx context.Context) bool {
    s.mu.Lock()
    now := s.now().UTC()
    if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.minInterval {
        s.mu.Unlock()
        return false
    }
    s.lastRun = now
    s.mu.Unlock()

    if s.holds != nil {
        if n, err := s.holds.ExpireDue(ctx, now); err != nil {
            log.Printf("sweep: expire holds failed: %v", err)
        } else if n > 0 {
            log.Printf("sweep: expired %d holds", n)
        }
    }
    if s.waitlist != nil {
        if n, err := s.waitlist.ExpireDue(ctx); err != nil {
            log.Printf("sweep: expire waitlist entries failed: %v", err)
        } else if n > 0 {
            log.Printf("sweep: expired %d waitlist entries", n)
        }
    }
    if s.bookings != nil {
        if n, err := s.bookings.CompleteDue(ctx); err != nil {
            log.Printf("sweep: complete bookings failed: %v", err)
        } else if n > 0 {
            log.Printf("sweep: completed %d bookings", n)
        }
    }
    return true
}
