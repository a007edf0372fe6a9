package service

import (
    "context"
    "testing"
    "time"
)

type countingSweepTargets struct {
    expiredHolds      int64
    completedBookings int64
    expiredEntries    int

    holdCalls     int
    bookingCalls  int
    waitlistCalls int
}

// Each target yields its pending work on the first call only,
// simulating status-guarded idempotent UPDATEs.
func (c *countingSweepTargets) ExpireDueHolds(ctx context.Context, now time.Time) (int64, error) {
    c.holdCalls++
    n := c.expiredHolds
    c.expiredHolds = 0
    return n, nil
}

func (c *countingSweepTargets) CompleteDue(ctx context.Context) (int64, error) {
    c.bookingCalls++
    n := c.completedBookings
    c.completedBookings = 0
    return n, nil
}

func (c *countingSweepTargets) ExpireDue(ctx context.Context) (int, error) {
    c.waitlistCalls++
    n := c.expiredEntries
    c.expiredEntries = 0
    return n, nil
}

type holdSweeperFunc func(ctx context.Context, now time.Time) (int64, error)

func (f holdSweeperFunc) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
    return f(ctx, now)
}

func TestSweepRunOnceIdempotent(t *testing.T) {
    targets := &countingSweepTargets{expiredHolds: 3, completedBookings: 2, expiredEntries: 1}
    s := NewSweep(holdSweeperFunc(targets.ExpireDueHolds), targets, targets, time.Minute, time.Nanosecond)
    clock := testNow
    s.now = func() time.Time { clock = clock.Add(time.Second); return clock }

    if !s.RunOnce(context.Background()) {
        t.Fatal("first cycle should run")
    }
    if !s.RunOnce(context.Background()) {
        t.Fatal("second cycle should run once the interval has passed")
    }
    // All pending work was consumed by the first cycle; the second found
    // nothing, so the end state is identical to running once.
    if targets.expiredHolds != 0 || targets.completedBookings != 0 || targets.expiredEntries != 0 {
        t.Fatalf("pending work left after two cycles: %+v", targets)
    }
    if targets.holdCalls != 2 || targets.bookingCalls != 2 || targets.waitlistCalls != 2 {
        t.Fatalf("each target should be swept every cycle: %+v", targets)
    }
}

func TestSweepMinIntervalGuard(t *testing.T) {
    targets := &countingSweepTargets{}
    s := NewSweep(holdSweeperFunc(targets.ExpireDueHolds), targets, targets, time.Minute, 30*time.Second)
    clock := testNow
    s.now = func() time.Time { return clock }

    if !s.RunOnce(context.Background()) {
        t.Fatal("first cycle should run")
    }
    if s.RunOnce(context.Background()) {
        t.Fatal("immediate re-trigger must be suppressed")
    }
    clock = clock.Add(10 * time.Second)
    if s.RunOnce(context.Background()) {
        t.Fatal("re-trigger inside the minimum interval must be suppressed")
    }
    clock = clock.Add(25 * time.Second)
    if !s.RunOnce(context.Background()) {
        t.Fatal("cycle should run again after the minimum interval")
    }
    if targets.holdCalls != 2 {
        t.Fatalf("hold sweeps = %d, want 2", targets.holdCalls)
    }
}

func TestSweepContinuesPastFailingStep(t *testing.T) {
    targets := &countingSweepTargets{completedBookings: 1}
    failing := holdSweeperFunc(func(ctx context.Context, now time.Time) (int64, error) {
        return 0, context.DeadlineExceeded
    })
    s := NewSweep(failing, targets, targets, time.Minute, time.Nanosecond)
    clock := testNow
    s.now = func() time.Time { return clock }

    if !s.RunOnce(context.Background()) {
        t.Fatal("cycle should run despite the failing step")
    }
    if targets.bookingCalls != 1 || targets.waitlistCalls != 1 {
        t.Fatalf("remaining steps must still run: %+v", targets)
    }
}
