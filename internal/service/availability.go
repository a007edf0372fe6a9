package service

import (
    "context"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/repository"
)

// ResourceStore reads the external resource catalog.
type ResourceStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Resource, error)
    GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Resource, error)
}

// HeldQuantityStore reads live hold reservations.
type HeldQuantityStore interface {
    HeldQuantities(ctx context.Context, resourceIDs []uint64, w model.Window, excludeUserID uint64, now time.Time) (map[uint64]uint32, error)
    HeldIntervals(ctx context.Context, resourceID uint64, w model.Window, now time.Time) ([]repository.QuantityInterval, error)
}

// BookedQuantityStore reads confirmed booking reservations.
type BookedQuantityStore interface {
    BookedQuantities(ctx context.Context, resourceIDs []uint64, w model.Window) (map[uint64]uint32, error)
    BookedIntervals(ctx context.Context, resourceID uint64, w model.Window) ([]repository.QuantityInterval, error)
}

// CheckResult is the outcome of an availability check.  When the
// request cannot be satisfied, BlockingResourceID names the first
// resource (in request order) that blocked it, for the user-facing
// message.
type CheckResult struct {
    Available          bool
    BlockingResourceID uint64
    Reason             string
}

// Slot is one entry of the per-day availability view.
type Slot struct {
    StartAt   time.Time `json:"start_at"`
    EndAt     time.Time `json:"end_at"`
    Available bool      `json:"available"`
    Reason    string    `json:"reason,omitempty"`
}

// AvailabilityService answers whether a resource set can be reserved
// over a window.  It reads live holds and confirmed bookings, applies
// the capacity invariant per resource, and never mutates anything.
type AvailabilityService struct {
    resources ResourceStore
    holds     HeldQuantityStore
    bookings  BookedQuantityStore
    dayStart  int // first bookable hour of the day view
    dayEnd    int // first hour past the last bookable slot
    now       func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.  dayStart
// and dayEnd bound the hourly slots of the day view, e.g. 6 and 23.
func NewAvailabilityService(resources ResourceStore, holds HeldQuantityStore, bookings BookedQuantityStore, dayStart, dayEnd int) *AvailabilityService {
    return &AvailabilityService{
        resources: resources,
        holds:     holds,
        bookings:  bookings,
        dayStart:  dayStart,
        dayEnd:    dayEnd,
        now:       time.Now,
    }
}

// normalizeRefs validates and canonicalises requested resource refs:
// quantities must be positive and duplicate resource ids are merged.
// The original request order is preserved so conflict reporting can
// name the first blocking resource.
func normalizeRefs(refs []model.HoldResource) ([]model.HoldResource, error) {
    if len(refs) == 0 {
        return nil, validationf("at least one resource is required")
    }
    merged := make([]model.HoldResource, 0, len(refs))
    index := make(map[uint64]int, len(refs))
    for _, ref := range refs {
        if ref.ResourceID == 0 {
            return nil, validationf("invalid resource id")
        }
        if ref.Quantity == 0 {
            return nil, validationf("resource %d: quantity must be positive", ref.ResourceID)
        }
        if i, ok := index[ref.ResourceID]; ok {
            merged[i].Quantity += ref.Quantity
            continue
        }
        index[ref.ResourceID] = len(merged)
        merged = append(merged, ref)
    }
    return merged, nil
}

// validateFutureWindow rejects windows that are not well formed or have
// already started.  Reservations are only ever taken for the future.
func validateFutureWindow(w model.Window, now time.Time) error {
    if !w.WellFormed() {
        return validationf("window start must be before window end")
    }
    if w.Started(now) {
        return validationf("window start must be in the future")
    }
    return nil
}

// Check determines whether every requested resource has enough free
// capacity over the window.  Holds owned by excludeUserID (0 = none)
// are ignored so a user's own pending hold never blocks their re-check.
// A multi-resource request succeeds only if every sub-resource does;
// the first failure in request order is reported.
func (s *AvailabilityService) Check(ctx context.Context, refs []model.HoldResource, w model.Window, excludeUserID uint64) (CheckResult, error) {
    now := s.now().UTC()
    w = w.UTC()
    refs, err := normalizeRefs(refs)
    if err != nil {
        return CheckResult{}, err
    }
    if err := validateFutureWindow(w, now); err != nil {
        return CheckResult{}, err
    }

    ids := make([]uint64, 0, len(refs))
    for _, ref := range refs {
        ids = append(ids, ref.ResourceID)
    }
    resources, err := s.resources.GetByIDs(ctx, ids)
    if err != nil {
        return CheckResult{}, err
    }
    for _, ref := range refs {
        if _, ok := resources[ref.ResourceID]; !ok {
            return CheckResult{}, validationf("unknown resource %d", ref.ResourceID)
        }
    }

    held, err := s.holds.HeldQuantities(ctx, ids, w, excludeUserID, now)
    if err != nil {
        return CheckResult{}, err
    }
    booked, err := s.bookings.BookedQuantities(ctx, ids, w)
    if err != nil {
        return CheckResult{}, err
    }

    for _, ref := range refs {
        res := resources[ref.ResourceID]
        if !res.Bookable() {
            return CheckResult{BlockingResourceID: ref.ResourceID, Reason: "resource " + res.Status}, nil
        }
        reserved := held[ref.ResourceID] + booked[ref.ResourceID]
        if res.Capacity < reserved+ref.Quantity {
            return CheckResult{BlockingResourceID: ref.ResourceID, Reason: "insufficient capacity"}, nil
        }
    }
    return CheckResult{Available: true}, nil
}

// DaySlots returns the hourly availability of a single resource for a
// calendar day.  Live holds and confirmed bookings for the day are
// fetched once and per-slot state is derived in memory.  Slots whose
// start has already passed are reported unavailable.
func (s *AvailabilityService) DaySlots(ctx context.Context, resourceID uint64, day time.Time) ([]Slot, error) {
    now := s.now().UTC()
    res, err := s.resources.GetByID(ctx, resourceID)
    if err != nil {
        return nil, err
    }

    base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
    dayWindow := model.Window{
        StartAt: base.Add(time.Duration(s.dayStart) * time.Hour),
        EndAt:   base.Add(time.Duration(s.dayEnd) * time.Hour),
    }
    held, err := s.holds.HeldIntervals(ctx, resourceID, dayWindow, now)
    if err != nil {
        return nil, err
    }
    booked, err := s.bookings.BookedIntervals(ctx, resourceID, dayWindow)
    if err != nil {
        return nil, err
    }

    slots := make([]Slot, 0, s.dayEnd-s.dayStart)
    for h := s.dayStart; h < s.dayEnd; h++ {
        sw := model.Window{
            StartAt: base.Add(time.Duration(h) * time.Hour),
            EndAt:   base.Add(time.Duration(h+1) * time.Hour),
        }
        slot := Slot{StartAt: sw.StartAt, EndAt: sw.EndAt}
        switch {
        case !res.Bookable():
            slot.Reason = "resource " + res.Status
        case sw.Started(now):
            slot.Reason = "slot already started"
        default:
            reserved := sumOverlapping(held, sw) + sumOverlapping(booked, sw)
            if res.Capacity > reserved {
                slot.Available = true
            } else {
                slot.Reason = "fully reserved"
            }
        }
        slots = append(slots, slot)
    }
    return slots, nil
}

func sumOverlapping(intervals []repository.QuantityInterval, w model.Window) uint32 {
    var total uint32
    for _, qi := range intervals {
        if qi.Window.Overlaps(w) {
            total += qi.Quantity
        }
    }
    return total
}
