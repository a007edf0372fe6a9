package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/repository"
)

// Mock stores for availability tests.

type mockResourceStore struct {
    resources map[uint64]*model.Resource
}

func (m *mockResourceStore) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
    if r, ok := m.resources[id]; ok {
        return r, nil
    }
    return nil, repository.ErrNotFound
}

func (m *mockResourceStore) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Resource, error) {
    out := make(map[uint64]*model.Resource)
    for _, id := range ids {
        if r, ok := m.resources[id]; ok {
            out[id] = r
        }
    }
    return out, nil
}

type mockHeldStore struct {
    quantitiesFunc func(resourceIDs []uint64, w model.Window, excludeUserID uint64) (map[uint64]uint32, error)
    intervals      []repository.QuantityInterval
}

func (m *mockHeldStore) HeldQuantities(ctx context.Context, resourceIDs []uint64, w model.Window, excludeUserID uint64, now time.Time) (map[uint64]uint32, error) {
    if m.quantitiesFunc != nil {
        return m.quantitiesFunc(resourceIDs, w, excludeUserID)
    }
    return map[uint64]uint32{}, nil
}

func (m *mockHeldStore) HeldIntervals(ctx context.Context, resourceID uint64, w model.Window, now time.Time) ([]repository.QuantityInterval, error) {
    return m.intervals, nil
}

type mockBookedStore struct {
    quantities map[uint64]uint32
    intervals  []repository.QuantityInterval
}

func (m *mockBookedStore) BookedQuantities(ctx context.Context, resourceIDs []uint64, w model.Window) (map[uint64]uint32, error) {
    if m.quantities == nil {
        return map[uint64]uint32{}, nil
    }
    return m.quantities, nil
}

func (m *mockBookedStore) BookedIntervals(ctx context.Context, resourceID uint64, w model.Window) ([]repository.QuantityInterval, error) {
    return m.intervals, nil
}

var testNow = time.Date(2026, 6, 17, 12, 0, 0, 0, time.UTC)

func futureWindow(startHour, endHour int) model.Window {
    day := time.Date(2026, 6, 18, 0, 0, 0, 0, time.UTC)
    return model.Window{
        StartAt: day.Add(time.Duration(startHour) * time.Hour),
        EndAt:   day.Add(time.Duration(endHour) * time.Hour),
    }
}

func newAvailability(resources map[uint64]*model.Resource, held *mockHeldStore, booked *mockBookedStore) *AvailabilityService {
    s := NewAvailabilityService(&mockResourceStore{resources: resources}, held, booked, 6, 23)
    s.now = func() time.Time { return testNow }
    return s
}

func TestCheckEquipmentCapacity(t *testing.T) {
    resources := map[uint64]*model.Resource{
        10: {ID: 10, Type: model.ResourceTypeEquipment, Capacity: 5, Status: model.ResourceStatusActive},
    }
    held := &mockHeldStore{quantitiesFunc: func(ids []uint64, w model.Window, exclude uint64) (map[uint64]uint32, error) {
        return map[uint64]uint32{10: 1}, nil
    }}
    booked := &mockBookedStore{quantities: map[uint64]uint32{10: 2}}
    s := newAvailability(resources, held, booked)

    w := futureWindow(10, 11)
    // 3 of 5 units reserved: a request for 3 exceeds the remaining 2.
    res, err := s.Check(context.Background(), []model.HoldResource{{ResourceID: 10, Quantity: 3}}, w, 0)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if res.Available {
        t.Fatal("request for 3 units should be blocked with only 2 remaining")
    }
    if res.BlockingResourceID != 10 || res.Reason != "insufficient capacity" {
        t.Fatalf("unexpected block: %+v", res)
    }
    // A request for 2 fits.
    res, err = s.Check(context.Background(), []model.HoldResource{{ResourceID: 10, Quantity: 2}}, w, 0)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !res.Available {
        t.Fatalf("request for 2 units should succeed, got %+v", res)
    }
}

func TestCheckMaintenanceBlocks(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusMaintenance},
    }
    s := newAvailability(resources, &mockHeldStore{}, &mockBookedStore{})
    res, err := s.Check(context.Background(), []model.HoldResource{{ResourceID: 1, Quantity: 1}}, futureWindow(10, 11), 0)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if res.Available || res.BlockingResourceID != 1 {
        t.Fatalf("maintenance resource should block, got %+v", res)
    }
}

func TestCheckReportsFirstBlockingResource(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
        2: {ID: 2, Type: model.ResourceTypeCoach, Capacity: 1, Status: model.ResourceStatusActive},
        3: {ID: 3, Type: model.ResourceTypeEquipment, Capacity: 4, Status: model.ResourceStatusActive},
    }
    held := &mockHeldStore{quantitiesFunc: func(ids []uint64, w model.Window, exclude uint64) (map[uint64]uint32, error) {
        // The coach and the equipment pool are both fully reserved.
        return map[uint64]uint32{2: 1, 3: 4}, nil
    }}
    s := newAvailability(resources, held, &mockBookedStore{})
    refs := []model.HoldResource{
        {ResourceID: 1, Quantity: 1},
        {ResourceID: 2, Quantity: 1},
        {ResourceID: 3, Quantity: 2},
    }
    res, err := s.Check(context.Background(), refs, futureWindow(10, 11), 0)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if res.Available {
        t.Fatal("request should be blocked")
    }
    if res.BlockingResourceID != 2 {
        t.Fatalf("first blocking resource = %d, want 2 (request order)", res.BlockingResourceID)
    }
}

func TestCheckExcludesCallersOwnHolds(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
    }
    held := &mockHeldStore{quantitiesFunc: func(ids []uint64, w model.Window, exclude uint64) (map[uint64]uint32, error) {
        if exclude == 42 {
            return map[uint64]uint32{}, nil // the only hold belongs to user 42
        }
        return map[uint64]uint32{1: 1}, nil
    }}
    s := newAvailability(resources, held, &mockBookedStore{})
    refs := []model.HoldResource{{ResourceID: 1, Quantity: 1}}
    w := futureWindow(10, 11)

    res, err := s.Check(context.Background(), refs, w, 42)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !res.Available {
        t.Fatal("user 42's own hold should not block their re-check")
    }
    res, err = s.Check(context.Background(), refs, w, 7)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if res.Available {
        t.Fatal("another user's hold should block user 7")
    }
}

func TestCheckValidation(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
    }
    s := newAvailability(resources, &mockHeldStore{}, &mockBookedStore{})
    refs := []model.HoldResource{{ResourceID: 1, Quantity: 1}}

    cases := []struct {
        name string
        refs []model.HoldResource
        w    model.Window
    }{
        {"past start", refs, model.Window{StartAt: testNow.Add(-time.Hour), EndAt: testNow.Add(time.Hour)}},
        {"inverted window", refs, model.Window{StartAt: testNow.Add(2 * time.Hour), EndAt: testNow.Add(time.Hour)}},
        {"no resources", nil, futureWindow(10, 11)},
        {"zero quantity", []model.HoldResource{{ResourceID: 1, Quantity: 0}}, futureWindow(10, 11)},
        {"unknown resource", []model.HoldResource{{ResourceID: 99, Quantity: 1}}, futureWindow(10, 11)},
    }
    for _, tc := range cases {
        _, err := s.Check(context.Background(), tc.refs, tc.w, 0)
        var verr *ValidationError
        if !errors.As(err, &verr) {
            t.Errorf("%s: error = %v, want ValidationError", tc.name, err)
        }
    }
}

func TestDaySlots(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
    }
    day := time.Date(2026, 6, 18, 0, 0, 0, 0, time.UTC)
    held := &mockHeldStore{intervals: []repository.QuantityInterval{
        {Window: model.Window{StartAt: day.Add(10 * time.Hour), EndAt: day.Add(12 * time.Hour)}, Quantity: 1},
    }}
    booked := &mockBookedStore{intervals: []repository.QuantityInterval{
        {Window: model.Window{StartAt: day.Add(15 * time.Hour), EndAt: day.Add(16 * time.Hour)}, Quantity: 1},
    }}
    s := newAvailability(resources, held, booked)

    slots, err := s.DaySlots(context.Background(), 1, day)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if len(slots) != 17 { // hours 06..22
        t.Fatalf("got %d slots, want 17", len(slots))
    }
    byHour := make(map[int]Slot)
    for _, slot := range slots {
        byHour[slot.StartAt.Hour()] = slot
    }
    for _, h := range []int{10, 11, 15} {
        if byHour[h].Available {
            t.Errorf("hour %d should be reserved", h)
        }
    }
    for _, h := range []int{9, 12, 16} {
        if !byHour[h].Available {
            t.Errorf("hour %d should be free: %+v", h, byHour[h])
        }
    }
}

func TestDaySlotsPastSlotsUnavailable(t *testing.T) {
    resources := map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
    }
    s := newAvailability(resources, &mockHeldStore{}, &mockBookedStore{})
    // Same day as the mock clock (12:00): morning slots have started.
    day := time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC)
    slots, err := s.DaySlots(context.Background(), 1, day)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    for _, slot := range slots {
        started := !slot.StartAt.After(testNow)
        if started && slot.Available {
            t.Errorf("slot at %s already started but reported available", slot.StartAt)
        }
        if !started && !slot.Available {
            t.Errorf("future slot at %s should be available", slot.StartAt)
        }
    }
}
