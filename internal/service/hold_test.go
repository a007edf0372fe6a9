package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/repository"
)

type mockHoldStore struct {
    getByID         func(id uint64) (*model.Hold, error)
    findActiveExact func(userID uint64, refs []model.HoldResource, w model.Window) (*model.Hold, error)
    createAtomic    func(h *model.Hold) error
    extend          func(id uint64, expiresAt time.Time) error
    release         func(id uint64) error
}

func (m *mockHoldStore) GetByID(ctx context.Context, id uint64) (*model.Hold, error) {
    return m.getByID(id)
}

func (m *mockHoldStore) FindActiveExact(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window, now time.Time) (*model.Hold, error) {
    if m.findActiveExact == nil {
        return nil, nil
    }
    return m.findActiveExact(userID, refs, w)
}

func (m *mockHoldStore) CreateAtomic(ctx context.Context, h *model.Hold, now time.Time) error {
    return m.createAtomic(h)
}

func (m *mockHoldStore) Extend(ctx context.Context, id uint64, expiresAt, now time.Time) error {
    return m.extend(id, expiresAt)
}

func (m *mockHoldStore) Release(ctx context.Context, id uint64, now time.Time) error {
    return m.release(id)
}

type mockPromoter struct {
    calls []promotion
}

type promotion struct {
    refs []model.HoldResource
    w    model.Window
}

func (m *mockPromoter) PromoteFreed(ctx context.Context, refs []model.HoldResource, w model.Window) {
    m.calls = append(m.calls, promotion{refs: refs, w: w})
}

func courtCatalog() map[uint64]*model.Resource {
    return map[uint64]*model.Resource{
        1: {ID: 1, Type: model.ResourceTypeCourt, Capacity: 1, Status: model.ResourceStatusActive},
    }
}

func newHoldService(store *mockHoldStore, promoter Promoter) *HoldService {
    s := NewHoldService(store, &mockResourceStore{resources: courtCatalog()}, promoter)
    s.now = func() time.Time { return testNow }
    return s
}

func TestHoldCreateSetsTTL(t *testing.T) {
    var created *model.Hold
    store := &mockHoldStore{
        createAtomic: func(h *model.Hold) error {
            h.ID = 77
            created = h
            return nil
        },
    }
    s := newHoldService(store, nil)

    refs := []model.HoldResource{{ResourceID: 1, Quantity: 1}}
    h, isNew, err := s.Create(context.Background(), 42, refs, futureWindow(10, 11))
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !isNew {
        t.Fatal("expected a freshly created hold")
    }
    if created == nil || h.ID != 77 {
        t.Fatalf("hold not stored: %+v", h)
    }
    if h.Status != model.HoldStatusActive {
        t.Fatalf("status = %q, want active", h.Status)
    }
    if want := testNow.Add(model.HoldTTL); !h.ExpiresAt.Equal(want) {
        t.Fatalf("expires_at = %s, want %s", h.ExpiresAt, want)
    }
}

func TestHoldCreateIdempotent(t *testing.T) {
    existing := &model.Hold{
        ID:        5,
        UserID:    42,
        Window:    futureWindow(10, 11),
        Resources: []model.HoldResource{{ResourceID: 1, Quantity: 1}},
        Status:    model.HoldStatusActive,
        ExpiresAt: testNow.Add(2 * time.Minute),
    }
    store := &mockHoldStore{
        findActiveExact: func(userID uint64, refs []model.HoldResource, w model.Window) (*model.Hold, error) {
            return existing, nil
        },
        createAtomic: func(h *model.Hold) error {
            t.Fatal("CreateAtomic must not be called when a matching live hold exists")
            return nil
        },
    }
    s := newHoldService(store, nil)

    h, isNew, err := s.Create(context.Background(), 42, existing.Resources, existing.Window)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if isNew {
        t.Fatal("repeat request must not create a second hold")
    }
    if h.ID != 5 {
        t.Fatalf("got hold %d, want existing hold 5", h.ID)
    }
    if !h.ExpiresAt.Equal(existing.ExpiresAt) {
        t.Fatal("idempotent return must not refresh the TTL")
    }
}

func TestHoldCreateConflictPassesThrough(t *testing.T) {
    store := &mockHoldStore{
        createAtomic: func(h *model.Hold) error {
            return &repository.ConflictError{ResourceID: 1, Reason: "insufficient capacity"}
        },
    }
    s := newHoldService(store, nil)

    _, _, err := s.Create(context.Background(), 42, []model.HoldResource{{ResourceID: 1, Quantity: 1}}, futureWindow(10, 11))
    if !errors.Is(err, repository.ErrConflict) {
        t.Fatalf("error = %v, want conflict", err)
    }
    var ce *repository.ConflictError
    if !errors.As(err, &ce) || ce.ResourceID != 1 {
        t.Fatalf("conflict must name the blocking resource: %v", err)
    }
}

func TestHoldExtend(t *testing.T) {
    h := &model.Hold{
        ID:        5,
        UserID:    42,
        Status:    model.HoldStatusActive,
        ExpiresAt: testNow.Add(time.Minute),
    }
    var gotExpiry time.Time
    store := &mockHoldStore{
        getByID: func(id uint64) (*model.Hold, error) { return h, nil },
        extend: func(id uint64, expiresAt time.Time) error {
            gotExpiry = expiresAt
            return nil
        },
    }
    s := newHoldService(store, nil)

    out, err := s.Extend(context.Background(), 5, 42)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    want := testNow.Add(model.HoldExtendTTL)
    if !gotExpiry.Equal(want) || !out.ExpiresAt.Equal(want) {
        t.Fatalf("new expiry = %s, want %s", gotExpiry, want)
    }
    if !out.Extended {
        t.Fatal("hold should be marked extended")
    }
}

func TestHoldExtendAfterExpiryFails(t *testing.T) {
    h := &model.Hold{
        ID:        5,
        UserID:    42,
        Status:    model.HoldStatusActive,
        ExpiresAt: testNow.Add(-time.Second),
    }
    store := &mockHoldStore{
        getByID: func(id uint64) (*model.Hold, error) { return h, nil },
        extend: func(id uint64, expiresAt time.Time) error {
            t.Fatal("an expired hold must never be extended")
            return nil
        },
    }
    s := newHoldService(store, nil)

    _, err := s.Extend(context.Background(), 5, 42)
    if !errors.Is(err, repository.ErrConflict) {
        t.Fatalf("error = %v, want conflict", err)
    }
}

func TestHoldOwnershipEnforced(t *testing.T) {
    h := &model.Hold{ID: 5, UserID: 42, Status: model.HoldStatusActive, ExpiresAt: testNow.Add(time.Minute)}
    store := &mockHoldStore{
        getByID: func(id uint64) (*model.Hold, error) { return h, nil },
        extend: func(id uint64, expiresAt time.Time) error {
            t.Fatal("store must not be touched for a foreign hold")
            return nil
        },
        release: func(id uint64) error {
            t.Fatal("store must not be touched for a foreign hold")
            return nil
        },
    }
    s := newHoldService(store, nil)

    if _, err := s.Extend(context.Background(), 5, 7); !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("extend error = %v, want forbidden", err)
    }
    if err := s.Release(context.Background(), 5, 7); !errors.Is(err, repository.ErrForbidden) {
        t.Fatalf("release error = %v, want forbidden", err)
    }
}

func TestHoldExpiresIn(t *testing.T) {
    s := newHoldService(&mockHoldStore{}, nil)

    h := &model.Hold{ExpiresAt: testNow.Add(90 * time.Second)}
    if got := s.ExpiresIn(h); got != 90 {
        t.Fatalf("expires_in = %d, want 90", got)
    }
    h.ExpiresAt = testNow.Add(-time.Second)
    if got := s.ExpiresIn(h); got != 0 {
        t.Fatalf("expired hold expires_in = %d, want 0", got)
    }
}

func TestHoldReleasePromotesWaitlist(t *testing.T) {
    h := &model.Hold{
        ID:        5,
        UserID:    42,
        Window:    futureWindow(10, 11),
        Resources: []model.HoldResource{{ResourceID: 1, Quantity: 1}},
        Status:    model.HoldStatusActive,
        ExpiresAt: testNow.Add(time.Minute),
    }
    released := false
    store := &mockHoldStore{
        getByID: func(id uint64) (*model.Hold, error) { return h, nil },
        release: func(id uint64) error {
            released = true
            return nil
        },
    }
    promoter := &mockPromoter{}
    s := newHoldService(store, promoter)

    if err := s.Release(context.Background(), 5, 42); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !released {
        t.Fatal("hold was not released")
    }
    if len(promoter.calls) != 1 {
        t.Fatalf("promoter called %d times, want 1", len(promoter.calls))
    }
    if got := promoter.calls[0]; got.refs[0].ResourceID != 1 || !got.w.StartAt.Equal(h.Window.StartAt) {
        t.Fatalf("promotion got %+v, want freed hold window", got)
    }
}
