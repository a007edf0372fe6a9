package service

import (
    "context"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/repository"
)

// HoldStore persists holds.  CreateAtomic must perform the
// availability re-check and the insert as one linearizable unit; see
// repository.HoldRepo.
type HoldStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Hold, error)
    FindActiveExact(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window, now time.Time) (*model.Hold, error)
    CreateAtomic(ctx context.Context, h *model.Hold, now time.Time) error
    Extend(ctx context.Context, id uint64, expiresAt, now time.Time) error
    Release(ctx context.Context, id uint64, now time.Time) error
}

// Promoter is notified when a hold or booking frees a resource window,
// so the waitlist can promote a waiting entry.  Implemented by
// WaitlistService; a nil Promoter disables promotion.
type Promoter interface {
    PromoteFreed(ctx context.Context, refs []model.HoldResource, w model.Window)
}

// HoldService manages the short-lived exclusive claims taken during
// checkout.  Creation is idempotent per (user, resource set, window);
// extension and release are owner-only.
type HoldService struct {
    holds     HoldStore
    resources ResourceStore
    promoter  Promoter
    now       func() time.Time
}

// NewHoldService constructs a HoldService.  promoter may be nil when
// waitlist promotion is not wired in.
func NewHoldService(holds HoldStore, resources ResourceStore, promoter Promoter) *HoldService {
    return &HoldService{holds: holds, resources: resources, promoter: promoter, now: time.Now}
}

// Create places a hold on the requested resources over the window.
// If the caller already owns a live hold for the exact same request it
// is returned unchanged with created=false, so blind retries are safe.
// Otherwise the hold is inserted through the store's atomic
// check-and-write; losers of a capacity race receive a ConflictError
// naming the blocking resource.
func (s *HoldService) Create(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window) (hold *model.Hold, created bool, err error) {
    now := s.now().UTC()
    w = w.UTC()
    refs, err = normalizeRefs(refs)
    if err != nil {
        return nil, false, err
    }
    if err := validateFutureWindow(w, now); err != nil {
        return nil, false, err
    }
    ids := make([]uint64, 0, len(refs))
    for _, ref := range refs {
        ids = append(ids, ref.ResourceID)
    }
    resources, err := s.resources.GetByIDs(ctx, ids)
    if err != nil {
        return nil, false, err
    }
    for _, ref := range refs {
        if _, ok := resources[ref.ResourceID]; !ok {
            return nil, false, validationf("unknown resource %d", ref.ResourceID)
        }
    }

    if existing, err := s.holds.FindActiveExact(ctx, userID, refs, w, now); err != nil {
        return nil, false, err
    } else if existing != nil {
        return existing, false, nil
    }

    h := &model.Hold{
        UserID:    userID,
        Window:    w,
        Resources: refs,
        Status:    model.HoldStatusActive,
        ExpiresAt: now.Add(model.HoldTTL),
    }
    if err := s.holds.CreateAtomic(ctx, h, now); err != nil {
        return nil, false, err
    }
    return h, true, nil
}

// Extend resets the hold's expiry to three minutes from now.  Only the
// owner may extend, only while the hold is still live, and only once;
// an expired hold is never resurrected.
func (s *HoldService) Extend(ctx context.Context, holdID, userID uint64) (*model.Hold, error) {
    h, err := s.holds.GetByID(ctx, holdID)
    if err != nil {
        return nil, err
    }
    if h.UserID != userID {
        return nil, repository.ErrForbidden
    }
    now := s.now().UTC()
    if !h.Live(now) {
        return nil, &repository.ConflictError{Reason: "hold has expired"}
    }
    expiresAt := now.Add(model.HoldExtendTTL)
    if err := s.holds.Extend(ctx, holdID, expiresAt, now); err != nil {
        return nil, err
    }
    h.ExpiresAt = expiresAt
    h.Extended = true
    h.UpdatedAt = now
    return h, nil
}

// Release ends the hold immediately and irreversibly, freeing its
// window for other users and triggering waitlist promotion on the
// freed resources.
func (s *HoldService) Release(ctx context.Context, holdID, userID uint64) error {
    h, err := s.holds.GetByID(ctx, holdID)
    if err != nil {
        return err
    }
    if h.UserID != userID {
        return repository.ErrForbidden
    }
    now := s.now().UTC()
    if err := s.holds.Release(ctx, holdID, now); err != nil {
        return err
    }
    if s.promoter != nil {
        s.promoter.PromoteFreed(ctx, h.Resources, h.Window)
    }
    return nil
}

// ExpiresIn converts a hold's remaining lifetime to whole seconds for
// API responses, clamped at zero.
func (s *HoldService) ExpiresIn(h *model.Hold) int64 {
    secs := int64(h.ExpiresAt.Sub(s.now()) / time.Second)
    if secs < 0 {
        secs = 0
    }
    return secs
}
