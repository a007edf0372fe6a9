package service

import (
    "context"
    "log"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
    "github.com/matchpoint/court-reservation/internal/queue"
    "github.com/matchpoint/court-reservation/internal/repository"
)

// BookingStore persists bookings.  CreateFromHold and CreateAtomic
// must commit the booking insert and the claim transfer (or capacity
// re-check) as one transaction; see repository.BookingRepo.
type BookingStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Booking, error)
    ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error)
    CreateFromHold(ctx context.Context, b *model.Booking, holdID uint64, now time.Time) error
    CreateAtomic(ctx context.Context, b *model.Booking, now time.Time) error
    Cancel(ctx context.Context, id uint64, now time.Time) error
    CompleteDue(ctx context.Context, now time.Time) (int64, error)
}

// EventPublisher delivers fire-and-forget notification events.
// Implemented by queue.Publisher; a nil publisher disables events.
type EventPublisher interface {
    BookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
    WaitlistExpired(ctx context.Context, ev queue.WaitlistExpiredEvent) error
    WaitlistSlotAvailable(ctx context.Context, ev queue.WaitlistSlotAvailableEvent) error
}

// Converter records waitlist conversions when a queued user books the
// slot they were waiting for.  Implemented by WaitlistService.
type Converter interface {
    ConvertMatching(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window)
}

// BookingService confirms and cancels bookings.  Confirmation freezes a
// pricing snapshot; cancellation frees the window and hands it to the
// waitlist.
type BookingService struct {
    bookings  BookingStore
    holds     HoldStore
    pricing   *PricingService
    promoter  Promoter  // may be nil
    converter Converter // may be nil
    events    EventPublisher
    now       func() time.Time
}

// NewBookingService constructs a BookingService.  promoter, converter
// and events may be nil when the corresponding collaborator is not
// wired in.
func NewBookingService(bookings BookingStore, holds HoldStore, pricing *PricingService, promoter Promoter, converter Converter, events EventPublisher) *BookingService {
    return &BookingService{
        bookings:  bookings,
        holds:     holds,
        pricing:   pricing,
        promoter:  promoter,
        converter: converter,
        events:    events,
        now:       time.Now,
    }
}

// ConfirmFromHold converts the caller's live hold into a confirmed
// booking.  The pricing snapshot is computed from the hold's window and
// resources, then the store commits the booking insert and the hold
// release together.  The confirmation event is published after the
// commit; a broker failure is logged and never rolls anything back.
func (s *BookingService) ConfirmFromHold(ctx context.Context, userID, holdID uint64) (*model.Booking, error) {
    h, err := s.holds.GetByID(ctx, holdID)
    if err != nil {
        return nil, err
    }
    if h.UserID != userID {
        return nil, repository.ErrForbidden
    }
    now := s.now().UTC()
    if !h.Live(now) {
        return nil, &repository.ConflictError{Reason: "hold expired or no longer active"}
    }
    b, err := s.buildBooking(ctx, userID, h.Resources, h.Window)
    if err != nil {
        return nil, err
    }
    if err := s.bookings.CreateFromHold(ctx, b, holdID, now); err != nil {
        return nil, err
    }
    s.afterConfirm(ctx, b)
    return b, nil
}

// ConfirmDirect confirms a booking without a prior hold.  The window
// must lie in the future; the store re-checks availability and inserts
// in one transaction, so a losing racer gets a ConflictError.
func (s *BookingService) ConfirmDirect(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window) (*model.Booking, error) {
    now := s.now().UTC()
    w = w.UTC()
    refs, err := normalizeRefs(refs)
    if err != nil {
        return nil, err
    }
    if err := validateFutureWindow(w, now); err != nil {
        return nil, err
    }
    b, err := s.buildBooking(ctx, userID, refs, w)
    if err != nil {
        return nil, err
    }
    if err := s.bookings.CreateAtomic(ctx, b, now); err != nil {
        return nil, err
    }
    s.afterConfirm(ctx, b)
    return b, nil
}

func (s *BookingService) buildBooking(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window) (*model.Booking, error) {
    snapshot, err := s.pricing.Snapshot(ctx, refs, w)
    if err != nil {
        return nil, err
    }
    resources := make([]model.BookingResource, 0, len(snapshot.Fees))
    for _, fee := range snapshot.Fees {
        resources = append(resources, model.BookingResource{
            ResourceID: fee.ResourceID,
            Quantity:   fee.Quantity,
            FeeCents:   fee.FeeCents,
        })
    }
    return &model.Booking{
        UserID:     userID,
        Window:     w,
        Resources:  resources,
        Status:     model.BookingStatusConfirmed,
        Pricing:    *snapshot,
        TotalCents: snapshot.TotalCents,
    }, nil
}

// afterConfirm runs the post-commit side effects: waitlist conversion
// bookkeeping and the confirmation event.  Both are best-effort.
func (s *BookingService) afterConfirm(ctx context.Context, b *model.Booking) {
    refs := make([]model.HoldResource, 0, len(b.Resources))
    for _, br := range b.Resources {
        refs = append(refs, model.HoldResource{ResourceID: br.ResourceID, Quantity: br.Quantity})
    }
    if s.converter != nil {
        s.converter.ConvertMatching(ctx, b.UserID, refs, b.Window)
    }
    if s.events == nil {
        return
    }
    lines := make([]queue.BookedResourceLine, 0, len(b.Pricing.Fees))
    for _, fee := range b.Pricing.Fees {
        lines = append(lines, queue.BookedResourceLine{
            ResourceID: fee.ResourceID,
            Name:       fee.ResourceName,
            Quantity:   fee.Quantity,
            FeeCents:   fee.FeeCents,
        })
    }
    ev := queue.BookingConfirmedEvent{
        BookingID:   b.ID,
        UserID:      b.UserID,
        Resources:   lines,
        StartsAt:    b.Window.StartAt.UTC().Format(time.RFC3339),
        EndsAt:      b.Window.EndAt.UTC().Format(time.RFC3339),
        TotalCents:  b.TotalCents,
        ConfirmedAt: s.now().UTC().Format(time.RFC3339),
    }
    if err := s.events.BookingConfirmed(ctx, ev); err != nil {
        log.Printf("booking: publish confirmation event failed: %v", err)
    }
}

// Cancel transitions the caller's confirmed booking to cancelled,
// freeing its window immediately and promoting the waitlist on the
// freed resources.  The transition is terminal.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID uint64) error {
    b, err := s.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return err
    }
    if b.UserID != userID {
        return repository.ErrForbidden
    }
    now := s.now().UTC()
    if err := s.bookings.Cancel(ctx, bookingID, now); err != nil {
        return err
    }
    if s.promoter != nil {
        refs := make([]model.HoldResource, 0, len(b.Resources))
        for _, br := range b.Resources {
            refs = append(refs, model.HoldResource{ResourceID: br.ResourceID, Quantity: br.Quantity})
        }
        s.promoter.PromoteFreed(ctx, refs, b.Window)
    }
    return nil
}

// ListForUser returns the user's bookings with derived statuses: a
// confirmed booking whose window has ended reads as completed even
// before the sweep persists the transition.
func (s *BookingService) ListForUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
    bookings, err := s.bookings.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    now := s.now().UTC()
    for _, b := range bookings {
        b.Status = b.EffectiveStatus(now)
    }
    return bookings, nil
}

// GetForUser returns one booking after an ownership check, with the
// same derived status as ListForUser.
func (s *BookingService) GetForUser(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
    b, err := s.bookings.GetByID(ctx, bookingID)
    if err != nil {
        return nil, err
    }
    if b.UserID != userID {
        return nil, repository.ErrForbidden
    }
    b.Status = b.EffectiveStatus(s.now().UTC())
    return b, nil
}

// CompleteDue persists the completed status on every confirmed booking
// whose window has passed.  Idempotent; the sweep calls it every cycle.
func (s *BookingService) CompleteDue(ctx context.Context) (int64, error) {
    return s.bookings.CompleteDue(ctx, s.now().UTC())
}
