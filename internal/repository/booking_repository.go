package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// BookingRepo provides data access to the bookings and
// booking_resources tables.  Bookings form the permanent audit trail:
// they are only ever inserted and status-transitioned, never deleted.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, start_at, end_at, status, pricing, total_cents, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*model.Booking, error) {
    var b model.Booking
    var pricing []byte
    if err := row.Scan(&b.ID, &b.UserID, &b.Window.StartAt, &b.Window.EndAt,
        &b.Status, &pricing, &b.TotalCents, &b.CreatedAt, &b.UpdatedAt); err != nil {
        return nil, err
    }
    if len(pricing) > 0 {
        if err := json.Unmarshal(pricing, &b.Pricing); err != nil {
            return nil, err
        }
    }
    return &b, nil
}

// GetByID fetches a booking with its resource lines.  Returns
// ErrNotFound for unknown ids.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if b.Resources, err = r.loadResources(ctx, id); err != nil {
        return nil, err
    }
    return b, nil
}

func (r *BookingRepo) loadResources(ctx context.Context, bookingID uint64) ([]model.BookingResource, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT resource_id, quantity, fee_cents FROM booking_resources WHERE booking_id = ? ORDER BY resource_id`,
        bookingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var refs []model.BookingResource
    for rows.Next() {
        var ref model.BookingResource
        if err := rows.Scan(&ref.ResourceID, &ref.Quantity, &ref.FeeCents); err != nil {
            return nil, err
        }
        refs = append(refs, ref)
    }
    return refs, rows.Err()
}

// ListByUser returns the user's bookings, newest first.  Resource lines
// are loaded for each; listings are small enough that the N+1 stays
// cheap and keeps the SQL readable.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY start_at DESC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []*model.Booking
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for _, b := range out {
        if b.Resources, err = r.loadResources(ctx, b.ID); err != nil {
            return nil, err
        }
    }
    return out, nil
}

// CreateFromHold converts a live hold into a confirmed booking.  The
// hold is re-read under lock inside the transaction so a hold that
// expired or was released between the caller's check and the commit is
// rejected, and the hold's release is committed together with the
// booking insert: the claim passes from hold to booking with no gap
// another user could slip into.
func (r *BookingRepo) CreateFromHold(ctx context.Context, b *model.Booking, holdID uint64, now time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var status string
    var expiresAt time.Time
    err = tx.QueryRowContext(ctx,
        `SELECT status, expires_at FROM holds WHERE id = ? FOR UPDATE`, holdID).
        Scan(&status, &expiresAt)
    if err == sql.ErrNoRows {
        return ErrNotFound
    }
    if err != nil {
        return err
    }
    if status != model.HoldStatusActive || !expiresAt.After(now) {
        return &ConflictError{Reason: "hold expired or no longer active"}
    }
    if err := release(ctx, tx, holdID, now); err != nil {
        return err
    }
    if err := insertBooking(ctx, tx, b, now); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// CreateAtomic inserts a confirmed booking without a prior hold.  The
// availability re-check and the insert run in one transaction with the
// resource rows locked, exactly like hold creation, so concurrent
// confirmations for overlapping windows cannot both commit.
func (r *BookingRepo) CreateAtomic(ctx context.Context, b *model.Booking, now time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    refs := make([]model.HoldResource, 0, len(b.Resources))
    for _, br := range b.Resources {
        refs = append(refs, model.HoldResource{ResourceID: br.ResourceID, Quantity: br.Quantity})
    }
    if err := checkCapacityTx(ctx, tx, refs, b.Window, b.UserID, now); err != nil {
        return err
    }
    if err := insertBooking(ctx, tx, b, now); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func insertBooking(ctx context.Context, tx *sql.Tx, b *model.Booking, now time.Time) error {
    pricing, err := json.Marshal(b.Pricing)
    if err != nil {
        return err
    }
    nowUTC := now.UTC()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO bookings (user_id, start_at, end_at, status, pricing, total_cents, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        b.UserID, b.Window.StartAt.UTC(), b.Window.EndAt.UTC(),
        b.Status, pricing, b.TotalCents, nowUTC, nowUTC)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.CreatedAt = nowUTC
    b.UpdatedAt = nowUTC

    query := `INSERT INTO booking_resources (booking_id, resource_id, quantity, fee_cents) VALUES `
    args := make([]interface{}, 0, len(b.Resources)*4)
    for i, ref := range b.Resources {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, b.ID, ref.ResourceID, ref.Quantity, ref.FeeCents)
    }
    _, err = tx.ExecContext(ctx, query, args...)
    return err
}

// Cancel transitions a confirmed booking to cancelled.  The status
// guard in SQL makes the transition terminal and the call idempotent in
// effect: a booking that is already completed or cancelled yields
// ErrConflict instead of being resurrected or double-cancelled.
func (r *BookingRepo) Cancel(ctx context.Context, id uint64, now time.Time) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
        model.BookingStatusCancelled, now.UTC(), id, model.BookingStatusConfirmed)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return &ConflictError{Reason: "booking is not confirmed"}
    }
    return nil
}

// CompleteDue transitions every confirmed booking whose window has
// fully passed to completed.  Idempotent: re-running selects nothing
// new.  Safe to invoke concurrently; the status guard means each row is
// transitioned exactly once.
func (r *BookingRepo) CompleteDue(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ?, updated_at = ?
         WHERE status = ? AND end_at <= ?`,
        model.BookingStatusCompleted, now.UTC(), model.BookingStatusConfirmed, now.UTC())
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// BookedQuantities sums quantities reserved by confirmed bookings on
// the given resources over windows overlapping w.
func (r *BookingRepo) BookedQuantities(ctx context.Context, resourceIDs []uint64, w model.Window) (map[uint64]uint32, error) {
    return bookedQuantities(ctx, r.db, resourceIDs, w)
}

func bookedQuantities(ctx context.Context, q querier, resourceIDs []uint64, w model.Window) (map[uint64]uint32, error) {
    if len(resourceIDs) == 0 {
        return map[uint64]uint32{}, nil
    }
    query := `SELECT br.resource_id, COALESCE(SUM(br.quantity), 0)
              FROM bookings b
              JOIN booking_resources br ON br.booking_id = b.id
              WHERE br.resource_id IN (` + placeholders(len(resourceIDs)) + `)
                AND b.status = ?
                AND b.start_at < ? AND ? < b.end_at
              GROUP BY br.resource_id`
    args := make([]interface{}, 0, len(resourceIDs)+3)
    for _, id := range resourceIDs {
        args = append(args, id)
    }
    args = append(args, model.BookingStatusConfirmed, w.EndAt.UTC(), w.StartAt.UTC())
    return queryQuantities(ctx, q, query, args)
}

// BookedIntervals returns the window and quantity of every confirmed
// booking on the resource that overlaps w, for the availability day
// view.
func (r *BookingRepo) BookedIntervals(ctx context.Context, resourceID uint64, w model.Window) ([]QuantityInterval, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT b.start_at, b.end_at, br.quantity
         FROM bookings b
         JOIN booking_resources br ON br.booking_id = b.id
         WHERE br.resource_id = ? AND b.status = ?
           AND b.start_at < ? AND ? < b.end_at`,
        resourceID, model.BookingStatusConfirmed, w.EndAt.UTC(), w.StartAt.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []QuantityInterval
    for rows.Next() {
        var qi QuantityInterval
        if err := rows.Scan(&qi.Window.StartAt, &qi.Window.EndAt, &qi.Quantity); err != nil {
            return nil, err
        }
        out = append(out, qi)
    }
    return out, rows.Err()
}
