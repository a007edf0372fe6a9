package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// HoldRepo provides data access to the holds and hold_resources
// tables.  All timestamps are stored and compared in UTC.  Expiry is
// passive: every query that feeds an availability decision filters on
// expires_at > now, so a hold stops blocking the instant it expires
// even if the sweep has not yet rewritten its status.
type HoldRepo struct {
    db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// QuantityInterval pairs a reserved window with the quantity it
// consumes.  Used to compute per-slot availability for a whole day in
// memory instead of issuing one query per slot.
type QuantityInterval struct {
    Window   model.Window
    Quantity uint32
}

const holdColumns = `id, user_id, start_at, end_at, status, expires_at, extended, created_at, updated_at`

func scanHold(row interface{ Scan(...interface{}) error }) (*model.Hold, error) {
    var h model.Hold
    if err := row.Scan(&h.ID, &h.UserID, &h.Window.StartAt, &h.Window.EndAt,
        &h.Status, &h.ExpiresAt, &h.Extended, &h.CreatedAt, &h.UpdatedAt); err != nil {
        return nil, err
    }
    return &h, nil
}

// GetByID fetches a hold together with its resource lines.  Returns
// ErrNotFound for unknown ids.
func (r *HoldRepo) GetByID(ctx context.Context, id uint64) (*model.Hold, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+holdColumns+` FROM holds WHERE id = ?`, id)
    h, err := scanHold(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if h.Resources, err = r.loadResources(ctx, r.db, id); err != nil {
        return nil, err
    }
    return h, nil
}

func (r *HoldRepo) loadResources(ctx context.Context, q querier, holdID uint64) ([]model.HoldResource, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT resource_id, quantity FROM hold_resources WHERE hold_id = ? ORDER BY resource_id`, holdID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var refs []model.HoldResource
    for rows.Next() {
        var ref model.HoldResource
        if err := rows.Scan(&ref.ResourceID, &ref.Quantity); err != nil {
            return nil, err
        }
        refs = append(refs, ref)
    }
    return refs, rows.Err()
}

// FindActiveExact returns the user's live hold matching the exact
// window and resource set, or nil when none exists.  This backs the
// idempotency contract of hold creation: re-requesting an identical
// hold returns the original instead of conflicting with it.
func (r *HoldRepo) FindActiveExact(ctx context.Context, userID uint64, refs []model.HoldResource, w model.Window, now time.Time) (*model.Hold, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+holdColumns+` FROM holds
         WHERE user_id = ? AND start_at = ? AND end_at = ?
           AND status = ? AND expires_at > ?`,
        userID, w.StartAt.UTC(), w.EndAt.UTC(), model.HoldStatusActive, now.UTC())
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var candidates []*model.Hold
    for rows.Next() {
        h, err := scanHold(rows)
        if err != nil {
            return nil, err
        }
        candidates = append(candidates, h)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    for _, h := range candidates {
        if h.Resources, err = r.loadResources(ctx, r.db, h.ID); err != nil {
            return nil, err
        }
        if h.SameRequest(refs, w) {
            return h, nil
        }
    }
    return nil, nil
}

// CreateAtomic inserts a new hold after re-checking availability inside
// the same transaction.  The resource rows are locked with SELECT ...
// FOR UPDATE first, which makes the check-and-insert linearizable:
// of several concurrent creations for overlapping windows on the same
// resource, exactly one commits and the rest observe its reservation
// and fail with a ConflictError naming the first blocking resource.
// Holds owned by the creating user are excluded from the reserved sum
// so an idempotent retry never blocks itself.
//
// On success the hold's ID, CreatedAt and UpdatedAt are populated.
func (r *HoldRepo) CreateAtomic(ctx context.Context, h *model.Hold, now time.Time) error {
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

    if err := checkCapacityTx(ctx, tx, h.Resources, h.Window, h.UserID, now); err != nil {
        return err
    }

    nowUTC := now.UTC()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO holds (user_id, start_at, end_at, status, expires_at, extended, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
        h.UserID, h.Window.StartAt.UTC(), h.Window.EndAt.UTC(),
        h.Status, h.ExpiresAt.UTC(), h.Extended, nowUTC, nowUTC)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    h.ID = uint64(id)
    h.CreatedAt = nowUTC
    h.UpdatedAt = nowUTC

    query := `INSERT INTO hold_resources (hold_id, resource_id, quantity) VALUES `
    args := make([]interface{}, 0, len(h.Resources)*3)
    for i, ref := range h.Resources {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, h.ID, ref.ResourceID, ref.Quantity)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// checkCapacityTx locks the referenced resource rows and verifies that
// each one has enough free capacity for the requested quantity over the
// window, counting live holds (excluding excludeUserID's own) and
// confirmed bookings.  The first failing resource is reported.  Shared
// by hold creation and direct booking creation.
func checkCapacityTx(ctx context.Context, tx *sql.Tx, refs []model.HoldResource, w model.Window, excludeUserID uint64, now time.Time) error {
    ids := make([]uint64, 0, len(refs))
    for _, ref := range refs {
        ids = append(ids, ref.ResourceID)
    }
    query := `SELECT id, capacity, status FROM resources WHERE id IN (` + placeholders(len(ids)) + `) FOR UPDATE`
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return err
    }
    type resourceRow struct {
        capacity uint32
        status   string
    }
    found := make(map[uint64]resourceRow, len(ids))
    for rows.Next() {
        var id uint64
        var rr resourceRow
        if err := rows.Scan(&id, &rr.capacity, &rr.status); err != nil {
            rows.Close()
            return err
        }
        found[id] = rr
    }
    if err := rows.Close(); err != nil {
        return err
    }

    held, err := heldQuantities(ctx, tx, ids, w, excludeUserID, now)
    if err != nil {
        return err
    }
    booked, err := bookedQuantities(ctx, tx, ids, w)
    if err != nil {
        return err
    }
    for _, ref := range refs {
        rr, ok := found[ref.ResourceID]
        if !ok {
            return ErrNotFound
        }
        if rr.status != model.ResourceStatusActive {
            return &ConflictError{ResourceID: ref.ResourceID, Reason: "resource " + rr.status}
        }
        reserved := held[ref.ResourceID] + booked[ref.ResourceID]
        if rr.capacity < reserved+ref.Quantity {
            return &ConflictError{ResourceID: ref.ResourceID, Reason: "insufficient capacity"}
        }
    }
    return nil
}

// HeldQuantities sums quantities claimed by live holds on the given
// resources over windows overlapping w.  Holds owned by excludeUserID
// (0 = exclude nobody) are skipped so a requester's own holds never
// block their re-checks.
func (r *HoldRepo) HeldQuantities(ctx context.Context, resourceIDs []uint64, w model.Window, excludeUserID uint64, now time.Time) (map[uint64]uint32, error) {
    return heldQuantities(ctx, r.db, resourceIDs, w, excludeUserID, now)
}

func heldQuantities(ctx context.Context, q querier, resourceIDs []uint64, w model.Window, excludeUserID uint64, now time.Time) (map[uint64]uint32, error) {
    if len(resourceIDs) == 0 {
        return map[uint64]uint32{}, nil
    }
    query := `SELECT hr.resource_id, COALESCE(SUM(hr.quantity), 0)
              FROM holds h
              JOIN hold_resources hr ON hr.hold_id = h.id
              WHERE hr.resource_id IN (` + placeholders(len(resourceIDs)) + `)
                AND h.status = ? AND h.expires_at > ?
                AND h.start_at < ? AND ? < h.end_at`
    args := make([]interface{}, 0, len(resourceIDs)+6)
    for _, id := range resourceIDs {
        args = append(args, id)
    }
    args = append(args, model.HoldStatusActive, now.UTC(), w.EndAt.UTC(), w.StartAt.UTC())
    if excludeUserID != 0 {
        query += ` AND h.user_id <> ?`
        args = append(args, excludeUserID)
    }
    query += ` GROUP BY hr.resource_id`
    return queryQuantities(ctx, q, query, args)
}

// queryQuantities runs a (resource_id, SUM) query and collects the
// result into a map.
func queryQuantities(ctx context.Context, q querier, query string, args []interface{}) (map[uint64]uint32, error) {
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]uint32)
    for rows.Next() {
        var id uint64
        var qty uint32
        if err := rows.Scan(&id, &qty); err != nil {
            return nil, err
        }
        out[id] = qty
    }
    return out, rows.Err()
}

// HeldIntervals returns the window and quantity of every live hold on
// the resource that overlaps w.  The availability day view uses this to
// derive per-slot state with a single query.
func (r *HoldRepo) HeldIntervals(ctx context.Context, resourceID uint64, w model.Window, now time.Time) ([]QuantityInterval, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT h.start_at, h.end_at, hr.quantity
         FROM holds h
         JOIN hold_resources hr ON hr.hold_id = h.id
         WHERE hr.resource_id = ? AND h.status = ? AND h.expires_at > ?
           AND h.start_at < ? AND ? < h.end_at`,
        resourceID, model.HoldStatusActive, now.UTC(), w.EndAt.UTC(), w.StartAt.UTC())
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

// Extend resets the hold's expiry.  The guard repeats the liveness
// conditions in SQL so an expired hold can never be resurrected, no
// matter how stale the caller's view was: zero rows affected means the
// hold was no longer active and live, and the caller gets ErrConflict.
func (r *HoldRepo) Extend(ctx context.Context, id uint64, expiresAt, now time.Time) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE holds SET expires_at = ?, extended = 1, updated_at = ?
         WHERE id = ? AND status = ? AND expires_at > ? AND extended = 0`,
        expiresAt.UTC(), now.UTC(), id, model.HoldStatusActive, now.UTC())
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return &ConflictError{Reason: "hold expired or already extended"}
    }
    return nil
}

// Release marks the hold released and expires it immediately.  The
// transition is irreversible; releasing a hold that is not active
// returns ErrConflict.
func (r *HoldRepo) Release(ctx context.Context, id uint64, now time.Time) error {
    return release(ctx, r.db, id, now)
}

// release is the shared transition; BookingRepo.CreateFromHold runs it
// on its own transaction so the hold's release commits together with
// the booking insert.
func release(ctx context.Context, q querier, id uint64, now time.Time) error {
    res, err := q.ExecContext(ctx,
        `UPDATE holds SET status = ?, expires_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
        model.HoldStatusReleased, now.UTC(), now.UTC(), id, model.HoldStatusActive)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return &ConflictError{Reason: "hold is not active"}
    }
    return nil
}

// ExpireDue persists the expired status on every active hold whose
// expiry has passed.  Purely cosmetic cleanup: reads already ignore
// such holds.  Idempotent and safe to run concurrently.
func (r *HoldRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE holds SET status = ?, updated_at = ?
         WHERE status = ? AND expires_at <= ?`,
        model.HoldStatusExpired, now.UTC(), model.HoldStatusActive, now.UTC())
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}
