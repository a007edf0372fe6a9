package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// WaitlistRepo provides data access to the waitlist_entries table.
// Queue positions are assigned inside a transaction that locks the
// existing entries for the (resource, window) queue, so concurrent
// joins can never draw the same position.  Positions grow
// monotonically and are never reused after an entry expires.
type WaitlistRepo struct {
    db *sql.DB
}

// NewWaitlistRepo returns a WaitlistRepo bound to the provided
// database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, user_id, resource_id, start_at, end_at, prefs, position, status, notified_at, expires_at, created_at`

func scanWaitlistEntry(row interface{ Scan(...interface{}) error }) (*model.WaitlistEntry, error) {
    var e model.WaitlistEntry
    var prefs []byte
    var notifiedAt sql.NullTime
    if err := row.Scan(&e.ID, &e.UserID, &e.ResourceID, &e.Window.StartAt, &e.Window.EndAt,
        &prefs, &e.Position, &e.Status, &notifiedAt, &e.ExpiresAt, &e.CreatedAt); err != nil {
        return nil, err
    }
    if len(prefs) > 0 {
        if err := json.Unmarshal(prefs, &e.Prefs); err != nil {
            return nil, err
        }
    }
    if notifiedAt.Valid {
        t := notifiedAt.Time
        e.NotifiedAt = &t
    }
    return &e, nil
}

// JoinAtomic appends the entry to the FIFO queue for its (resource,
// window).  The current maximum position is read under lock and the
// insert commits in the same transaction, mirroring the atomicity of
// hold creation.  MAX over all entries, not just waiting ones, keeps
// positions monotonic even after earlier entries expire or convert.
// On success the entry's ID, Position and CreatedAt are populated.
func (r *WaitlistRepo) JoinAtomic(ctx context.Context, e *model.WaitlistEntry, now time.Time) error {
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

    var maxPos uint32
    err = tx.QueryRowContext(ctx,
        `SELECT COALESCE(MAX(position), 0) FROM waitlist_entries
         WHERE resource_id = ? AND start_at = ? AND end_at = ? FOR UPDATE`,
        e.ResourceID, e.Window.StartAt.UTC(), e.Window.EndAt.UTC()).Scan(&maxPos)
    if err != nil {
        return err
    }
    e.Position = maxPos + 1

    prefs, err := json.Marshal(e.Prefs)
    if err != nil {
        return err
    }
    nowUTC := now.UTC()
    res, err := tx.ExecContext(ctx,
        `INSERT INTO waitlist_entries (user_id, resource_id, start_at, end_at, prefs, position, status, expires_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        e.UserID, e.ResourceID, e.Window.StartAt.UTC(), e.Window.EndAt.UTC(),
        prefs, e.Position, e.Status, e.ExpiresAt.UTC(), nowUTC)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    e.CreatedAt = nowUTC
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListByUser returns the user's entries, optionally filtered by status,
// ordered by creation time descending.
func (r *WaitlistRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]*model.WaitlistEntry, error) {
    query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE user_id = ?`
    args := []interface{}{userID}
    if status != "" {
        query += ` AND status = ?`
        args = append(args, status)
    }
    query += ` ORDER BY created_at DESC`
    return r.list(ctx, query, args...)
}

// ListDueWaiting returns waiting entries whose desired window has fully
// passed, oldest first.  The sweep expires and notifies them.
func (r *WaitlistRepo) ListDueWaiting(ctx context.Context, now time.Time) ([]*model.WaitlistEntry, error) {
    return r.list(ctx,
        `SELECT `+waitlistColumns+` FROM waitlist_entries
         WHERE status = ? AND expires_at <= ? ORDER BY expires_at ASC`,
        model.WaitlistStatusWaiting, now.UTC())
}

func (r *WaitlistRepo) list(ctx context.Context, query string, args ...interface{}) ([]*model.WaitlistEntry, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []*model.WaitlistEntry
    for rows.Next() {
        e, err := scanWaitlistEntry(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// FirstWaitingOverlapping returns the lowest-position waiting entry on
// the resource whose desired window overlaps w and has not yet passed,
// or nil when the queue holds no candidate.
func (r *WaitlistRepo) FirstWaitingOverlapping(ctx context.Context, resourceID uint64, w model.Window, now time.Time) (*model.WaitlistEntry, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+waitlistColumns+` FROM waitlist_entries
         WHERE resource_id = ? AND status = ? AND expires_at > ?
           AND start_at < ? AND ? < end_at
         ORDER BY position ASC LIMIT 1`,
        resourceID, model.WaitlistStatusWaiting, now.UTC(), w.EndAt.UTC(), w.StartAt.UTC())
    e, err := scanWaitlistEntry(row)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return e, err
}

// FindConvertible returns the user's own waiting or notified entry on
// the resource whose desired window overlaps w, or nil.  Booking
// confirmation uses it to record that the queued user got their slot.
func (r *WaitlistRepo) FindConvertible(ctx context.Context, userID, resourceID uint64, w model.Window) (*model.WaitlistEntry, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+waitlistColumns+` FROM waitlist_entries
         WHERE user_id = ? AND resource_id = ? AND status IN (?, ?)
           AND start_at < ? AND ? < end_at
         ORDER BY position ASC LIMIT 1`,
        userID, resourceID, model.WaitlistStatusWaiting, model.WaitlistStatusNotified,
        w.EndAt.UTC(), w.StartAt.UTC())
    e, err := scanWaitlistEntry(row)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    return e, err
}

// MarkExpired transitions a waiting entry to expired.  The status guard
// makes the transition happen at most once: the boolean result tells
// the sweep whether this call performed the transition and therefore
// owns the single notification.
func (r *WaitlistRepo) MarkExpired(ctx context.Context, id uint64, now time.Time) (bool, error) {
    return r.transition(ctx,
        `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`,
        model.WaitlistStatusExpired, id, model.WaitlistStatusWaiting)
}

// MarkNotified promotes a waiting entry when a covering slot frees up,
// recording the notification time.  At most one caller wins the
// transition.
func (r *WaitlistRepo) MarkNotified(ctx context.Context, id uint64, now time.Time) (bool, error) {
    return r.transition(ctx,
        `UPDATE waitlist_entries SET status = ?, notified_at = ? WHERE id = ? AND status = ?`,
        model.WaitlistStatusNotified, now.UTC(), id, model.WaitlistStatusWaiting)
}

// MarkConverted records that the entry's user went on to book the slot.
// Allowed from waiting or notified; terminal statuses are untouchable.
func (r *WaitlistRepo) MarkConverted(ctx context.Context, id uint64, now time.Time) (bool, error) {
    return r.transition(ctx,
        `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status IN (?, ?)`,
        model.WaitlistStatusConverted, id, model.WaitlistStatusWaiting, model.WaitlistStatusNotified)
}

func (r *WaitlistRepo) transition(ctx context.Context, query string, args ...interface{}) (bool, error) {
    res, err := r.db.ExecContext(ctx, query, args...)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
