package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/matchpoint/court-reservation/internal/model"
)

// ResourceRepo provides read access to the resources table.  The
// catalog is administered by an external service; this engine only
// reads id, type, capacity, base rate and status, so the repository
// deliberately exposes no mutating methods.
type ResourceRepo struct {
    db *sql.DB
}

// NewResourceRepo returns a ResourceRepo bound to the provided database.
func NewResourceRepo(db *sql.DB) *ResourceRepo { return &ResourceRepo{db: db} }

const resourceColumns = `id, name, type, court_type, capacity, base_rate_cents, status, created_at, updated_at`

// scanResource reads one resource row.  court_type is nullable for
// coaches and equipment.
func scanResource(row interface{ Scan(...interface{}) error }) (*model.Resource, error) {
    var res model.Resource
    var courtType sql.NullString
    if err := row.Scan(&res.ID, &res.Name, &res.Type, &courtType, &res.Capacity,
        &res.BaseRateCents, &res.Status, &res.CreatedAt, &res.UpdatedAt); err != nil {
        return nil, err
    }
    res.CourtType = courtType.String
    return &res, nil
}

// GetByID fetches a single resource.  Returns ErrNotFound when the id
// is unknown.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
    res, err := scanResource(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return res, err
}

// querier is satisfied by both *sql.DB and *sql.Tx so query helpers can
// serve plain reads and transactional reads alike.
type querier interface {
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
    ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// GetByIDs fetches the given resources keyed by id.  Missing ids are
// simply absent from the map; callers decide whether that is an error.
// Transactional callers do not go through here: capacity checks lock
// the rows with their own SELECT ... FOR UPDATE.
func (r *ResourceRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*model.Resource, error) {
    if len(ids) == 0 {
        return map[uint64]*model.Resource{}, nil
    }
    query := `SELECT ` + resourceColumns + ` FROM resources WHERE id IN (` + placeholders(len(ids)) + `)`
    args := make([]interface{}, 0, len(ids))
    for _, id := range ids {
        args = append(args, id)
    }
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make(map[uint64]*model.Resource, len(ids))
    for rows.Next() {
        res, err := scanResource(rows)
        if err != nil {
            return nil, err
        }
        out[res.ID] = res
    }
    return out, rows.Err()
}

// placeholders builds a "?, ?, ?" list of the given length for IN
// clauses.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.Repeat("?, ", n-1) + "?"
}
