package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/matchpoint/court-reservation/internal/model"
)

// PricingRuleRepo provides data access to the pricing_rules table.
// The evaluator only ever reads active rules; writes come from the
// administrative endpoint.
type PricingRuleRepo struct {
    db *sql.DB
}

// NewPricingRuleRepo returns a PricingRuleRepo bound to the provided
// database.
func NewPricingRuleRepo(db *sql.DB) *PricingRuleRepo { return &PricingRuleRepo{db: db} }

const ruleColumns = `id, name, description, type, conditions, multiplier, priority, active, created_at, updated_at`

func scanRule(row interface{ Scan(...interface{}) error }) (*model.PricingRule, error) {
    var r model.PricingRule
    var conditions []byte
    if err := row.Scan(&r.ID, &r.Name, &r.Description, &r.Type, &conditions,
        &r.Multiplier, &r.Priority, &r.Active, &r.CreatedAt, &r.UpdatedAt); err != nil {
        return nil, err
    }
    if len(conditions) > 0 {
        if err := json.Unmarshal(conditions, &r.Conditions); err != nil {
            return nil, err
        }
    }
    return &r, nil
}

// ListActive returns all active rules ordered by priority descending,
// ties broken by id ascending.  The ordering matches the evaluator's
// so the fetched slice can be applied as-is.
func (r *PricingRuleRepo) ListActive(ctx context.Context) ([]model.PricingRule, error) {
    return r.list(ctx, `SELECT `+ruleColumns+` FROM pricing_rules WHERE active = 1 ORDER BY priority DESC, id ASC`)
}

// ListAll returns every rule for the administrative listing, active or
// not, in the same deterministic order.
func (r *PricingRuleRepo) ListAll(ctx context.Context) ([]model.PricingRule, error) {
    return r.list(ctx, `SELECT `+ruleColumns+` FROM pricing_rules ORDER BY priority DESC, id ASC`)
}

func (r *PricingRuleRepo) list(ctx context.Context, query string) ([]model.PricingRule, error) {
    rows, err := r.db.QueryContext(ctx, query)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.PricingRule
    for rows.Next() {
        rule, err := scanRule(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rule)
    }
    return out, rows.Err()
}

// Create inserts a new rule and populates its ID and timestamps.
// Multiplier and type validation happens in the service layer before
// this call; the repository stores what it is given.
func (r *PricingRuleRepo) Create(ctx context.Context, rule *model.PricingRule, now time.Time) error {
    conditions, err := json.Marshal(rule.Conditions)
    if err != nil {
        return err
    }
    nowUTC := now.UTC()
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO pricing_rules (name, description, type, conditions, multiplier, priority, active, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        rule.Name, rule.Description, rule.Type, conditions,
        rule.Multiplier, rule.Priority, rule.Active, nowUTC, nowUTC)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rule.ID = uint64(id)
    rule.CreatedAt = nowUTC
    rule.UpdatedAt = nowUTC
    return nil
}
