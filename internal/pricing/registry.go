package pricing

import (
    "encoding/json"
    "log"
    "sync"

    "github.com/matchpoint/court-reservation/internal/model"
)

// CustomPredicate decides whether a custom rule matches a window.  The
// params payload is the rule's opaque condition; the predicate owns its
// interpretation.  Predicates must be pure functions of their inputs so
// repeated evaluation of a fixed window stays deterministic.
type CustomPredicate func(params json.RawMessage, w model.Window) bool

var (
    customMu         sync.RWMutex
    customPredicates = make(map[string]CustomPredicate)
    warnedPredicates sync.Map
)

// RegisterCustomPredicate installs a named predicate for custom pricing
// rules.  Registration typically happens from main before the server
// starts serving.  Re-registering a name replaces the previous
// predicate.
func RegisterCustomPredicate(name string, fn CustomPredicate) {
    customMu.Lock()
    defer customMu.Unlock()
    customPredicates[name] = fn
}

// evalCustom resolves and runs the registered predicate for a custom
// condition.  A rule referencing an unregistered predicate never
// matches; the miss is logged once per predicate name so a typo in a
// rule definition is visible without flooding the log.
func evalCustom(cond *model.CustomCondition, w model.Window) bool {
    customMu.RLock()
    fn, ok := customPredicates[cond.Predicate]
    customMu.RUnlock()
    if !ok {
        if _, seen := warnedPredicates.LoadOrStore(cond.Predicate, struct{}{}); !seen {
            log.Printf("pricing: custom predicate %q is not registered; rule will never match", cond.Predicate)
        }
        return false
    }
    return fn(cond.Params, w)
}
