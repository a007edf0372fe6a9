// Package repository defines error values that are reused across
// multiple repositories. These sentinels allow higher layers such as
// services and handlers to distinguish between failure scenarios
// without inspecting SQL errors. For example, ErrForbidden indicates
// that the current user does not own the record they are mutating,
// while ErrConflict signals that a mutation lost the race for a
// resource's remaining capacity.
package repository

import (
    "errors"
    "fmt"
)

// ErrNotFound is returned when a hold, booking, resource or waitlist
// entry does not exist. Handlers should translate this into an HTTP
// 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// record they do not own. Handlers should translate this into an HTTP
// 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot proceed because of
// conflicting state: overlapping holds or bookings exhaust a
// resource's capacity, the resource is under maintenance, or a hold
// being extended has already expired. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ConflictError carries the identity of the first blocking resource so
// callers can build a user-facing message. It unwraps to ErrConflict,
// so errors.Is(err, ErrConflict) matches both forms.
type ConflictError struct {
    ResourceID uint64 // resource that blocked the request, 0 if not resource specific
    Reason     string // short reason, e.g. "insufficient capacity"
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
    if e.ResourceID != 0 {
        return fmt.Sprintf("conflict: resource %d: %s", e.ResourceID, e.Reason)
    }
    return "conflict: " + e.Reason
}

// Unwrap links ConflictError to the ErrConflict sentinel.
func (e *ConflictError) Unwrap() error { return ErrConflict }
