// Package service implements the reservation engine's business
// operations on top of the repository layer: availability checks, hold
// management, pricing previews, booking lifecycle, waitlist queuing and
// the background sweep.  Services depend on small store interfaces so
// the logic can be exercised against in-memory mocks.
package service

import "fmt"

// ValidationError reports malformed input: a window that is not in the
// future or not well formed, an unknown resource id, a zero quantity,
// or an invalid pricing-rule definition.  No mutation has occurred when
// it is returned.  Handlers translate it into an HTTP 400 response.
type ValidationError struct {
    Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return "validation: " + e.Reason }

func validationf(format string, args ...interface{}) error {
    return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
