package model

import "time"

// Window is a half-open time interval [StartAt, EndAt) being reserved.
// All instants are stored and compared in UTC.  A window is well formed
// when StartAt is strictly before EndAt; reservation operations further
// require StartAt to lie in the future at request time.
type Window struct {
    StartAt time.Time `json:"start_at"` // inclusive start instant
    EndAt   time.Time `json:"end_at"`   // exclusive end instant
}

// Overlaps reports whether two windows intersect.  The test follows the
// half-open convention: a window ending exactly when another begins does
// not overlap it.
func (w Window) Overlaps(o Window) bool {
    return w.StartAt.Before(o.EndAt) && o.StartAt.Before(w.EndAt)
}

// Duration returns the length of the window.
func (w Window) Duration() time.Duration {
    return w.EndAt.Sub(w.StartAt)
}

// Hours returns the window length in fractional hours.  Pricing uses this
// to convert hourly rates into fees.
func (w Window) Hours() float64 {
    return w.Duration().Hours()
}

// WellFormed reports whether StartAt is strictly before EndAt.
func (w Window) WellFormed() bool {
    return w.StartAt.Before(w.EndAt)
}

// Started reports whether the window's start has already passed at the
// supplied instant.  Holds and bookings may only be created for windows
// that have not started.
func (w Window) Started(now time.Time) bool {
    return !w.StartAt.After(now)
}

// Ended reports whether the window has fully elapsed at the supplied
// instant.  Used by the sweep to complete bookings and expire waitlist
// entries.
func (w Window) Ended(now time.Time) bool {
    return !w.EndAt.After(now)
}

// UTC returns a copy of the window with both instants normalised to UTC.
func (w Window) UTC() Window {
    return Window{StartAt: w.StartAt.UTC(), EndAt: w.EndAt.UTC()}
}
