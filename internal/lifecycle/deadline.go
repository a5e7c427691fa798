package lifecycle

import "time"

// Deadline converts an absolute payment expiry into countdown values. An
// order without a payment deadline never expires from the tracker's point of
// view.
type Deadline struct {
	ExpiresAt *time.Time
	// Window is the full payment window length, used only to derive the
	// progress percentage shown to the user.
	Window time.Duration
}

// Remaining returns whole seconds left until the deadline, floored at zero.
// ok is false when no deadline is set.
func (d Deadline) Remaining(now time.Time) (int64, bool) {
	if d.ExpiresAt == nil {
		return 0, false
	}
	left := d.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0, true
	}
	return int64(left / time.Second), true
}

// Expired reports whether the deadline has passed. Without a deadline it
// never reports true.
func (d Deadline) Expired(now time.Time) bool {
	remaining, ok := d.Remaining(now)
	return ok && remaining == 0
}

// Percent is the share of the payment window still remaining, capped at 100.
// Presentation value only.
func (d Deadline) Percent(now time.Time) float64 {
	remaining, ok := d.Remaining(now)
	if !ok || d.Window <= 0 {
		return 0
	}
	pct := float64(remaining) / d.Window.Seconds() * 100
	if pct > 100 {
		return 100
	}
	return pct
}
