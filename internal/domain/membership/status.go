package membership

import "time"

// GraceThreshold is the number of days before expiration during which a
// membership is reported as expiring instead of active.
const GraceThreshold = 7

// Status is the derived lifecycle state of a membership
type Status string

const (
	StatusActive   Status = "activo"
	StatusExpiring Status = "por_vencer"
	StatusInactive Status = "inactivo"
)

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpiring, StatusInactive:
		return true
	}
	return false
}

// DeriveStatus computes the membership state from the expiration date alone.
//
//	diff > 7       active
//	0 <= diff <= 7 expiring
//	diff < 0       inactive, with no grace after expiration
//
// A nil expiration means nothing was ever paid and yields inactive.
func DeriveStatus(expiration *time.Time, now time.Time) Status {
	if expiration == nil {
		return StatusInactive
	}
	diff := DaysBetween(now, *expiration)
	switch {
	case diff > GraceThreshold:
		return StatusActive
	case diff >= 0:
		return StatusExpiring
	default:
		return StatusInactive
	}
}

// DaysUntil returns whole days from now until expiration; negative when overdue
func DaysUntil(expiration time.Time, now time.Time) int {
	return DaysBetween(now, expiration)
}

// ExpirationWindow returns the inclusive range of expiration dates that map
// to status on the given day. A nil bound is open. Queries use it so SQL
// filters agree with DeriveStatus.
func ExpirationWindow(status Status, today time.Time) (from, to *time.Time) {
	day := DateOf(today)
	switch status {
	case StatusActive:
		f := day.AddDate(0, 0, GraceThreshold+1)
		return &f, nil
	case StatusExpiring:
		f, t := day, day.AddDate(0, 0, GraceThreshold)
		return &f, &t
	case StatusInactive:
		t := day.AddDate(0, 0, -1)
		return nil, &t
	}
	return nil, nil
}
