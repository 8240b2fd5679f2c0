package types

import "time"

// Urgency of an approval request, derived from due-date proximity
type Urgency string

const (
	UrgencyUrgent Urgency = "urgent"
	UrgencyHigh   Urgency = "high"
	UrgencyNormal Urgency = "normal"
)

const (
	urgentWindow = 2 * 24 * time.Hour
	highWindow   = 7 * 24 * time.Hour
)

// String returns the string representation of the urgency
func (u Urgency) String() string {
	return string(u)
}

// UrgencyFromDueDate derives urgency from how close due is to now. Overdue
// items are urgent; items without a due date are normal.
func UrgencyFromDueDate(due *time.Time, now time.Time) Urgency {
	if due == nil {
		return UrgencyNormal
	}
	remaining := due.Sub(now)
	switch {
	case remaining <= urgentWindow:
		return UrgencyUrgent
	case remaining <= highWindow:
		return UrgencyHigh
	default:
		return UrgencyNormal
	}
}
