package types

// TimerStartStatus is the outcome of a timer start request
type TimerStartStatus string

const (
	TimerStarted              TimerStartStatus = "started"
	TimerBlocked              TimerStartStatus = "blocked"
	TimerConfirmationRequired TimerStartStatus = "confirmation_required"
)

// String returns the string representation of the timer start status
func (s TimerStartStatus) String() string {
	return string(s)
}
