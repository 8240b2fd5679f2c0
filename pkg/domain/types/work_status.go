package types

import "fmt"

// WorkStatus is the lifecycle status of a Task or WorkOrder. The two kinds
// share most statuses and differ in their initial, active and completed labels.
type WorkStatus string

const (
	WorkStatusTodo              WorkStatus = "todo"
	WorkStatusDraft             WorkStatus = "draft"
	WorkStatusInProgress        WorkStatus = "in_progress"
	WorkStatusActive            WorkStatus = "active"
	WorkStatusInReview          WorkStatus = "in_review"
	WorkStatusApproved          WorkStatus = "approved"
	WorkStatusDone              WorkStatus = "done"
	WorkStatusDelivered         WorkStatus = "delivered"
	WorkStatusBlocked           WorkStatus = "blocked"
	WorkStatusCancelled         WorkStatus = "cancelled"
	WorkStatusRevisionRequested WorkStatus = "revision_requested"
	WorkStatusArchived          WorkStatus = "archived"
)

// AllWorkStatuses returns every status known to either work item kind
func AllWorkStatuses() []WorkStatus {
	return []WorkStatus{
		WorkStatusTodo,
		WorkStatusDraft,
		WorkStatusInProgress,
		WorkStatusActive,
		WorkStatusInReview,
		WorkStatusApproved,
		WorkStatusDone,
		WorkStatusDelivered,
		WorkStatusBlocked,
		WorkStatusCancelled,
		WorkStatusRevisionRequested,
		WorkStatusArchived,
	}
}

// IsValid checks if the status is one of the known statuses
func (s WorkStatus) IsValid() bool {
	switch s {
	case WorkStatusTodo,
		WorkStatusDraft,
		WorkStatusInProgress,
		WorkStatusActive,
		WorkStatusInReview,
		WorkStatusApproved,
		WorkStatusDone,
		WorkStatusDelivered,
		WorkStatusBlocked,
		WorkStatusCancelled,
		WorkStatusRevisionRequested,
		WorkStatusArchived:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status accepts no outgoing edges
func (s WorkStatus) IsTerminal() bool {
	switch s {
	case WorkStatusDone, WorkStatusDelivered, WorkStatusCancelled, WorkStatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s WorkStatus) String() string {
	return string(s)
}

// ParseWorkStatus parses a string into a WorkStatus
func ParseWorkStatus(s string) (WorkStatus, error) {
	status := WorkStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid work status: %s", s)
	}
	return status, nil
}
