package types

import "fmt"

// WorkItemKind discriminates the closed set of entities driven by the status
// state machine.
type WorkItemKind string

const (
	WorkItemKindTask      WorkItemKind = "task"
	WorkItemKindWorkOrder WorkItemKind = "work_order"
)

// AllWorkItemKinds returns all valid work item kinds
func AllWorkItemKinds() []WorkItemKind {
	return []WorkItemKind{
		WorkItemKindTask,
		WorkItemKindWorkOrder,
	}
}

// IsValid checks if the kind is valid
func (k WorkItemKind) IsValid() bool {
	switch k {
	case WorkItemKindTask, WorkItemKindWorkOrder:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind
func (k WorkItemKind) String() string {
	return string(k)
}

// InitialStatus returns the status a new item of this kind starts in
func (k WorkItemKind) InitialStatus() WorkStatus {
	if k == WorkItemKindWorkOrder {
		return WorkStatusDraft
	}
	return WorkStatusTodo
}

// ActiveStatus returns the "work in progress" status of this kind
func (k WorkItemKind) ActiveStatus() WorkStatus {
	if k == WorkItemKindWorkOrder {
		return WorkStatusActive
	}
	return WorkStatusInProgress
}

// CompletedStatus returns the final successful status of this kind
func (k WorkItemKind) CompletedStatus() WorkStatus {
	if k == WorkItemKindWorkOrder {
		return WorkStatusDelivered
	}
	return WorkStatusDone
}

// Statuses returns the closed set of statuses valid for this kind
func (k WorkItemKind) Statuses() []WorkStatus {
	return []WorkStatus{
		k.InitialStatus(),
		k.ActiveStatus(),
		WorkStatusInReview,
		WorkStatusApproved,
		k.CompletedStatus(),
		WorkStatusBlocked,
		WorkStatusCancelled,
		WorkStatusRevisionRequested,
		WorkStatusArchived,
	}
}

// Accepts reports whether the status belongs to this kind
func (k WorkItemKind) Accepts(s WorkStatus) bool {
	for _, st := range k.Statuses() {
		if st == s {
			return true
		}
	}
	return false
}

// ParseWorkItemKind parses a string into a WorkItemKind
func ParseWorkItemKind(s string) (WorkItemKind, error) {
	kind := WorkItemKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid work item kind: %s", s)
	}
	return kind, nil
}
