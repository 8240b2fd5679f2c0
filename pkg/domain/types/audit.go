package types

// AuditAction tags what an AuditLog entry records
type AuditAction string

const (
	AuditActionStatusTransition AuditAction = "status_transition"
	AuditActionRACIUpdated      AuditAction = "raci_updated"
	AuditActionTimerStarted     AuditAction = "timer_started"
	AuditActionTimerStopped     AuditAction = "timer_stopped"
)

// String returns the string representation of the audit action
func (a AuditAction) String() string {
	return string(a)
}

// AuditTarget is the polymorphic target type of an AuditLog entry
type AuditTarget string

const (
	AuditTargetTask      AuditTarget = "task"
	AuditTargetWorkOrder AuditTarget = "work_order"
	AuditTargetProject   AuditTarget = "project"
)

// String returns the string representation of the audit target
func (a AuditTarget) String() string {
	return string(a)
}

// AuditTargetOf maps a work item kind to its audit target
func AuditTargetOf(kind WorkItemKind) AuditTarget {
	if kind == WorkItemKindWorkOrder {
		return AuditTargetWorkOrder
	}
	return AuditTargetTask
}
