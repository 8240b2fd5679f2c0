package types

// RACIField names a RACI field in change listings and audit details
type RACIField string

const (
	RACIFieldAccountable RACIField = "accountable_id"
	RACIFieldResponsible RACIField = "responsible_id"
	RACIFieldConsulted   RACIField = "consulted_ids"
	RACIFieldInformed    RACIField = "informed_ids"
)

// String returns the string representation of the field
func (f RACIField) String() string {
	return string(f)
}

// RACITargetKind is the kind of entity carrying RACI fields
type RACITargetKind string

const (
	RACITargetProject   RACITargetKind = "project"
	RACITargetWorkOrder RACITargetKind = "work_order"
	RACITargetTask      RACITargetKind = "task"
)

// IsValid checks if the target kind is valid
func (k RACITargetKind) IsValid() bool {
	switch k {
	case RACITargetProject, RACITargetWorkOrder, RACITargetTask:
		return true
	default:
		return false
	}
}

// String returns the string representation of the target kind
func (k RACITargetKind) String() string {
	return string(k)
}
