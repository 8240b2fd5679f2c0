package types

// InboxItemType classifies inbox entries
type InboxItemType string

const (
	InboxItemTypeApproval InboxItemType = "approval"
)

// String returns the string representation of the inbox item type
func (t InboxItemType) String() string {
	return string(t)
}

// ResolutionOutcome is how an approval request was closed
type ResolutionOutcome string

const (
	ResolutionApproved ResolutionOutcome = "approved"
	ResolutionRejected ResolutionOutcome = "rejected"
)

// String returns the string representation of the outcome
func (o ResolutionOutcome) String() string {
	return string(o)
}
