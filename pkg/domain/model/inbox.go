package model

import (
	"slices"
	"time"

	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// InboxResolution records how an approval request was closed
type InboxResolution struct {
	Outcome types.ResolutionOutcome
	At      time.Time
}

// InboxItem is an approval-queue entry projected from review transitions.
// It is archived, never deleted, once resolved or withdrawn.
type InboxItem struct {
	ID             string
	TeamID         types.TeamID
	Type           types.InboxItemType
	Approvable     WorkItemRef
	ReviewerID     types.ActorID
	RequestedBy    types.ActorID
	Title          string
	ContentPreview string
	RelatedNames   []string
	Urgency        types.Urgency
	DueDate        *time.Time
	Resolution     *InboxResolution
	ArchivedAt     *time.Time
	CreatedAt      time.Time
}

// IsOpen reports whether the item is still waiting for a decision
func (i *InboxItem) IsOpen() bool {
	return i.ArchivedAt == nil
}

// ApprovedAt returns the approval time, if the item was approved
func (i *InboxItem) ApprovedAt() *time.Time {
	if i.Resolution == nil || i.Resolution.Outcome != types.ResolutionApproved {
		return nil
	}
	at := i.Resolution.At
	return &at
}

// RejectedAt returns the rejection time, if the item was rejected
func (i *InboxItem) RejectedAt() *time.Time {
	if i.Resolution == nil || i.Resolution.Outcome != types.ResolutionRejected {
		return nil
	}
	at := i.Resolution.At
	return &at
}

// Resolve records the outcome and archives the item
func (i *InboxItem) Resolve(outcome types.ResolutionOutcome, at time.Time) {
	i.Resolution = &InboxResolution{Outcome: outcome, At: at}
	i.Archive(at)
}

// Archive soft-deletes the item without recording an outcome
func (i *InboxItem) Archive(at time.Time) {
	i.ArchivedAt = &at
}

// Clone returns a deep copy
func (i *InboxItem) Clone() *InboxItem {
	if i == nil {
		return nil
	}
	c := *i
	c.RelatedNames = slices.Clone(i.RelatedNames)
	if i.DueDate != nil {
		d := *i.DueDate
		c.DueDate = &d
	}
	if i.Resolution != nil {
		r := *i.Resolution
		c.Resolution = &r
	}
	if i.ArchivedAt != nil {
		a := *i.ArchivedAt
		c.ArchivedAt = &a
	}
	return &c
}
