package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// WorkItemUpdate moves a work item from ExpectedVersion to NewVersion. An
// empty Status keeps the current status; a nil RACI keeps the assignment.
type WorkItemUpdate struct {
	Ref             WorkItemRef
	ExpectedVersion int64
	NewVersion      int64
	Status          types.WorkStatus
	RACI            *RACI
	UpdatedAt       time.Time
}

// ProjectUpdate replaces a project's RACI assignment
type ProjectUpdate struct {
	ID              int64
	ExpectedVersion int64
	NewVersion      int64
	RACI            RACI
	UpdatedAt       time.Time
}

// ChangeSet is everything one operation writes. Repositories apply it as a
// single atomic unit, guarded by the expected version of the updated entity.
// InboxItems and TimeEntries are upserted by ID; Transitions and AuditLogs
// are appended.
type ChangeSet struct {
	TeamID      types.TeamID
	Item        *WorkItemUpdate
	Project     *ProjectUpdate
	Transitions []*StatusTransition
	InboxItems  []*InboxItem
	AuditLogs   []*AuditLog
	TimeEntries []*TimeEntry
}

// Validate checks that the change set is internally consistent
func (cs *ChangeSet) Validate() error {
	if cs.TeamID == "" {
		return goerr.Wrap(ErrInvalidChangeSet, "team id is required")
	}
	if cs.Item != nil && cs.Project != nil {
		return goerr.Wrap(ErrInvalidChangeSet, "change set cannot update both a work item and a project")
	}
	if cs.Item != nil {
		if err := cs.Item.Ref.Validate(); err != nil {
			return goerr.Wrap(ErrInvalidChangeSet, "invalid work item reference")
		}
		if cs.Item.NewVersion <= cs.Item.ExpectedVersion {
			return goerr.Wrap(ErrInvalidChangeSet, "new version must be greater than expected version",
				goerr.V(WorkItemKey, cs.Item.Ref.String()))
		}
		if cs.Item.Status != "" && !cs.Item.Ref.Kind.Accepts(cs.Item.Status) {
			return goerr.Wrap(ErrInvalidChangeSet, "status does not belong to kind",
				goerr.V(WorkItemKey, cs.Item.Ref.String()), goerr.V(ToStatusKey, cs.Item.Status))
		}
	}
	if cs.Project != nil && cs.Project.NewVersion <= cs.Project.ExpectedVersion {
		return goerr.Wrap(ErrInvalidChangeSet, "new version must be greater than expected version",
			goerr.V("project_id", cs.Project.ID))
	}

	for _, tr := range cs.Transitions {
		if cs.Item == nil || tr.Item != cs.Item.Ref {
			return goerr.Wrap(ErrInvalidChangeSet, "transition does not belong to the updated item",
				goerr.V(WorkItemKey, tr.Item.String()))
		}
		if tr.TeamID != cs.TeamID {
			return goerr.Wrap(ErrInvalidChangeSet, "transition team mismatch")
		}
	}
	for _, it := range cs.InboxItems {
		if it.TeamID != cs.TeamID {
			return goerr.Wrap(ErrInvalidChangeSet, "inbox item team mismatch")
		}
	}
	for _, l := range cs.AuditLogs {
		if l.TeamID != cs.TeamID {
			return goerr.Wrap(ErrInvalidChangeSet, "audit log team mismatch")
		}
	}
	for _, e := range cs.TimeEntries {
		if e.TeamID != cs.TeamID {
			return goerr.Wrap(ErrInvalidChangeSet, "time entry team mismatch")
		}
	}
	return nil
}
