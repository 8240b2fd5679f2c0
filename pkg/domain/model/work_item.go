package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// WorkItemRef is a polymorphic reference to a Task or WorkOrder
type WorkItemRef struct {
	Kind types.WorkItemKind
	ID   int64
}

// TaskRef builds a reference to a task
func TaskRef(id int64) WorkItemRef {
	return WorkItemRef{Kind: types.WorkItemKindTask, ID: id}
}

// WorkOrderRef builds a reference to a work order
func WorkOrderRef(id int64) WorkItemRef {
	return WorkItemRef{Kind: types.WorkItemKindWorkOrder, ID: id}
}

// String returns "<kind>:<id>", e.g. "task:12"
func (r WorkItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Validate checks the kind and ID
func (r WorkItemRef) Validate() error {
	if !r.Kind.IsValid() {
		return goerr.Wrap(ErrInvalidWorkItem, "invalid work item kind", goerr.V(WorkItemKey, r.String()))
	}
	if r.ID <= 0 {
		return goerr.Wrap(ErrInvalidWorkItem, "invalid work item id", goerr.V(WorkItemKey, r.String()))
	}
	return nil
}

// ParseWorkItemRef parses the String() form back into a reference
func ParseWorkItemRef(s string) (WorkItemRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return WorkItemRef{}, goerr.Wrap(ErrInvalidWorkItem, "malformed work item reference", goerr.V(WorkItemKey, s))
	}
	k, err := types.ParseWorkItemKind(kind)
	if err != nil {
		return WorkItemRef{}, goerr.Wrap(ErrInvalidWorkItem, err.Error(), goerr.V(WorkItemKey, s))
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return WorkItemRef{}, goerr.Wrap(ErrInvalidWorkItem, "malformed work item id", goerr.V(WorkItemKey, s))
	}
	return WorkItemRef{Kind: k, ID: n}, nil
}

// WorkItem is a Task or WorkOrder, discriminated by Kind. WorkOrderID is only
// meaningful for tasks; for a work order it is zero.
type WorkItem struct {
	Kind        types.WorkItemKind
	ID          int64
	TeamID      types.TeamID
	ProjectID   int64
	WorkOrderID int64
	Title       string
	Description string
	Status      types.WorkStatus
	CreatedBy   types.ActorID
	AssignedTo  types.ActorID
	Reviewer    types.ActorID
	RACI        RACI
	DueDate     *time.Time
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Ref returns the polymorphic reference to this item
func (w *WorkItem) Ref() WorkItemRef {
	return WorkItemRef{Kind: w.Kind, ID: w.ID}
}

// IsTask reports whether the item is a task
func (w *WorkItem) IsTask() bool {
	return w.Kind == types.WorkItemKindTask
}

// Validate enforces the per-kind structural rules
func (w *WorkItem) Validate() error {
	if !w.Kind.IsValid() {
		return goerr.Wrap(ErrInvalidWorkItem, "invalid work item kind", goerr.V("kind", w.Kind))
	}
	if strings.TrimSpace(w.Title) == "" {
		return goerr.Wrap(ErrInvalidWorkItem, "title is required")
	}
	if !w.Kind.Accepts(w.Status) {
		return goerr.Wrap(ErrInvalidWorkItem, "status does not belong to kind",
			goerr.V("kind", w.Kind), goerr.V("status", w.Status))
	}
	switch w.Kind {
	case types.WorkItemKindWorkOrder:
		if w.RACI.Accountable == "" {
			return goerr.Wrap(ErrInvalidWorkItem, "work order requires an accountable member")
		}
		if w.ProjectID == 0 {
			return goerr.Wrap(ErrInvalidWorkItem, "work order requires a project")
		}
	case types.WorkItemKindTask:
		if w.WorkOrderID == 0 {
			return goerr.Wrap(ErrInvalidWorkItem, "task requires a work order")
		}
	}
	return nil
}

// Clone returns a deep copy
func (w *WorkItem) Clone() *WorkItem {
	if w == nil {
		return nil
	}
	c := *w
	c.RACI = w.RACI.Clone()
	if w.DueDate != nil {
		d := *w.DueDate
		c.DueDate = &d
	}
	return &c
}
