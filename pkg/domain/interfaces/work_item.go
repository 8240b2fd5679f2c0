package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// WorkItemRepository defines the interface for Task and WorkOrder data access.
// Status and RACI changes go through Repository.Commit.
type WorkItemRepository interface {
	// Create stores a new work item with auto-generated ID (per kind) and Version 1
	Create(ctx context.Context, teamID types.TeamID, item *model.WorkItem) (*model.WorkItem, error)

	// Get retrieves a work item by reference
	Get(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.WorkItem, error)

	// ListWorkOrders retrieves the work orders of a project ordered by ID
	ListWorkOrders(ctx context.Context, teamID types.TeamID, projectID int64) ([]*model.WorkItem, error)

	// ListTasks retrieves the tasks of a work order ordered by ID
	ListTasks(ctx context.Context, teamID types.TeamID, workOrderID int64) ([]*model.WorkItem, error)
}
