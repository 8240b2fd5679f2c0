package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// ReviewerResolver determines who holds approval authority over a work item
type ReviewerResolver struct {
	repo interfaces.Repository
}

func NewReviewerResolver(repo interfaces.Repository) *ReviewerResolver {
	return &ReviewerResolver{repo: repo}
}

// Resolve loads the enclosing work order and project of item and returns its
// reviewer. It fails with ErrReviewerUnresolvable when no level yields one.
func (r *ReviewerResolver) Resolve(ctx context.Context, item *model.WorkItem) (types.ActorID, error) {
	workOrder := item
	if item.IsTask() {
		wo, err := r.repo.WorkItem().Get(ctx, item.TeamID, model.WorkOrderRef(item.WorkOrderID))
		if err != nil {
			return "", goerr.Wrap(err, "failed to get parent work order",
				goerr.V(model.WorkItemKey, item.Ref().String()))
		}
		workOrder = wo
	}

	project, err := r.repo.Project().Get(ctx, item.TeamID, workOrder.ProjectID)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, workOrder.ProjectID))
	}

	return resolveReviewer(item, workOrder, project)
}

// resolveReviewer applies the priority order, first non-empty wins:
//  1. the item's explicit reviewer
//  2. the item's accountable; a task falls through to its work order's
//  3. the work order's assignee (never the task's own)
//  4. the project owner
func resolveReviewer(item, workOrder *model.WorkItem, project *model.Project) (types.ActorID, error) {
	if item.Reviewer != "" {
		return item.Reviewer, nil
	}
	if item.RACI.Accountable != "" {
		return item.RACI.Accountable, nil
	}
	if workOrder != nil {
		if workOrder.RACI.Accountable != "" {
			return workOrder.RACI.Accountable, nil
		}
		if workOrder.AssignedTo != "" {
			return workOrder.AssignedTo, nil
		}
	}
	if project != nil && project.OwnerID != "" {
		return project.OwnerID, nil
	}
	return "", goerr.Wrap(ErrReviewerUnresolvable, "no reviewer for work item",
		goerr.V(model.WorkItemKey, item.Ref().String()))
}
