package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type workItemRepository struct {
	store *store
}

func (r *workItemRepository) Create(ctx context.Context, teamID types.TeamID, item *model.WorkItem) (*model.WorkItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	td := r.store.team(teamID, true)

	now := time.Now().UTC()
	created := item.Clone()
	created.ID = td.nextItemID[item.Kind] + 1
	created.TeamID = teamID
	created.Version = 1
	created.CreatedAt = now
	created.UpdatedAt = now
	td.nextItemID[item.Kind] = created.ID

	td.workItems[created.Ref()] = created
	return created.Clone(), nil
}

func (r *workItemRepository) Get(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.WorkItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	td := r.store.team(teamID, false)
	if td == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "work item not found", goerr.V(model.WorkItemKey, ref.String()))
	}
	item, ok := td.workItems[ref]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "work item not found", goerr.V(model.WorkItemKey, ref.String()))
	}
	return item.Clone(), nil
}

func (r *workItemRepository) ListWorkOrders(ctx context.Context, teamID types.TeamID, projectID int64) ([]*model.WorkItem, error) {
	return r.list(teamID, func(w *model.WorkItem) bool {
		return w.Kind == types.WorkItemKindWorkOrder && w.ProjectID == projectID
	}), nil
}

func (r *workItemRepository) ListTasks(ctx context.Context, teamID types.TeamID, workOrderID int64) ([]*model.WorkItem, error) {
	return r.list(teamID, func(w *model.WorkItem) bool {
		return w.Kind == types.WorkItemKindTask && w.WorkOrderID == workOrderID
	}), nil
}

func (r *workItemRepository) list(teamID types.TeamID, match func(*model.WorkItem) bool) []*model.WorkItem {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.WorkItem, 0)
	td := r.store.team(teamID, false)
	if td == nil {
		return result
	}
	for _, w := range td.workItems {
		if match(w) {
			result = append(result, w.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
