package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type inboxRepository struct {
	store *store
}

func (r *inboxRepository) Get(ctx context.Context, teamID types.TeamID, id string) (*model.InboxItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	td := r.store.team(teamID, false)
	if td == nil {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "inbox item not found", goerr.V("id", id))
	}
	it, ok := td.inboxItems[id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "inbox item not found", goerr.V("id", id))
	}
	return it.Clone(), nil
}

func (r *inboxRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.InboxFilter) ([]*model.InboxItem, error) {
	return r.collect(teamID, func(it *model.InboxItem) bool {
		if !filter.IncludeArchived && !it.IsOpen() {
			return false
		}
		return filter.ReviewerID == "" || it.ReviewerID == filter.ReviewerID
	}), nil
}

func (r *inboxRepository) OpenFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.InboxItem, error) {
	items := r.collect(teamID, func(it *model.InboxItem) bool {
		return it.Approvable == ref && it.IsOpen()
	})
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *inboxRepository) ListFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.InboxItem, error) {
	return r.collect(teamID, func(it *model.InboxItem) bool {
		return it.Approvable == ref
	}), nil
}

func (r *inboxRepository) collect(teamID types.TeamID, match func(*model.InboxItem) bool) []*model.InboxItem {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.InboxItem, 0)
	td := r.store.team(teamID, false)
	if td == nil {
		return result
	}
	for _, it := range td.inboxItems {
		if match(it) {
			result = append(result, it.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
