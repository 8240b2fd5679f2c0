package memory

import (
	"context"
	"sort"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type statusTransitionRepository struct {
	store *store
}

func (r *statusTransitionRepository) ListByItem(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.StatusTransition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.StatusTransition, 0)
	td := r.store.team(teamID, false)
	if td == nil {
		return result, nil
	}
	for _, tr := range td.transitions {
		if tr.Item == ref {
			c := *tr
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Sequence > result[j].Sequence })
	return result, nil
}

func (r *statusTransitionRepository) LatestInto(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, status types.WorkStatus) (*model.StatusTransition, error) {
	history, err := r.ListByItem(ctx, teamID, ref)
	if err != nil {
		return nil, err
	}
	for _, tr := range history {
		if tr.ToStatus == status {
			return tr, nil
		}
	}
	return nil, nil
}
