package memory

import (
	"context"
	"sort"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type timeEntryRepository struct {
	store *store
}

func (r *timeEntryRepository) Running(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error) {
	entries, err := r.ListByTask(ctx, teamID, taskID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ActorID == actorID && e.IsRunning() {
			return e, nil
		}
	}
	return nil, nil
}

func (r *timeEntryRepository) ListByTask(ctx context.Context, teamID types.TeamID, taskID int64) ([]*model.TimeEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.TimeEntry, 0)
	td := r.store.team(teamID, false)
	if td == nil {
		return result, nil
	}
	for _, e := range td.timeEntries {
		if e.TaskID == taskID {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartedAt.After(result[j].StartedAt) })
	return result, nil
}
