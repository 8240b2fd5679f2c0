package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type timeEntryRepository struct {
	*base
}

func (r *timeEntryRepository) Running(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error) {
	q := r.collection(teamID, CollectionTimeEntries).
		Where("task_id", "==", taskID).
		Where("actor_id", "==", actorID.String()).
		Where("running", "==", true).
		Limit(1)
	entries, err := r.query(ctx, teamID, q)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

func (r *timeEntryRepository) ListByTask(ctx context.Context, teamID types.TeamID, taskID int64) ([]*model.TimeEntry, error) {
	q := r.collection(teamID, CollectionTimeEntries).
		Where("task_id", "==", taskID).
		OrderBy("started_at", firestore.Desc)
	return r.query(ctx, teamID, q)
}

func (r *timeEntryRepository) query(ctx context.Context, teamID types.TeamID, q firestore.Query) ([]*model.TimeEntry, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	entries := make([]*model.TimeEntry, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate time entries")
		}

		var d timeEntryDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode time entry", goerr.V("doc_id", snap.Ref.ID))
		}
		entries = append(entries, d.toModel(teamID))
	}
	return entries, nil
}
