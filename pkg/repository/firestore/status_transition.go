package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type statusTransitionRepository struct {
	*base
}

func (r *statusTransitionRepository) ListByItem(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.StatusTransition, error) {
	q := r.collection(teamID, CollectionStatusTransitions).
		Where("item", "==", ref.String()).
		OrderBy("sequence", firestore.Desc)
	return r.query(ctx, teamID, q)
}

func (r *statusTransitionRepository) LatestInto(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, status types.WorkStatus) (*model.StatusTransition, error) {
	q := r.collection(teamID, CollectionStatusTransitions).
		Where("item", "==", ref.String()).
		Where("to_status", "==", status.String()).
		OrderBy("sequence", firestore.Desc).
		Limit(1)
	result, err := r.query(ctx, teamID, q)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

func (r *statusTransitionRepository) query(ctx context.Context, teamID types.TeamID, q firestore.Query) ([]*model.StatusTransition, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.StatusTransition, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate status transitions")
		}

		var d transitionDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode status transition", goerr.V("doc_id", snap.Ref.ID))
		}
		tr, err := d.toModel(teamID)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid status transition", goerr.V("doc_id", snap.Ref.ID))
		}
		result = append(result, tr)
	}
	return result, nil
}
