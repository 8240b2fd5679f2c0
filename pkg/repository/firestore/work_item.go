package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type workItemRepository struct {
	*base
}

func (r *workItemRepository) doc(teamID types.TeamID, ref model.WorkItemRef) *firestore.DocumentRef {
	return r.collection(teamID, CollectionWorkItems).Doc(ref.String())
}

func (r *workItemRepository) Create(ctx context.Context, teamID types.TeamID, item *model.WorkItem) (*model.WorkItem, error) {
	var created *model.WorkItem
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id, advance, err := r.nextID(tx, teamID, item.Kind.String())
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		created = item.Clone()
		created.ID = id
		created.TeamID = teamID
		created.Version = 1
		created.CreatedAt = now
		created.UpdatedAt = now

		if err := advance(); err != nil {
			return goerr.Wrap(err, "failed to advance work item counter")
		}
		return tx.Create(r.doc(teamID, created.Ref()), toWorkItemDoc(created))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work item",
			goerr.V(model.TeamIDKey, teamID),
			goerr.V("kind", item.Kind))
	}
	return created, nil
}

func (r *workItemRepository) Get(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.WorkItem, error) {
	snap, err := r.doc(teamID, ref).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "work item not found", goerr.V(model.WorkItemKey, ref.String()))
		}
		return nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}

	var d workItemDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode work item", goerr.V(model.WorkItemKey, ref.String()))
	}
	return d.toModel(teamID), nil
}

func (r *workItemRepository) ListWorkOrders(ctx context.Context, teamID types.TeamID, projectID int64) ([]*model.WorkItem, error) {
	q := r.collection(teamID, CollectionWorkItems).
		Where("kind", "==", types.WorkItemKindWorkOrder.String()).
		Where("project_id", "==", projectID).
		OrderBy("id", firestore.Asc)
	return r.query(ctx, teamID, q)
}

func (r *workItemRepository) ListTasks(ctx context.Context, teamID types.TeamID, workOrderID int64) ([]*model.WorkItem, error) {
	q := r.collection(teamID, CollectionWorkItems).
		Where("kind", "==", types.WorkItemKindTask.String()).
		Where("work_order_id", "==", workOrderID).
		OrderBy("id", firestore.Asc)
	return r.query(ctx, teamID, q)
}

func (r *workItemRepository) query(ctx context.Context, teamID types.TeamID, q firestore.Query) ([]*model.WorkItem, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	items := make([]*model.WorkItem, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate work items")
		}

		var d workItemDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode work item", goerr.V("doc_id", snap.Ref.ID))
		}
		items = append(items, d.toModel(teamID))
	}
	return items, nil
}
