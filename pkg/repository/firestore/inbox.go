package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type inboxRepository struct {
	*base
}

func (r *inboxRepository) Get(ctx context.Context, teamID types.TeamID, id string) (*model.InboxItem, error) {
	snap, err := r.collection(teamID, CollectionInboxItems).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "inbox item not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get inbox item", goerr.V("id", id))
	}
	return decodeInbox(teamID, snap)
}

func (r *inboxRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.InboxFilter) ([]*model.InboxItem, error) {
	q := r.collection(teamID, CollectionInboxItems).Query
	if !filter.IncludeArchived {
		q = q.Where("archived", "==", false)
	}
	if filter.ReviewerID != "" {
		q = q.Where("reviewer_id", "==", filter.ReviewerID.String())
	}
	return r.query(ctx, teamID, q.OrderBy("created_at", firestore.Desc))
}

func (r *inboxRepository) OpenFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.InboxItem, error) {
	items, err := r.query(ctx, teamID, openInboxQuery(r.base, teamID, ref))
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

func (r *inboxRepository) ListFor(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.InboxItem, error) {
	q := r.collection(teamID, CollectionInboxItems).
		Where("approvable", "==", ref.String()).
		OrderBy("created_at", firestore.Desc)
	return r.query(ctx, teamID, q)
}

func openInboxQuery(b *base, teamID types.TeamID, ref model.WorkItemRef) firestore.Query {
	return b.collection(teamID, CollectionInboxItems).
		Where("approvable", "==", ref.String()).
		Where("archived", "==", false)
}

func (r *inboxRepository) query(ctx context.Context, teamID types.TeamID, q firestore.Query) ([]*model.InboxItem, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	result := make([]*model.InboxItem, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate inbox items")
		}
		it, err := decodeInbox(teamID, snap)
		if err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, nil
}

func decodeInbox(teamID types.TeamID, snap *firestore.DocumentSnapshot) (*model.InboxItem, error) {
	var d inboxDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode inbox item", goerr.V("doc_id", snap.Ref.ID))
	}
	it, err := d.toModel(teamID)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid inbox item", goerr.V("doc_id", snap.Ref.ID))
	}
	return it, nil
}
