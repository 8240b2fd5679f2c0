package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type auditLogRepository struct {
	*base
}

func (r *auditLogRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.AuditFilter) ([]*model.AuditLog, error) {
	q := r.collection(teamID, CollectionAuditLogs).Query
	if filter.Target != "" {
		q = q.Where("target", "==", filter.Target.String())
	}
	if filter.TargetID != "" {
		q = q.Where("target_id", "==", filter.TargetID)
	}
	if filter.Action != "" {
		q = q.Where("action", "==", filter.Action.String())
	}
	q = q.OrderBy("timestamp", firestore.Desc)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	logs := make([]*model.AuditLog, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit logs")
		}

		var d auditLogDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit log", goerr.V("doc_id", snap.Ref.ID))
		}
		logs = append(logs, d.toModel(teamID))
	}
	return logs, nil
}
