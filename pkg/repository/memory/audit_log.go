package memory

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

type auditLogRepository struct {
	store *store
}

// List walks the append-only slice backwards, which yields newest first
// without sorting.
func (r *auditLogRepository) List(ctx context.Context, teamID types.TeamID, filter interfaces.AuditFilter) ([]*model.AuditLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.AuditLog, 0)
	td := r.store.team(teamID, false)
	if td == nil {
		return result, nil
	}
	for i := len(td.auditLogs) - 1; i >= 0; i-- {
		l := td.auditLogs[i]
		if !filter.Match(l) {
			continue
		}
		c := *l
		result = append(result, &c)
		if filter.Limit > 0 && len(result) >= filter.Limit {
			break
		}
	}
	return result, nil
}
