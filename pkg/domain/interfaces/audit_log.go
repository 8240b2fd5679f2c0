package interfaces

import (
	"context"

	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// AuditFilter narrows audit log listings. Zero values match everything.
type AuditFilter struct {
	Target   types.AuditTarget
	TargetID string
	Action   types.AuditAction
	Limit    int
}

// Match reports whether the log satisfies the filter, ignoring Limit
func (f AuditFilter) Match(l *model.AuditLog) bool {
	if f.Target != "" && l.Target != f.Target {
		return false
	}
	if f.TargetID != "" && l.TargetID != f.TargetID {
		return false
	}
	if f.Action != "" && l.Action != f.Action {
		return false
	}
	return true
}

// AuditLogRepository reads the append-only audit log
type AuditLogRepository interface {
	// List returns entries newest first
	List(ctx context.Context, teamID types.TeamID, filter AuditFilter) ([]*model.AuditLog, error)
}
