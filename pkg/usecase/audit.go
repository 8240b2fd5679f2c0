package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

// AuditUseCase builds audit log entries for state-changing operations and
// reads them back. Entries are written only inside change sets.
type AuditUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
}

func NewAuditUseCase(repo interfaces.Repository, registry *model.TeamRegistry) *AuditUseCase {
	return &AuditUseCase{repo: repo, registry: registry}
}

// List returns entries newest first
func (uc *AuditUseCase) List(ctx context.Context, teamID types.TeamID, filter interfaces.AuditFilter) ([]*model.AuditLog, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	logs, err := uc.repo.AuditLog().List(ctx, teamID, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit logs", goerr.V(model.TeamIDKey, teamID))
	}
	return logs, nil
}

func (uc *AuditUseCase) entry(team *model.Team, actor model.Actor, action types.AuditAction, target types.AuditTarget, targetID, details string, now time.Time) *model.AuditLog {
	name := actor.Name
	if name == "" {
		name = team.ActorName(actor.ID)
	}
	return &model.AuditLog{
		ID:        uuid.NewString(),
		TeamID:    team.ID,
		ActorKind: actor.Kind,
		ActorID:   actor.ID,
		ActorName: name,
		Action:    action,
		Target:    target,
		TargetID:  targetID,
		Details:   details,
		Timestamp: now,
	}
}

func (uc *AuditUseCase) planTransition(team *model.Team, actor model.Actor, ref model.WorkItemRef, from, to types.WorkStatus, comment string, now time.Time) *model.AuditLog {
	details := fmt.Sprintf("status: %s -> %s", from, to)
	if c := strings.TrimSpace(comment); c != "" {
		details += fmt.Sprintf(" (comment: %s)", c)
	}
	return uc.entry(team, actor, types.AuditActionStatusTransition, types.AuditTargetOf(ref.Kind), ref.String(), details, now)
}

func (uc *AuditUseCase) planRACI(team *model.Team, actor model.Actor, target types.AuditTarget, targetID string, changes []RACIChange, now time.Time) *model.AuditLog {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s: %s -> %s", c.Field, c.From, c.To))
	}
	return uc.entry(team, actor, types.AuditActionRACIUpdated, target, targetID, strings.Join(parts, "; "), now)
}

func (uc *AuditUseCase) planTimer(team *model.Team, actor model.Actor, action types.AuditAction, entry *model.TimeEntry, now time.Time) *model.AuditLog {
	details := fmt.Sprintf("time_entry: %s", entry.ID)
	if entry.StoppedAt != nil {
		details += fmt.Sprintf(" (%s)", entry.StoppedAt.Sub(entry.StartedAt).Round(time.Second))
	}
	return uc.entry(team, actor, action, types.AuditTargetTask, model.TaskRef(entry.TaskID).String(), details, now)
}
