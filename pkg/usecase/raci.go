package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// RACITarget names the project or work item whose assignment changes
type RACITarget struct {
	Kind types.RACITargetKind
	ID   int64
}

// RACIUpdate carries the requested fields. A nil field is left untouched; a
// pointer to the empty value clears it.
type RACIUpdate struct {
	Accountable *types.ActorID
	Responsible *types.ActorID
	Consulted   *[]types.ActorID
	Informed    *[]types.ActorID
}

// RACIChange describes one field that differs from the stored value
type RACIChange struct {
	Field types.RACIField
	From  string
	To    string
	// Overwrite is true when the field already held a value
	Overwrite bool
}

// RACIUpdateResult reports what UpdateRACI did. Item or Project holds the
// entity after the call.
type RACIUpdateResult struct {
	Updated              bool
	ConfirmationRequired bool
	Changes              []RACIChange
	Item                 *model.WorkItem
	Project              *model.Project
}

type RACIUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
	audit    *AuditUseCase
	clock    func() time.Time
}

func NewRACIUseCase(repo interfaces.Repository, registry *model.TeamRegistry, audit *AuditUseCase, clock func() time.Time) *RACIUseCase {
	return &RACIUseCase{
		repo:     repo,
		registry: registry,
		audit:    audit,
		clock:    clock,
	}
}

// UpdateRACI applies req to the target. Overwriting a populated field needs
// confirmed; without it the changes are returned and nothing is written.
func (uc *RACIUseCase) UpdateRACI(ctx context.Context, teamID types.TeamID, target RACITarget, actorID types.ActorID, req RACIUpdate, confirmed bool) (*RACIUpdateResult, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	if !target.Kind.IsValid() || target.ID <= 0 {
		return nil, goerr.Wrap(ErrValidation, "invalid RACI target",
			goerr.V("target_kind", target.Kind), goerr.V("target_id", target.ID))
	}
	if actorID.IsEmpty() {
		return nil, goerr.Wrap(ErrValidation, "actor is required")
	}
	actor, member := lookupActor(team, actorID)
	if !member && !team.IsOwner(actorID) {
		return nil, goerr.Wrap(ErrPermissionDenied, "actor is not a member of the team",
			goerr.V(model.ActorIDKey, actorID), goerr.V(model.TeamIDKey, teamID))
	}
	if err := validateRACIMembers(team, req); err != nil {
		return nil, err
	}

	var result *RACIUpdateResult
	err = commitWithRetry(ctx, uc.repo, func(ctx context.Context) (*model.ChangeSet, error) {
		if target.Kind == types.RACITargetProject {
			r, cs, err := uc.planProject(ctx, team, actor, target, req, confirmed)
			result = r
			return cs, err
		}
		r, cs, err := uc.planWorkItem(ctx, team, actor, target, req, confirmed)
		result = r
		return cs, err
	})
	if err != nil {
		return nil, err
	}

	if result.Updated {
		logging.From(ctx).Info("RACI updated",
			"team_id", teamID,
			"target", target.Kind,
			"target_id", target.ID,
			"changes", len(result.Changes),
			"actor_id", actorID,
		)
	}
	return result, nil
}

func (uc *RACIUseCase) planWorkItem(ctx context.Context, team *model.Team, actor model.Actor, target RACITarget, req RACIUpdate, confirmed bool) (*RACIUpdateResult, *model.ChangeSet, error) {
	ref := model.WorkItemRef{Kind: types.WorkItemKind(target.Kind), ID: target.ID}
	item, err := uc.repo.WorkItem().Get(ctx, team.ID, ref)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}

	next := applyRACIUpdate(item.RACI, req)
	if item.Kind == types.WorkItemKindWorkOrder && next.Accountable == "" {
		return nil, nil, goerr.Wrap(ErrAccountableRequired, "cannot clear the accountable member of a work order",
			goerr.V(model.WorkItemKey, ref.String()))
	}

	result := &RACIUpdateResult{Changes: diffRACI(item.RACI, next), Item: item}
	if len(result.Changes) == 0 {
		return result, nil, nil
	}
	if needsConfirmation(result.Changes) && !confirmed {
		result.ConfirmationRequired = true
		return result, nil, nil
	}

	now := uc.clock()
	updated := item.Clone()
	updated.RACI = next
	updated.Version = item.Version + 1
	updated.UpdatedAt = now

	cs := &model.ChangeSet{
		TeamID: team.ID,
		Item: &model.WorkItemUpdate{
			Ref:             ref,
			ExpectedVersion: item.Version,
			NewVersion:      updated.Version,
			RACI:            &next,
			UpdatedAt:       now,
		},
		AuditLogs: []*model.AuditLog{
			uc.audit.planRACI(team, actor, types.AuditTargetOf(ref.Kind), ref.String(), result.Changes, now),
		},
	}
	result.Updated = true
	result.Item = updated
	return result, cs, nil
}

func (uc *RACIUseCase) planProject(ctx context.Context, team *model.Team, actor model.Actor, target RACITarget, req RACIUpdate, confirmed bool) (*RACIUpdateResult, *model.ChangeSet, error) {
	project, err := uc.repo.Project().Get(ctx, team.ID, target.ID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, target.ID))
	}

	next := applyRACIUpdate(project.RACI, req)
	result := &RACIUpdateResult{Changes: diffRACI(project.RACI, next), Project: project}
	if len(result.Changes) == 0 {
		return result, nil, nil
	}
	if needsConfirmation(result.Changes) && !confirmed {
		result.ConfirmationRequired = true
		return result, nil, nil
	}

	now := uc.clock()
	updated := project.Clone()
	updated.RACI = next
	updated.Version = project.Version + 1
	updated.UpdatedAt = now

	cs := &model.ChangeSet{
		TeamID: team.ID,
		Project: &model.ProjectUpdate{
			ID:              project.ID,
			ExpectedVersion: project.Version,
			NewVersion:      updated.Version,
			RACI:            next,
			UpdatedAt:       now,
		},
		AuditLogs: []*model.AuditLog{
			uc.audit.planRACI(team, actor, types.AuditTargetProject, model.ProjectTargetID(project.ID), result.Changes, now),
		},
	}
	result.Updated = true
	result.Project = updated
	return result, cs, nil
}

func validateRACIMembers(team *model.Team, req RACIUpdate) error {
	var ids []types.ActorID
	if req.Accountable != nil {
		ids = append(ids, *req.Accountable)
	}
	if req.Responsible != nil {
		ids = append(ids, *req.Responsible)
	}
	if req.Consulted != nil {
		ids = append(ids, *req.Consulted...)
	}
	if req.Informed != nil {
		ids = append(ids, *req.Informed...)
	}

	for _, id := range ids {
		if id.IsEmpty() {
			continue
		}
		if !team.IsMember(id) {
			return goerr.Wrap(ErrInvalidRACIMember, "RACI member is not part of the team",
				goerr.V(model.ActorIDKey, id), goerr.V(model.TeamIDKey, team.ID))
		}
	}
	return nil
}

func applyRACIUpdate(current model.RACI, req RACIUpdate) model.RACI {
	next := current.Clone()
	if req.Accountable != nil {
		next.Accountable = *req.Accountable
	}
	if req.Responsible != nil {
		next.Responsible = *req.Responsible
	}
	if req.Consulted != nil {
		next.Consulted = compactIDs(*req.Consulted)
	}
	if req.Informed != nil {
		next.Informed = compactIDs(*req.Informed)
	}
	return next
}

// compactIDs drops empty and repeated IDs, keeping first occurrences
func compactIDs(ids []types.ActorID) []types.ActorID {
	var out []types.ActorID
	for _, id := range ids {
		if id.IsEmpty() || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// diffRACI lists changed fields in a fixed order
func diffRACI(from, to model.RACI) []RACIChange {
	var changes []RACIChange
	if from.Accountable != to.Accountable {
		changes = append(changes, RACIChange{
			Field:     types.RACIFieldAccountable,
			From:      displayID(from.Accountable),
			To:        displayID(to.Accountable),
			Overwrite: from.Accountable != "",
		})
	}
	if from.Responsible != to.Responsible {
		changes = append(changes, RACIChange{
			Field:     types.RACIFieldResponsible,
			From:      displayID(from.Responsible),
			To:        displayID(to.Responsible),
			Overwrite: from.Responsible != "",
		})
	}
	if !slices.Equal(from.Consulted, to.Consulted) {
		changes = append(changes, RACIChange{
			Field:     types.RACIFieldConsulted,
			From:      formatIDs(from.Consulted),
			To:        formatIDs(to.Consulted),
			Overwrite: len(from.Consulted) > 0,
		})
	}
	if !slices.Equal(from.Informed, to.Informed) {
		changes = append(changes, RACIChange{
			Field:     types.RACIFieldInformed,
			From:      formatIDs(from.Informed),
			To:        formatIDs(to.Informed),
			Overwrite: len(from.Informed) > 0,
		})
	}
	return changes
}

func needsConfirmation(changes []RACIChange) bool {
	for _, c := range changes {
		if c.Overwrite {
			return true
		}
	}
	return false
}

func formatIDs(ids []types.ActorID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = id.String()
	}
	return "[" + strings.Join(s, ", ") + "]"
}

func displayID(id types.ActorID) string {
	if id.IsEmpty() {
		return "(none)"
	}
	return id.String()
}
