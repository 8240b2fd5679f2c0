package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/async"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// TransitionResult is returned by a successful transition. Transition is the
// most recent history row, which is the system cascade after a rejection.
type TransitionResult struct {
	Item       *model.WorkItem
	Transition *model.StatusTransition
	History    []*model.StatusTransition
}

// WorkflowUseCase drives the status state machine of tasks and work orders
type WorkflowUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
	reviewer *ReviewerResolver
	inbox    *InboxUseCase
	audit    *AuditUseCase
	notifier *reviewNotifier
	clock    func() time.Time
}

func NewWorkflowUseCase(
	repo interfaces.Repository,
	registry *model.TeamRegistry,
	reviewer *ReviewerResolver,
	inbox *InboxUseCase,
	audit *AuditUseCase,
	notifier *reviewNotifier,
	clock func() time.Time,
) *WorkflowUseCase {
	return &WorkflowUseCase{
		repo:     repo,
		registry: registry,
		reviewer: reviewer,
		inbox:    inbox,
		audit:    audit,
		notifier: notifier,
		clock:    clock,
	}
}

// workContext is everything a decision about one item needs, read at one
// version of the item
type workContext struct {
	team      *model.Team
	actor     model.Actor
	member    bool
	item      *model.WorkItem
	workOrder *model.WorkItem
	project   *model.Project
	openInbox *model.InboxItem
	// latestSubmission is the most recent transition into in_review
	latestSubmission *model.StatusTransition
}

// lookupActor resolves a caller-supplied actor ID. The system actor cannot
// be claimed by callers and resolves like any unknown ID.
func lookupActor(team *model.Team, id types.ActorID) (model.Actor, bool) {
	m, ok := team.Member(id)
	if !ok {
		return model.Actor{ID: id, Kind: types.ActorKindUser, Name: id.String()}, false
	}
	return model.Actor{ID: m.ID, Kind: m.Kind, Name: m.Name}, true
}

func validateRequest(teamID types.TeamID, ref model.WorkItemRef, actorID types.ActorID) error {
	if err := ref.Validate(); err != nil {
		return goerr.Wrap(ErrValidation, err.Error(), goerr.V(model.TeamIDKey, teamID))
	}
	if actorID.IsEmpty() {
		return goerr.Wrap(ErrValidation, "actor is required", goerr.V(model.WorkItemKey, ref.String()))
	}
	return nil
}

// load reads the item and, in parallel, its enclosing work order and
// project, its open inbox item and its latest submission for review
func (uc *WorkflowUseCase) load(ctx context.Context, team *model.Team, ref model.WorkItemRef, actorID types.ActorID) (*workContext, error) {
	item, err := uc.repo.WorkItem().Get(ctx, team.ID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get work item",
			goerr.V(model.TeamIDKey, team.ID), goerr.V(model.WorkItemKey, ref.String()))
	}

	actor, member := lookupActor(team, actorID)
	wc := &workContext{team: team, actor: actor, member: member, item: item, workOrder: item}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if item.IsTask() {
			wo, err := uc.repo.WorkItem().Get(egCtx, team.ID, model.WorkOrderRef(item.WorkOrderID))
			if err != nil {
				return goerr.Wrap(err, "failed to get parent work order", goerr.V(model.WorkItemKey, ref.String()))
			}
			wc.workOrder = wo
		}
		project, err := uc.repo.Project().Get(egCtx, team.ID, wc.workOrder.ProjectID)
		if err != nil {
			return goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, wc.workOrder.ProjectID))
		}
		wc.project = project
		return nil
	})
	eg.Go(func() error {
		open, err := uc.repo.Inbox().OpenFor(egCtx, team.ID, ref)
		if err != nil {
			return goerr.Wrap(err, "failed to get open inbox item", goerr.V(model.WorkItemKey, ref.String()))
		}
		wc.openInbox = open
		return nil
	})
	eg.Go(func() error {
		latest, err := uc.repo.StatusTransition().LatestInto(egCtx, team.ID, ref, types.WorkStatusInReview)
		if err != nil {
			return goerr.Wrap(err, "failed to get latest submission", goerr.V(model.WorkItemKey, ref.String()))
		}
		wc.latestSubmission = latest
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return wc, nil
}

// capabilities computes the actor's standing on the loaded item. The
// reviewer is resolved only when withReviewer is set.
func (wc *workContext) capabilities(withReviewer bool) (model.ActorCapabilities, error) {
	caps := model.ActorCapabilities{
		IsOwner:    wc.team.IsOwner(wc.actor.ID),
		IsAgent:    wc.actor.IsAgent(),
		IsSystem:   wc.actor.IsSystem(),
		IsMember:   wc.member,
		IsAssignee: wc.item.AssignedTo != "" && wc.item.AssignedTo == wc.actor.ID,
	}
	if wc.latestSubmission != nil && wc.latestSubmission.ActorID == wc.actor.ID {
		caps.IsLatestSubmitter = true
	}
	if withReviewer {
		reviewer, err := wc.resolveReviewer()
		if err != nil {
			return caps, err
		}
		caps.IsResolvedReviewer = reviewer == wc.actor.ID
	}
	return caps, nil
}

func (wc *workContext) resolveReviewer() (types.ActorID, error) {
	return resolveReviewer(wc.item, wc.workOrder, wc.project)
}

// decide runs the decision function for one target status
func (wc *workContext) decide(to types.WorkStatus, comment string) error {
	from := wc.item.Status
	withReviewer := model.IsAllowedEdge(wc.item.Kind, from, to) && model.IsApproval(to)
	caps, err := wc.capabilities(withReviewer)
	if err != nil {
		return err
	}
	if err := model.DecideTransition(wc.item.Kind, from, to, comment, caps); err != nil {
		return goerr.Wrap(err, "transition refused",
			goerr.V(model.TeamIDKey, wc.team.ID),
			goerr.V(model.WorkItemKey, wc.item.Ref().String()),
			goerr.V(model.FromStatusKey, from),
			goerr.V(model.ToStatusKey, to),
			goerr.V(model.ActorIDKey, wc.actor.ID))
	}
	return nil
}

// transitionPlan is a change set under construction for one item
type transitionPlan struct {
	cs      *model.ChangeSet
	item    *model.WorkItem
	opened  *model.InboxItem
	version int64
	now     time.Time
}

func newTransitionPlan(wc *workContext, now time.Time) *transitionPlan {
	return &transitionPlan{
		cs:      &model.ChangeSet{TeamID: wc.team.ID},
		item:    wc.item.Clone(),
		version: wc.item.Version,
		now:     now,
	}
}

// bump records that the item changes without taking an edge
func (p *transitionPlan) bump() {
	p.version++
}

// finish sets the version-guarded item update; call after all steps
func (p *transitionPlan) finish(expected int64, status types.WorkStatus) *model.ChangeSet {
	p.item.Version = p.version
	p.item.UpdatedAt = p.now
	p.cs.Item = &model.WorkItemUpdate{
		Ref:             p.item.Ref(),
		ExpectedVersion: expected,
		NewVersion:      p.version,
		Status:          status,
		UpdatedAt:       p.now,
	}
	return p.cs
}

// planTransition appends one edge, with its audit entry and inbox side
// effects, to p. The edge must already have been decided.
func (uc *WorkflowUseCase) planTransition(wc *workContext, p *transitionPlan, actor model.Actor, to types.WorkStatus, comment string) error {
	from := p.item.Status
	ref := p.item.Ref()

	p.version++
	p.cs.Transitions = append(p.cs.Transitions, &model.StatusTransition{
		ID:         uuid.NewString(),
		TeamID:     wc.team.ID,
		Item:       ref,
		ActorKind:  actor.Kind,
		ActorID:    actor.ID,
		FromStatus: from,
		ToStatus:   to,
		Comment:    comment,
		Sequence:   p.version,
		CreatedAt:  p.now,
	})
	p.cs.AuditLogs = append(p.cs.AuditLogs, uc.audit.planTransition(wc.team, actor, ref, from, to, comment, p.now))
	p.item.Status = to

	open := wc.openInbox
	if open != nil && from == types.WorkStatusInReview {
		switch {
		case model.IsApproval(to):
			p.cs.InboxItems = append(p.cs.InboxItems, uc.inbox.planResolve(open, types.ResolutionApproved, p.now))
		case model.IsRejection(to):
			p.cs.InboxItems = append(p.cs.InboxItems, uc.inbox.planResolve(open, types.ResolutionRejected, p.now))
		default:
			p.cs.InboxItems = append(p.cs.InboxItems, uc.inbox.planWithdraw(open, p.now))
		}
	}

	if to == types.WorkStatusInReview {
		if open != nil && from != types.WorkStatusInReview {
			// stale item left open outside review; the new request replaces it
			p.cs.InboxItems = append(p.cs.InboxItems, uc.inbox.planWithdraw(open, p.now))
		}
		reviewer, err := wc.resolveReviewer()
		if err != nil {
			return err
		}
		p.opened = uc.inbox.planOpen(p.item, reviewer, actor.ID, wc.project, wc.workOrder, p.now)
		p.cs.InboxItems = append(p.cs.InboxItems, p.opened)
	}

	if model.IsRejection(to) {
		// the rejection hands work straight back to the assignee
		return uc.planTransition(wc, p, model.SystemActor, p.item.Kind.ActiveStatus(), "")
	}
	return nil
}

// Transition moves the item to status to on behalf of actorID. Refusals
// satisfy errors.Is(err, model.ErrInvalidTransition) and carry a
// *model.TransitionError.
func (uc *WorkflowUseCase) Transition(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, actorID types.ActorID, to types.WorkStatus, comment string) (*TransitionResult, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(teamID, ref, actorID); err != nil {
		return nil, err
	}

	var (
		wc   *workContext
		plan *transitionPlan
	)
	err = commitWithRetry(ctx, uc.repo, func(ctx context.Context) (*model.ChangeSet, error) {
		loaded, err := uc.load(ctx, team, ref, actorID)
		if err != nil {
			return nil, err
		}
		if err := loaded.decide(to, comment); err != nil {
			return nil, err
		}

		p := newTransitionPlan(loaded, uc.clock())
		if err := uc.planTransition(loaded, p, loaded.actor, to, comment); err != nil {
			return nil, err
		}
		wc, plan = loaded, p
		return p.finish(loaded.item.Version, p.item.Status), nil
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("work item transitioned",
		"team_id", teamID,
		"work_item", ref.String(),
		"from", wc.item.Status,
		"to", plan.item.Status,
		"actor_id", actorID,
	)
	uc.dispatchReviewRequest(ctx, team, plan.opened)

	history, err := uc.repo.StatusTransition().ListByItem(ctx, teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list status transitions", goerr.V(model.WorkItemKey, ref.String()))
	}

	result := &TransitionResult{Item: plan.item, History: history}
	if len(history) > 0 {
		result.Transition = history[0]
	}
	return result, nil
}

func (uc *WorkflowUseCase) dispatchReviewRequest(ctx context.Context, team *model.Team, opened *model.InboxItem) {
	if opened == nil || !uc.notifier.enabled(team) {
		return
	}
	async.Dispatch(ctx, "notify_reviewer", func(ctx context.Context) error {
		return uc.notifier.notifyReviewRequested(ctx, team, opened)
	})
}

// CanTransition reports whether actorID may move the item to status to.
// The error is reserved for lookup failures.
func (uc *WorkflowUseCase) CanTransition(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, actorID types.ActorID, to types.WorkStatus) (bool, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return false, err
	}
	if err := validateRequest(teamID, ref, actorID); err != nil {
		return false, err
	}

	wc, err := uc.load(ctx, team, ref, actorID)
	if err != nil {
		return false, err
	}

	// the comment requirement is a property of the request, not of the actor
	comment := ""
	if model.IsRejection(to) {
		comment = "-"
	}
	if err := wc.decide(to, comment); err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AvailableTransitions returns the statuses actorID may move the item to,
// in transition table order
func (uc *WorkflowUseCase) AvailableTransitions(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef, actorID types.ActorID) ([]types.WorkStatus, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(teamID, ref, actorID); err != nil {
		return nil, err
	}

	wc, err := uc.load(ctx, team, ref, actorID)
	if err != nil {
		return nil, err
	}
	return wc.available()
}

func (wc *workContext) available() ([]types.WorkStatus, error) {
	kind, from := wc.item.Kind, wc.item.Status
	targets := model.AllowedTargets(kind, from)

	needReviewer := false
	for _, to := range targets {
		if model.IsApproval(to) {
			needReviewer = true
		}
	}
	caps, err := wc.capabilities(needReviewer)
	if err != nil {
		return nil, err
	}

	available := []types.WorkStatus{}
	for _, to := range targets {
		comment := ""
		if model.IsRejection(to) {
			comment = "-"
		}
		if model.DecideTransition(kind, from, to, comment, caps) == nil {
			available = append(available, to)
		}
	}
	return available, nil
}

// History returns the transitions of an item, most recent first
func (uc *WorkflowUseCase) History(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) ([]*model.StatusTransition, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error())
	}
	if _, err := uc.repo.WorkItem().Get(ctx, teamID, ref); err != nil {
		return nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}

	history, err := uc.repo.StatusTransition().ListByItem(ctx, teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list status transitions", goerr.V(model.WorkItemKey, ref.String()))
	}
	return history, nil
}
