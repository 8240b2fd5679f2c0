package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// TimerStartResult is the outcome of CheckAndStartTimer. TimeEntry and Item
// are set only when the timer started.
type TimerStartResult struct {
	Status        types.TimerStartStatus
	CurrentStatus types.WorkStatus
	Message       string
	TimeEntry     *model.TimeEntry
	Item          *model.WorkItem
}

// TimerUseCase couples time tracking on tasks to the status machine. Starting
// a timer puts the task in progress; reopening gated or finished work needs
// explicit confirmation.
type TimerUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
	workflow *WorkflowUseCase
	clock    func() time.Time
}

func NewTimerUseCase(repo interfaces.Repository, registry *model.TeamRegistry, workflow *WorkflowUseCase, clock func() time.Time) *TimerUseCase {
	return &TimerUseCase{
		repo:     repo,
		registry: registry,
		workflow: workflow,
		clock:    clock,
	}
}

func isBlockedForTimer(status types.WorkStatus) bool {
	return status == types.WorkStatusCancelled || status == types.WorkStatusArchived
}

// CheckAndStartTimer starts the actor's timer on a task when that needs no
// confirmation. Cancelled and archived tasks are blocked; gated or finished
// tasks return confirmation_required without writing anything.
func (uc *TimerUseCase) CheckAndStartTimer(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*TimerStartResult, error) {
	return uc.start(ctx, teamID, taskID, actorID, false)
}

// ConfirmAndStartTimer starts the timer, reopening the task to in_progress
// from whatever non-terminal status it is in
func (uc *TimerUseCase) ConfirmAndStartTimer(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error) {
	result, err := uc.start(ctx, teamID, taskID, actorID, true)
	if err != nil {
		return nil, err
	}
	return result.TimeEntry, nil
}

func (uc *TimerUseCase) start(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID, confirmed bool) (*TimerStartResult, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	ref := model.TaskRef(taskID)
	if err := validateRequest(teamID, ref, actorID); err != nil {
		return nil, err
	}

	var (
		result *TimerStartResult
		plan   *transitionPlan
		from   types.WorkStatus
	)
	err = commitWithRetry(ctx, uc.repo, func(ctx context.Context) (*model.ChangeSet, error) {
		plan = nil
		wc, err := uc.workflow.load(ctx, team, ref, actorID)
		if err != nil {
			return nil, err
		}
		from = wc.item.Status
		inProgress := wc.item.Kind.ActiveStatus()

		if !confirmed && isBlockedForTimer(from) {
			result = &TimerStartResult{
				Status:        types.TimerBlocked,
				CurrentStatus: from,
				Message:       fmt.Sprintf("This task is %s and cannot be started.", from),
			}
			return nil, nil
		}

		if from == inProgress {
			caps, err := wc.capabilities(false)
			if err != nil {
				return nil, err
			}
			if err := model.DecideAccess(caps); err != nil {
				return nil, goerr.Wrap(err, "timer start refused",
					goerr.V(TaskIDKey, taskID), goerr.V(model.ActorIDKey, actorID))
			}
			running, err := uc.repo.TimeEntry().Running(ctx, teamID, taskID, actorID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to get running time entry", goerr.V(TaskIDKey, taskID))
			}
			if running != nil {
				result = &TimerStartResult{Status: types.TimerStarted, CurrentStatus: from, TimeEntry: running, Item: wc.item}
				return nil, nil
			}

			// the version bump serializes concurrent starts by the same actor
			plan = newTransitionPlan(wc, uc.clock())
			plan.bump()
			uc.planTimerStart(wc, plan, taskID)
			result = &TimerStartResult{Status: types.TimerStarted, CurrentStatus: from}
			return plan.finish(wc.item.Version, ""), nil
		}

		switch {
		case model.IsAllowedEdge(wc.item.Kind, from, inProgress):
			if err := wc.decide(inProgress, ""); err != nil {
				return nil, err
			}
		case !confirmed:
			result = &TimerStartResult{
				Status:        types.TimerConfirmationRequired,
				CurrentStatus: from,
				Message:       fmt.Sprintf("This task is %s. Starting the timer will move it back to %s.", from, inProgress),
			}
			return nil, nil
		default:
			caps, err := wc.capabilities(false)
			if err != nil {
				return nil, err
			}
			if err := model.DecideReopen(wc.item.Kind, from, caps); err != nil {
				return nil, goerr.Wrap(err, "reopen refused",
					goerr.V(TaskIDKey, taskID),
					goerr.V(model.FromStatusKey, from),
					goerr.V(model.ActorIDKey, actorID))
			}
		}

		plan = newTransitionPlan(wc, uc.clock())
		if err := uc.workflow.planTransition(wc, plan, wc.actor, inProgress, ""); err != nil {
			return nil, err
		}
		uc.planTimerStart(wc, plan, taskID)
		result = &TimerStartResult{Status: types.TimerStarted, CurrentStatus: inProgress}
		return plan.finish(wc.item.Version, inProgress), nil
	})
	if err != nil {
		return nil, err
	}

	if plan != nil {
		result.Item = plan.item
		result.TimeEntry = plan.cs.TimeEntries[0]
		logging.From(ctx).Info("timer started",
			"team_id", teamID,
			"task_id", taskID,
			"from", from,
			"actor_id", actorID,
		)
	}
	return result, nil
}

func (uc *TimerUseCase) planTimerStart(wc *workContext, p *transitionPlan, taskID int64) {
	entry := &model.TimeEntry{
		ID:        uuid.NewString(),
		TeamID:    wc.team.ID,
		TaskID:    taskID,
		ActorID:   wc.actor.ID,
		StartedAt: p.now,
	}
	p.cs.TimeEntries = append(p.cs.TimeEntries, entry)
	p.cs.AuditLogs = append(p.cs.AuditLogs,
		uc.workflow.audit.planTimer(wc.team, wc.actor, types.AuditActionTimerStarted, entry, p.now))
}

// StopTimer stops the actor's running timer on a task
func (uc *TimerUseCase) StopTimer(ctx context.Context, teamID types.TeamID, taskID int64, actorID types.ActorID) (*model.TimeEntry, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	ref := model.TaskRef(taskID)
	if err := validateRequest(teamID, ref, actorID); err != nil {
		return nil, err
	}

	var stopped *model.TimeEntry
	err = commitWithRetry(ctx, uc.repo, func(ctx context.Context) (*model.ChangeSet, error) {
		wc, err := uc.workflow.load(ctx, team, ref, actorID)
		if err != nil {
			return nil, err
		}
		running, err := uc.repo.TimeEntry().Running(ctx, teamID, taskID, actorID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get running time entry", goerr.V(TaskIDKey, taskID))
		}
		if running == nil {
			return nil, goerr.Wrap(ErrTimerNotRunning, "no running timer",
				goerr.V(TaskIDKey, taskID), goerr.V(model.ActorIDKey, actorID))
		}

		plan := newTransitionPlan(wc, uc.clock())
		plan.bump()
		stopped = running.Clone()
		stopped.StoppedAt = &plan.now
		plan.cs.TimeEntries = append(plan.cs.TimeEntries, stopped)
		plan.cs.AuditLogs = append(plan.cs.AuditLogs,
			uc.workflow.audit.planTimer(team, wc.actor, types.AuditActionTimerStopped, stopped, plan.now))
		return plan.finish(wc.item.Version, ""), nil
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("timer stopped", "team_id", teamID, "task_id", taskID, "actor_id", actorID)
	return stopped, nil
}
