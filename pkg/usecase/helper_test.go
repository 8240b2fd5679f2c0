package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/repository/memory"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

const (
	testTeamID types.TeamID = "acme"

	owner    types.ActorID = "olivia"
	alice    types.ActorID = "alice"
	bob      types.ActorID = "bob"
	carol    types.ActorID = "carol"
	agent    types.ActorID = "helper-bot"
	outsider types.ActorID = "mallory"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestTeam() *model.Team {
	return &model.Team{
		ID:             testTeamID,
		Name:           "Acme",
		OwnerID:        owner,
		SlackChannelID: "C0ACME",
		Members: []model.Member{
			{ID: owner, Name: "Olivia", Kind: types.ActorKindUser, SlackUserID: "U0OLIVIA"},
			{ID: alice, Name: "Alice", Kind: types.ActorKindUser, SlackUserID: "U0ALICE"},
			{ID: bob, Name: "Bob", Kind: types.ActorKindUser, SlackUserID: "U0BOB"},
			{ID: carol, Name: "Carol", Kind: types.ActorKindUser},
			{ID: agent, Name: "Helper", Kind: types.ActorKindAgent},
		},
	}
}

// tickingClock starts at testNow and advances one second per reading
func tickingClock() func() time.Time {
	var ticks atomic.Int64
	return func() time.Time {
		return testNow.Add(time.Duration(ticks.Add(1)) * time.Second)
	}
}

type testEnv struct {
	ctx       context.Context
	repo      *memory.Memory
	uc        *usecase.UseCases
	project   *model.Project
	workOrder *model.WorkItem
	task      *model.WorkItem
}

// setup builds a team with one project, a work order accountable to bob and
// assigned to carol, and a task assigned to alice
func setup(t *testing.T, opts ...usecase.Option) *testEnv {
	t.Helper()

	registry := model.NewTeamRegistry()
	registry.Register(newTestTeam())

	repo := memory.New()
	opts = append([]usecase.Option{usecase.WithClock(tickingClock())}, opts...)
	uc := usecase.New(repo, registry, opts...)
	ctx := context.Background()

	project, err := uc.WorkItem.CreateProject(ctx, testTeamID, owner, usecase.CreateProjectInput{Name: "Website"})
	gt.NoError(t, err).Required()

	workOrder, err := uc.WorkItem.CreateWorkOrder(ctx, testTeamID, owner, usecase.CreateWorkOrderInput{
		ProjectID:  project.ID,
		Title:      "Landing page",
		AssignedTo: carol,
		RACI:       model.RACI{Accountable: bob},
	})
	gt.NoError(t, err).Required()

	task, err := uc.WorkItem.CreateTask(ctx, testTeamID, owner, usecase.CreateTaskInput{
		WorkOrderID: workOrder.ID,
		Title:       "Write copy",
		Description: "Hero section and pricing table",
		AssignedTo:  alice,
	})
	gt.NoError(t, err).Required()

	return &testEnv{
		ctx:       ctx,
		repo:      repo,
		uc:        uc,
		project:   project,
		workOrder: workOrder,
		task:      task,
	}
}

// walk applies transitions in order and fails the test on the first error
func (e *testEnv) walk(t *testing.T, ref model.WorkItemRef, steps ...step) *usecase.TransitionResult {
	t.Helper()
	var result *usecase.TransitionResult
	for _, s := range steps {
		var err error
		result, err = e.uc.Workflow.Transition(e.ctx, testTeamID, ref, s.actor, s.to, s.comment)
		gt.NoError(t, err).Required()
	}
	return result
}

type step struct {
	actor   types.ActorID
	to      types.WorkStatus
	comment string
}

// toReview moves the task from todo to in_review as alice
func (e *testEnv) toReview(t *testing.T) {
	t.Helper()
	e.walk(t, e.task.Ref(),
		step{actor: alice, to: types.WorkStatusInProgress},
		step{actor: alice, to: types.WorkStatusInReview},
	)
}

func reasonOf(t *testing.T, err error) model.TransitionReason {
	t.Helper()
	var te *model.TransitionError
	gt.Bool(t, errors.As(err, &te)).True()
	return te.Reason
}
