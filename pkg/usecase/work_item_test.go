package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

func TestWorkItem_Create(t *testing.T) {
	env := setup(t)

	t.Run("new items start in the initial status", func(t *testing.T) {
		gt.Value(t, env.workOrder.Status).Equal(types.WorkStatusDraft)
		gt.Number(t, env.workOrder.Version).Equal(1)
		gt.Value(t, env.task.Status).Equal(types.WorkStatusTodo)
		gt.Number(t, env.task.Version).Equal(1)
		gt.Number(t, env.task.ProjectID).Equal(env.project.ID)
		gt.Value(t, env.task.CreatedBy).Equal(owner)
	})

	t.Run("project owner defaults to the creator", func(t *testing.T) {
		project, err := env.uc.WorkItem.CreateProject(env.ctx, testTeamID, alice, usecase.CreateProjectInput{Name: "Docs"})
		gt.NoError(t, err).Required()
		gt.Value(t, project.OwnerID).Equal(alice)

		projects, err := env.uc.WorkItem.ListProjects(env.ctx, testTeamID)
		gt.NoError(t, err).Required()
		gt.Array(t, projects).Length(2)
	})

	t.Run("work order requires an accountable member", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateWorkOrder(env.ctx, testTeamID, owner, usecase.CreateWorkOrderInput{
			ProjectID: env.project.ID,
			Title:     "No owner",
		})
		gt.Error(t, err).Is(usecase.ErrAccountableRequired)
	})

	t.Run("work order requires an existing project", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateWorkOrder(env.ctx, testTeamID, owner, usecase.CreateWorkOrderInput{
			ProjectID: 99,
			Title:     "Orphan",
			RACI:      model.RACI{Accountable: bob},
		})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("task requires an existing work order", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateTask(env.ctx, testTeamID, owner, usecase.CreateTaskInput{
			WorkOrderID: 99,
			Title:       "Orphan",
		})
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("title is required", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateTask(env.ctx, testTeamID, owner, usecase.CreateTaskInput{
			WorkOrderID: env.workOrder.ID,
			Title:       "  ",
		})
		gt.Error(t, err).Is(usecase.ErrValidation)
	})

	t.Run("assignees must be members", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateTask(env.ctx, testTeamID, owner, usecase.CreateTaskInput{
			WorkOrderID: env.workOrder.ID,
			Title:       "Outsourced",
			AssignedTo:  outsider,
		})
		gt.Error(t, err).Is(usecase.ErrInvalidRACIMember)
	})

	t.Run("creator must be a member", func(t *testing.T) {
		_, err := env.uc.WorkItem.CreateProject(env.ctx, testTeamID, outsider, usecase.CreateProjectInput{Name: "Side project"})
		gt.Error(t, err).Is(usecase.ErrPermissionDenied)
	})

	t.Run("tasks list under their work order", func(t *testing.T) {
		due := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
		task, err := env.uc.WorkItem.CreateTask(env.ctx, testTeamID, owner, usecase.CreateTaskInput{
			WorkOrderID: env.workOrder.ID,
			Title:       "Review copy",
			DueDate:     &due,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, task.DueDate).NotNil()

		tasks, err := env.uc.WorkItem.ListTasks(env.ctx, testTeamID, env.workOrder.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(2).Required()
		gt.Number(t, tasks[0].ID).Less(tasks[1].ID)

		workOrders, err := env.uc.WorkItem.ListWorkOrders(env.ctx, testTeamID, env.project.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, workOrders).Length(1)
	})
}

func TestInbox_UrgencyFromDueDate(t *testing.T) {
	env := setup(t)

	due := testNow.Add(24 * time.Hour)
	task, err := env.uc.WorkItem.CreateTask(env.ctx, testTeamID, owner, usecase.CreateTaskInput{
		WorkOrderID: env.workOrder.ID,
		Title:       "Launch checklist",
		AssignedTo:  alice,
		DueDate:     &due,
	})
	gt.NoError(t, err).Required()

	env.walk(t, task.Ref(),
		step{actor: alice, to: types.WorkStatusInProgress},
		step{actor: alice, to: types.WorkStatusInReview},
	)

	open, err := env.uc.Inbox.OpenFor(env.ctx, testTeamID, task.Ref())
	gt.NoError(t, err).Required()
	gt.Value(t, open.Urgency).Equal(types.UrgencyUrgent)
	gt.Value(t, open.DueDate).NotNil()
}

func TestPreview(t *testing.T) {
	gt.Value(t, usecase.Preview("  short  ", 10)).Equal("short")

	long := "あいうえおかきくけこ"
	got := usecase.Preview(long, 5)
	gt.Value(t, got).Equal("あいうえ…")
}
