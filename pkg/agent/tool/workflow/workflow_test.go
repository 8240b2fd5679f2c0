package workflow_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/mock"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/briareos/pkg/agent/tool"
	"github.com/secmon-lab/briareos/pkg/agent/tool/workflow"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/repository/memory"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

const (
	testTeamID  types.TeamID  = "acme"
	testAgentID types.ActorID = "helper-bot"
)

type fixture struct {
	uc    *usecase.UseCases
	tools map[string]gollem.Tool
	task  *model.WorkItem
}

func setup(t *testing.T) *fixture {
	t.Helper()

	registry := model.NewTeamRegistry()
	registry.Register(&model.Team{
		ID:      testTeamID,
		OwnerID: "olivia",
		Members: []model.Member{
			{ID: "olivia", Name: "Olivia", Kind: types.ActorKindUser},
			{ID: "bob", Name: "Bob", Kind: types.ActorKindUser},
			{ID: testAgentID, Name: "Helper", Kind: types.ActorKindAgent},
		},
	})
	uc := usecase.New(memory.New(), registry)
	ctx := context.Background()

	project, err := uc.WorkItem.CreateProject(ctx, testTeamID, "olivia", usecase.CreateProjectInput{Name: "Website"})
	gt.NoError(t, err).Required()
	wo, err := uc.WorkItem.CreateWorkOrder(ctx, testTeamID, "olivia", usecase.CreateWorkOrderInput{
		ProjectID: project.ID,
		Title:     "Landing page",
		RACI:      model.RACI{Accountable: "bob"},
	})
	gt.NoError(t, err).Required()
	task, err := uc.WorkItem.CreateTask(ctx, testTeamID, "olivia", usecase.CreateTaskInput{
		WorkOrderID: wo.ID,
		Title:       "Write copy",
		AssignedTo:  testAgentID,
	})
	gt.NoError(t, err).Required()

	tools := map[string]gollem.Tool{}
	for _, tl := range workflow.New(uc, testTeamID, testAgentID) {
		tools[tl.Spec().Name] = tl
	}
	return &fixture{uc: uc, tools: tools, task: task}
}

func (f *fixture) run(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	tl, ok := f.tools[name]
	gt.Bool(t, ok).True().Required()

	var updates []string
	ctx := tool.WithProgress(context.Background(), func(_ context.Context, msg string) {
		updates = append(updates, msg)
	})
	result, err := tl.Run(ctx, args)
	gt.NoError(t, err).Required()
	gt.Array(t, updates).Length(1)
	return result
}

func TestSpecs(t *testing.T) {
	f := setup(t)
	gt.Number(t, len(f.tools)).Equal(3)
	for name, tl := range f.tools {
		spec := tl.Spec()
		gt.Value(t, spec.Name).Equal(name)
		gt.Value(t, spec.Parameters["kind"]).NotNil()
		gt.Value(t, spec.Parameters["id"]).NotNil()
	}
}

func TestAgentWorkflow(t *testing.T) {
	f := setup(t)
	item := map[string]any{"kind": "task", "id": float64(f.task.ID)}

	result := f.run(t, "workflow__available_transitions", item)
	gt.Value(t, result["available"]).Equal([]string{"in_progress", "cancelled"})

	result = f.run(t, "workflow__transition", map[string]any{"kind": "task", "id": float64(f.task.ID), "status": "in_progress"})
	gt.Value(t, result["transitioned"]).Equal(true)

	result = f.run(t, "workflow__transition", map[string]any{"kind": "task", "id": float64(f.task.ID), "status": "in_review"})
	gt.Value(t, result["transitioned"]).Equal(true)

	t.Run("agent cannot approve", func(t *testing.T) {
		result := f.run(t, "workflow__transition", map[string]any{"kind": "task", "id": float64(f.task.ID), "status": "approved"})
		gt.Value(t, result["transitioned"]).Equal(false)
		gt.Value(t, result["reason"]).Equal(model.ReasonAgentRestricted.String())
	})

	t.Run("history is visible", func(t *testing.T) {
		result := f.run(t, "workflow__get_item", item)
		gt.Value(t, result["status"]).Equal("in_review")
		history, ok := result["history"].([]map[string]any)
		gt.Bool(t, ok).True().Required()
		gt.Array(t, history).Length(2)
		gt.Value(t, history[0]["actor_id"]).Equal(testAgentID.String())
	})
}

func TestInvalidArguments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.tools["workflow__get_item"].Run(ctx, map[string]any{"kind": "deliverable", "id": float64(1)})
	gt.Error(t, err)

	_, err = f.tools["workflow__get_item"].Run(ctx, map[string]any{"kind": "task"})
	gt.Error(t, err)

	_, err = f.tools["workflow__transition"].Run(ctx, map[string]any{"kind": "task", "id": float64(f.task.ID), "status": "finished"})
	gt.Error(t, err)
}

func TestToolsDriveAgentLoop(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var responses []gollem.FunctionResponse
	calls := 0
	client := &mock.LLMClientMock{
		NewSessionFunc: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mock.SessionMock{
				GenerateFunc: func(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
					calls++
					if calls == 1 {
						return &gollem.Response{
							FunctionCalls: []*gollem.FunctionCall{{
								ID:   "call_1",
								Name: "workflow__transition",
								Arguments: map[string]any{
									"kind":   "task",
									"id":     float64(f.task.ID),
									"status": "in_progress",
								},
							}},
						}, nil
					}
					for _, in := range input {
						if resp, ok := in.(gollem.FunctionResponse); ok {
							responses = append(responses, resp)
						}
					}
					return &gollem.Response{Texts: []string{"started"}}, nil
				},
			}, nil
		},
	}

	agent := gollem.New(client,
		gollem.WithTools(workflow.New(f.uc, testTeamID, testAgentID)...),
		gollem.WithLoopLimit(3),
	)
	_, err := agent.Execute(ctx, gollem.Text("start working on the copy"))
	gt.NoError(t, err).Required()

	gt.Number(t, calls).Equal(2)
	gt.Array(t, responses).Length(1).Required()
	gt.Value(t, responses[0].Name).Equal("workflow__transition")
	gt.Value(t, responses[0].Data["transitioned"]).Equal(true)

	item, err := f.uc.WorkItem.GetWorkItem(ctx, testTeamID, model.TaskRef(f.task.ID))
	gt.NoError(t, err).Required()
	gt.Value(t, item.Status).Equal(types.WorkStatusInProgress)
}
