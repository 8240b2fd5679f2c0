package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/briareos/pkg/agent/tool"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

// New builds the tools an AI agent uses to move work through the status
// machine. Every call runs as agentID, so the engine's agent restrictions
// apply unchanged.
//
// The server does not run an agent itself. New is the entry point for an
// external agent runner, which passes the returned tools to its gollem
// agent, e.g. gollem.New(llmClient, gollem.WithTools(workflow.New(uc, teamID, agentID)...)).
func New(uc *usecase.UseCases, teamID types.TeamID, agentID types.ActorID) []gollem.Tool {
	return []gollem.Tool{
		&getItemTool{uc: uc, teamID: teamID},
		&availableTransitionsTool{uc: uc, teamID: teamID, agentID: agentID},
		&transitionTool{uc: uc, teamID: teamID, agentID: agentID},
	}
}

var itemParameters = map[string]*gollem.Parameter{
	"kind": {
		Type:        gollem.TypeString,
		Description: "Kind of the work item",
		Enum: []string{
			types.WorkItemKindTask.String(),
			types.WorkItemKindWorkOrder.String(),
		},
		Required: true,
	},
	"id": {
		Type:        gollem.TypeInteger,
		Description: "The ID of the work item",
		Required:    true,
	},
}

func itemToMap(w *model.WorkItem) map[string]any {
	m := map[string]any{
		"kind":        w.Kind.String(),
		"id":          w.ID,
		"project_id":  w.ProjectID,
		"title":       w.Title,
		"description": w.Description,
		"status":      w.Status.String(),
		"assigned_to": w.AssignedTo.String(),
		"reviewer":    w.Reviewer.String(),
		"version":     w.Version,
		"updated_at":  w.UpdatedAt.String(),
	}
	if w.IsTask() {
		m["work_order_id"] = w.WorkOrderID
	}
	if w.DueDate != nil {
		m["due_date"] = w.DueDate.Format("2006-01-02")
	}
	return m
}

func statusStrings(statuses []types.WorkStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

// getItemTool returns a work item with its recent history
type getItemTool struct {
	uc     *usecase.UseCases
	teamID types.TeamID
}

func (t *getItemTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "workflow__get_item",
		Description: "Get a task or work order with its current status and status history",
		Parameters:  itemParameters,
	}
}

func (t *getItemTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	ref, err := extractRef(args)
	if err != nil {
		return nil, err
	}

	tool.Progress(ctx, fmt.Sprintf("Getting %s...", ref))
	item, err := t.uc.WorkItem.GetWorkItem(ctx, t.teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}
	history, err := t.uc.Workflow.History(ctx, t.teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get history", goerr.V(model.WorkItemKey, ref.String()))
	}

	rows := make([]map[string]any, len(history))
	for i, tr := range history {
		rows[i] = map[string]any{
			"from":     tr.FromStatus.String(),
			"to":       tr.ToStatus.String(),
			"actor_id": tr.ActorID.String(),
			"comment":  tr.Comment,
			"at":       tr.CreatedAt.String(),
		}
	}

	result := itemToMap(item)
	result["history"] = rows
	return result, nil
}

// availableTransitionsTool lists the statuses the agent may move an item to
type availableTransitionsTool struct {
	uc      *usecase.UseCases
	teamID  types.TeamID
	agentID types.ActorID
}

func (t *availableTransitionsTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "workflow__available_transitions",
		Description: "List the statuses you are allowed to move a task or work order to. Approval and completion are never available to agents.",
		Parameters:  itemParameters,
	}
}

func (t *availableTransitionsTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	ref, err := extractRef(args)
	if err != nil {
		return nil, err
	}

	tool.Progress(ctx, fmt.Sprintf("Checking transitions of %s...", ref))
	available, err := t.uc.Workflow.AvailableTransitions(ctx, t.teamID, ref, t.agentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list available transitions", goerr.V(model.WorkItemKey, ref.String()))
	}
	return map[string]any{"available": statusStrings(available)}, nil
}

// transitionTool requests a status change. Refusals are reported in the
// result so the agent can explain them instead of failing the turn.
type transitionTool struct {
	uc      *usecase.UseCases
	teamID  types.TeamID
	agentID types.ActorID
}

func (t *transitionTool) Spec() gollem.ToolSpec {
	params := map[string]*gollem.Parameter{
		"status": {
			Type:        gollem.TypeString,
			Description: "The status to move the item to",
			Enum:        statusStrings(types.AllWorkStatuses()),
			Required:    true,
		},
		"comment": {
			Type:        gollem.TypeString,
			Description: "Comment recorded with the transition. Required when requesting a revision.",
		},
	}
	for k, v := range itemParameters {
		params[k] = v
	}

	return gollem.ToolSpec{
		Name:        "workflow__transition",
		Description: "Move a task or work order to another status. Use workflow__available_transitions first.",
		Parameters:  params,
	}
}

func (t *transitionTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	ref, err := extractRef(args)
	if err != nil {
		return nil, err
	}
	raw, _ := args["status"].(string)
	to, err := types.ParseWorkStatus(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid status")
	}
	comment, _ := args["comment"].(string)

	tool.Progress(ctx, fmt.Sprintf("Moving %s to %s...", ref, to))
	result, err := t.uc.Workflow.Transition(ctx, t.teamID, ref, t.agentID, to, comment)
	if err != nil {
		var te *model.TransitionError
		if errors.As(err, &te) {
			return map[string]any{
				"transitioned": false,
				"reason":       te.Reason.String(),
				"message":      te.Message,
			}, nil
		}
		return nil, goerr.Wrap(err, "failed to transition work item",
			goerr.V(model.WorkItemKey, ref.String()), goerr.V(model.ToStatusKey, to))
	}

	return map[string]any{
		"transitioned": true,
		"item":         itemToMap(result.Item),
	}, nil
}

func extractRef(args map[string]any) (model.WorkItemRef, error) {
	raw, _ := args["kind"].(string)
	kind, err := types.ParseWorkItemKind(raw)
	if err != nil {
		return model.WorkItemRef{}, goerr.Wrap(err, "invalid kind")
	}
	id, err := extractInt64(args, "id")
	if err != nil {
		return model.WorkItemRef{}, err
	}
	return model.WorkItemRef{Kind: kind, ID: id}, nil
}

func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}
