package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// CreateProjectInput holds the fields of a new project
type CreateProjectInput struct {
	Name    string
	OwnerID types.ActorID
	RACI    model.RACI
}

// CreateWorkOrderInput holds the fields of a new work order
type CreateWorkOrderInput struct {
	ProjectID   int64
	Title       string
	Description string
	AssignedTo  types.ActorID
	Reviewer    types.ActorID
	RACI        model.RACI
	DueDate     *time.Time
}

// CreateTaskInput holds the fields of a new task
type CreateTaskInput struct {
	WorkOrderID int64
	Title       string
	Description string
	AssignedTo  types.ActorID
	Reviewer    types.ActorID
	RACI        model.RACI
	DueDate     *time.Time
}

// WorkItemUseCase is the thin persistence surface for projects, work orders
// and tasks. Status and RACI never change here.
type WorkItemUseCase struct {
	repo     interfaces.Repository
	registry *model.TeamRegistry
}

func NewWorkItemUseCase(repo interfaces.Repository, registry *model.TeamRegistry) *WorkItemUseCase {
	return &WorkItemUseCase{repo: repo, registry: registry}
}

// member checks that actorID may create items in the team and returns it
func (uc *WorkItemUseCase) member(teamID types.TeamID, actorID types.ActorID) (*model.Team, error) {
	team, err := uc.registry.Get(teamID)
	if err != nil {
		return nil, err
	}
	if actorID.IsEmpty() {
		return nil, goerr.Wrap(ErrValidation, "actor is required")
	}
	if !team.IsMember(actorID) && !team.IsOwner(actorID) {
		return nil, goerr.Wrap(ErrPermissionDenied, "actor is not a member of the team",
			goerr.V(model.ActorIDKey, actorID), goerr.V(model.TeamIDKey, teamID))
	}
	return team, nil
}

func checkMembers(team *model.Team, ids ...types.ActorID) error {
	for _, id := range ids {
		if id.IsEmpty() {
			continue
		}
		if !team.IsMember(id) {
			return goerr.Wrap(ErrInvalidRACIMember, "actor is not part of the team",
				goerr.V(model.ActorIDKey, id), goerr.V(model.TeamIDKey, team.ID))
		}
	}
	return nil
}

func normalizeRACI(r model.RACI) model.RACI {
	r.Consulted = compactIDs(r.Consulted)
	r.Informed = compactIDs(r.Informed)
	return r
}

func (uc *WorkItemUseCase) CreateProject(ctx context.Context, teamID types.TeamID, actorID types.ActorID, input CreateProjectInput) (*model.Project, error) {
	team, err := uc.member(teamID, actorID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, goerr.Wrap(ErrValidation, "project name is required")
	}
	owner := input.OwnerID
	if owner.IsEmpty() {
		owner = actorID
	}
	raci := normalizeRACI(input.RACI)
	if err := checkMembers(team, append([]types.ActorID{owner}, raci.ActorIDs()...)...); err != nil {
		return nil, err
	}

	created, err := uc.repo.Project().Create(ctx, teamID, &model.Project{
		TeamID:  teamID,
		Name:    name,
		OwnerID: owner,
		RACI:    raci,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create project", goerr.V(model.TeamIDKey, teamID))
	}

	logging.From(ctx).Info("project created", "team_id", teamID, "project_id", created.ID, "actor_id", actorID)
	return created, nil
}

func (uc *WorkItemUseCase) GetProject(ctx context.Context, teamID types.TeamID, id int64) (*model.Project, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	project, err := uc.repo.Project().Get(ctx, teamID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, id))
	}
	return project, nil
}

func (uc *WorkItemUseCase) ListProjects(ctx context.Context, teamID types.TeamID) ([]*model.Project, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	projects, err := uc.repo.Project().List(ctx, teamID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list projects", goerr.V(model.TeamIDKey, teamID))
	}
	return projects, nil
}

// CreateWorkOrder creates a work order in draft. It must name an
// accountable member.
func (uc *WorkItemUseCase) CreateWorkOrder(ctx context.Context, teamID types.TeamID, actorID types.ActorID, input CreateWorkOrderInput) (*model.WorkItem, error) {
	team, err := uc.member(teamID, actorID)
	if err != nil {
		return nil, err
	}

	raci := normalizeRACI(input.RACI)
	if raci.Accountable.IsEmpty() {
		return nil, goerr.Wrap(ErrAccountableRequired, "work order requires an accountable member")
	}
	if err := checkMembers(team, append([]types.ActorID{input.AssignedTo, input.Reviewer}, raci.ActorIDs()...)...); err != nil {
		return nil, err
	}
	if _, err := uc.repo.Project().Get(ctx, teamID, input.ProjectID); err != nil {
		return nil, goerr.Wrap(err, "failed to get project", goerr.V(ProjectIDKey, input.ProjectID))
	}

	return uc.create(ctx, actorID, &model.WorkItem{
		Kind:        types.WorkItemKindWorkOrder,
		TeamID:      teamID,
		ProjectID:   input.ProjectID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      types.WorkItemKindWorkOrder.InitialStatus(),
		CreatedBy:   actorID,
		AssignedTo:  input.AssignedTo,
		Reviewer:    input.Reviewer,
		RACI:        raci,
		DueDate:     input.DueDate,
	})
}

// CreateTask creates a task in todo under an existing work order of the team
func (uc *WorkItemUseCase) CreateTask(ctx context.Context, teamID types.TeamID, actorID types.ActorID, input CreateTaskInput) (*model.WorkItem, error) {
	team, err := uc.member(teamID, actorID)
	if err != nil {
		return nil, err
	}

	raci := normalizeRACI(input.RACI)
	if err := checkMembers(team, append([]types.ActorID{input.AssignedTo, input.Reviewer}, raci.ActorIDs()...)...); err != nil {
		return nil, err
	}
	workOrder, err := uc.repo.WorkItem().Get(ctx, teamID, model.WorkOrderRef(input.WorkOrderID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get work order", goerr.V(model.WorkItemKey, model.WorkOrderRef(input.WorkOrderID).String()))
	}

	return uc.create(ctx, actorID, &model.WorkItem{
		Kind:        types.WorkItemKindTask,
		TeamID:      teamID,
		ProjectID:   workOrder.ProjectID,
		WorkOrderID: workOrder.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      types.WorkItemKindTask.InitialStatus(),
		CreatedBy:   actorID,
		AssignedTo:  input.AssignedTo,
		Reviewer:    input.Reviewer,
		RACI:        raci,
		DueDate:     input.DueDate,
	})
}

func (uc *WorkItemUseCase) create(ctx context.Context, actorID types.ActorID, item *model.WorkItem) (*model.WorkItem, error) {
	if item.DueDate != nil {
		d := item.DueDate.UTC()
		item.DueDate = &d
	}
	if err := item.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error(), goerr.V("kind", item.Kind))
	}

	created, err := uc.repo.WorkItem().Create(ctx, item.TeamID, item)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create work item", goerr.V("kind", item.Kind))
	}

	logging.From(ctx).Info("work item created",
		"team_id", item.TeamID,
		"work_item", created.Ref().String(),
		"actor_id", actorID,
	)
	return created, nil
}

func (uc *WorkItemUseCase) GetWorkItem(ctx context.Context, teamID types.TeamID, ref model.WorkItemRef) (*model.WorkItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	if err := ref.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error())
	}
	item, err := uc.repo.WorkItem().Get(ctx, teamID, ref)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get work item", goerr.V(model.WorkItemKey, ref.String()))
	}
	return item, nil
}

// ListTasks returns the tasks of a work order ordered by ID
func (uc *WorkItemUseCase) ListTasks(ctx context.Context, teamID types.TeamID, workOrderID int64) ([]*model.WorkItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	if _, err := uc.repo.WorkItem().Get(ctx, teamID, model.WorkOrderRef(workOrderID)); err != nil {
		return nil, goerr.Wrap(err, "failed to get work order", goerr.V(model.WorkItemKey, model.WorkOrderRef(workOrderID).String()))
	}
	tasks, err := uc.repo.WorkItem().ListTasks(ctx, teamID, workOrderID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tasks", goerr.V(model.WorkItemKey, model.WorkOrderRef(workOrderID).String()))
	}
	return tasks, nil
}

// ListWorkOrders returns the work orders of a project ordered by ID
func (uc *WorkItemUseCase) ListWorkOrders(ctx context.Context, teamID types.TeamID, projectID int64) ([]*model.WorkItem, error) {
	if _, err := uc.registry.Get(teamID); err != nil {
		return nil, err
	}
	workOrders, err := uc.repo.WorkItem().ListWorkOrders(ctx, teamID, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list work orders", goerr.V(ProjectIDKey, projectID))
	}
	return workOrders, nil
}
