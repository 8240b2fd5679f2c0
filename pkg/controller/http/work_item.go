package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

type createProjectRequest struct {
	Name    string   `json:"name"`
	OwnerID string   `json:"owner_id"`
	RACI    raciJSON `json:"raci"`
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	project, err := s.uc.WorkItem.CreateProject(ctx, teamFrom(ctx).ID, actorFrom(ctx), usecase.CreateProjectInput{
		Name:    req.Name,
		OwnerID: types.ActorID(req.OwnerID),
		RACI:    req.RACI.toModel(),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"project": toProjectJSON(project)})
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	teamID := teamFrom(ctx).ID
	project, err := s.uc.WorkItem.GetProject(ctx, teamID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	workOrders, err := s.uc.WorkItem.ListWorkOrders(ctx, teamID, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"project":     toProjectJSON(project),
		"work_orders": toWorkItemsJSON(workOrders),
	})
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projects, err := s.uc.WorkItem.ListProjects(ctx, teamFrom(ctx).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]*projectJSON, len(projects))
	for i, p := range projects {
		out[i] = toProjectJSON(p)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"projects": out})
}

type createWorkItemRequest struct {
	ProjectID   int64      `json:"project_id"`
	WorkOrderID int64      `json:"work_order_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AssignedTo  string     `json:"assigned_to"`
	Reviewer    string     `json:"reviewer"`
	RACI        raciJSON   `json:"raci"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *Server) createWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req createWorkItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	item, err := s.uc.WorkItem.CreateWorkOrder(ctx, teamFrom(ctx).ID, actorFrom(ctx), usecase.CreateWorkOrderInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  types.ActorID(req.AssignedTo),
		Reviewer:    types.ActorID(req.Reviewer),
		RACI:        req.RACI.toModel(),
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"item": toWorkItemJSON(item)})
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createWorkItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	item, err := s.uc.WorkItem.CreateTask(ctx, teamFrom(ctx).ID, actorFrom(ctx), usecase.CreateTaskInput{
		WorkOrderID: req.WorkOrderID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  types.ActorID(req.AssignedTo),
		Reviewer:    types.ActorID(req.Reviewer),
		RACI:        req.RACI.toModel(),
		DueDate:     req.DueDate,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"item": toWorkItemJSON(item)})
}

func (s *Server) getWorkItem(kind types.WorkItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := pathRef(r, kind)
		if err != nil {
			badRequest(w, r, err)
			return
		}

		ctx := r.Context()
		item, err := s.uc.WorkItem.GetWorkItem(ctx, teamFrom(ctx).ID, ref)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"item": toWorkItemJSON(item)})
	}
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("work_order_id"))
	if raw == "" {
		badRequest(w, r, goerr.New("work_order_id is required"))
		return
	}
	workOrderID, err := parsePositiveInt(raw)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	tasks, err := s.uc.WorkItem.ListTasks(ctx, teamFrom(ctx).ID, workOrderID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": toWorkItemsJSON(tasks)})
}
