package http

import (
	"encoding/json"
	"net/http"

	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/usecase"
)

// raciRequest distinguishes an absent field from an explicit null, which
// clears the field
type raciRequest struct {
	AccountableID json.RawMessage `json:"accountable_id"`
	ResponsibleID json.RawMessage `json:"responsible_id"`
	ConsultedIDs  json.RawMessage `json:"consulted_ids"`
	InformedIDs   json.RawMessage `json:"informed_ids"`
	Confirmed     bool            `json:"confirmed"`
}

func (req raciRequest) toUpdate() (usecase.RACIUpdate, error) {
	var update usecase.RACIUpdate
	var err error
	if update.Accountable, err = decodeActor(req.AccountableID); err != nil {
		return update, err
	}
	if update.Responsible, err = decodeActor(req.ResponsibleID); err != nil {
		return update, err
	}
	if update.Consulted, err = decodeActors(req.ConsultedIDs); err != nil {
		return update, err
	}
	if update.Informed, err = decodeActors(req.InformedIDs); err != nil {
		return update, err
	}
	return update, nil
}

func decodeActor(raw json.RawMessage) (*types.ActorID, error) {
	if raw == nil {
		return nil, nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	id := types.ActorID("")
	if s != nil {
		id = types.ActorID(*s)
	}
	return &id, nil
}

func decodeActors(raw json.RawMessage) (*[]types.ActorID, error) {
	if raw == nil {
		return nil, nil
	}
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, err
	}
	ids := actorIDs(ss)
	if ids == nil {
		ids = []types.ActorID{}
	}
	return &ids, nil
}

type raciResponse struct {
	Updated              bool             `json:"updated"`
	ConfirmationRequired bool             `json:"confirmation_required"`
	Changes              []raciChangeJSON `json:"changes,omitempty"`
	Item                 *workItemJSON    `json:"item,omitempty"`
	Project              *projectJSON     `json:"project,omitempty"`
}

func (s *Server) updateRACI(w http.ResponseWriter, r *http.Request, kind types.RACITargetKind) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}
	var req raciRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, r, err)
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	target := usecase.RACITarget{Kind: kind, ID: id}
	result, err := s.uc.RACI.UpdateRACI(ctx, teamFrom(ctx).ID, target, actorFrom(ctx), update, req.Confirmed)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, raciResponse{
		Updated:              result.Updated,
		ConfirmationRequired: result.ConfirmationRequired,
		Changes:              toRACIChangesJSON(result.Changes),
		Item:                 toWorkItemJSON(result.Item),
		Project:              toProjectJSON(result.Project),
	})
}

func (s *Server) updateProjectRACI(w http.ResponseWriter, r *http.Request) {
	s.updateRACI(w, r, types.RACITargetProject)
}

func (s *Server) updateWorkItemRACI(kind types.WorkItemKind) http.HandlerFunc {
	target := types.RACITargetTask
	if kind == types.WorkItemKindWorkOrder {
		target = types.RACITargetWorkOrder
	}
	return func(w http.ResponseWriter, r *http.Request) {
		s.updateRACI(w, r, target)
	}
}
