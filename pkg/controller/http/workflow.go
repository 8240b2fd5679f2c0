package http

import (
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
)

type transitionRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type transitionResponse struct {
	Item              *workItemJSON          `json:"item"`
	StatusTransitions []statusTransitionJSON `json:"status_transitions"`
}

func (s *Server) transition(kind types.WorkItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := pathRef(r, kind)
		if err != nil {
			badRequest(w, r, err)
			return
		}
		var req transitionRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, r, err)
			return
		}
		to, err := types.ParseWorkStatus(req.Status)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid status"), http.StatusUnprocessableEntity, reasonValidation)
			return
		}

		ctx := r.Context()
		result, err := s.uc.Workflow.Transition(ctx, teamFrom(ctx).ID, ref, actorFrom(ctx), to, req.Comment)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusOK, transitionResponse{
			Item:              toWorkItemJSON(result.Item),
			StatusTransitions: toTransitionsJSON(result.History),
		})
	}
}

type transitionsResponse struct {
	Available []string               `json:"available"`
	History   []statusTransitionJSON `json:"history"`
}

func (s *Server) transitions(kind types.WorkItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := pathRef(r, kind)
		if err != nil {
			badRequest(w, r, err)
			return
		}

		ctx := r.Context()
		teamID := teamFrom(ctx).ID
		available, err := s.uc.Workflow.AvailableTransitions(ctx, teamID, ref, actorFrom(ctx))
		if err != nil {
			handleError(w, r, err)
			return
		}
		history, err := s.uc.Workflow.History(ctx, teamID, ref)
		if err != nil {
			handleError(w, r, err)
			return
		}

		resp := transitionsResponse{
			Available: make([]string, len(available)),
			History:   toTransitionsJSON(history),
		}
		for i, st := range available {
			resp.Available[i] = st.String()
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}

type timerStartResponse struct {
	Started              bool           `json:"started,omitempty"`
	Blocked              bool           `json:"blocked,omitempty"`
	ConfirmationRequired bool           `json:"confirmation_required,omitempty"`
	CurrentStatus        string         `json:"current_status,omitempty"`
	Message              string         `json:"message,omitempty"`
	TimeEntry            *timeEntryJSON `json:"time_entry,omitempty"`
}

func (s *Server) startTimer(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}
	confirmed := false
	if raw := r.URL.Query().Get("confirmed"); raw != "" {
		if confirmed, err = strconv.ParseBool(raw); err != nil {
			badRequest(w, r, goerr.Wrap(err, "invalid confirmed flag"))
			return
		}
	}

	ctx := r.Context()
	teamID, actorID := teamFrom(ctx).ID, actorFrom(ctx)

	if confirmed {
		entry, err := s.uc.Timer.ConfirmAndStartTimer(ctx, teamID, taskID, actorID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, timerStartResponse{Started: true, TimeEntry: toTimeEntryJSON(entry)})
		return
	}

	result, err := s.uc.Timer.CheckAndStartTimer(ctx, teamID, taskID, actorID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	switch result.Status {
	case types.TimerStarted:
		writeJSON(w, r, http.StatusOK, timerStartResponse{Started: true, TimeEntry: toTimeEntryJSON(result.TimeEntry)})
	case types.TimerConfirmationRequired:
		writeJSON(w, r, http.StatusOK, timerStartResponse{
			ConfirmationRequired: true,
			CurrentStatus:        result.CurrentStatus.String(),
			Message:              result.Message,
		})
	default:
		writeJSON(w, r, http.StatusUnprocessableEntity, timerStartResponse{
			Blocked:       true,
			CurrentStatus: result.CurrentStatus.String(),
			Message:       result.Message,
		})
	}
}

func (s *Server) stopTimer(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "id")
	if err != nil {
		badRequest(w, r, err)
		return
	}

	ctx := r.Context()
	entry, err := s.uc.Timer.StopTimer(ctx, teamFrom(ctx).ID, taskID, actorFrom(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"time_entry": toTimeEntryJSON(entry)})
}
