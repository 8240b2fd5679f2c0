package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/types"
)

func parsePositiveInt(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, goerr.New("expected a positive integer", goerr.V("value", raw))
	}
	return n, nil
}

func (s *Server) listInbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := interfaces.InboxFilter{ReviewerID: types.ActorID(q.Get("reviewer"))}
	if raw := q.Get("with_trashed"); raw != "" {
		withTrashed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, r, goerr.Wrap(err, "invalid with_trashed flag"))
			return
		}
		filter.IncludeArchived = withTrashed
	}

	ctx := r.Context()
	items, err := s.uc.Inbox.List(ctx, teamFrom(ctx).ID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]*inboxItemJSON, len(items))
	for i, it := range items {
		out[i] = toInboxItemJSON(it)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) getInboxItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	item, err := s.uc.Inbox.Get(ctx, teamFrom(ctx).ID, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"item": toInboxItemJSON(item)})
}

func (s *Server) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := interfaces.AuditFilter{
		Target:   types.AuditTarget(q.Get("target")),
		TargetID: q.Get("target_id"),
		Action:   types.AuditAction(q.Get("action")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := parsePositiveInt(raw)
		if err != nil {
			badRequest(w, r, err)
			return
		}
		filter.Limit = int(limit)
	}

	ctx := r.Context()
	logs, err := s.uc.Audit.List(ctx, teamFrom(ctx).ID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]auditLogJSON, len(logs))
	for i, l := range logs {
		out[i] = toAuditLogJSON(l)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"logs": out})
}
