package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
)

const (
	taskKind      = types.WorkItemKindTask
	workOrderKind = types.WorkItemKindWorkOrder
)

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.New("invalid id in path", goerr.V(name, raw))
	}
	return id, nil
}

func pathRef(r *http.Request, kind types.WorkItemKind) (model.WorkItemRef, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return model.WorkItemRef{}, err
	}
	return model.WorkItemRef{Kind: kind, ID: id}, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

func badRequest(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest, reasonBadRequest)
}
