package http

import (
	"errors"
	"net/http"

	"github.com/secmon-lab/briareos/pkg/domain/interfaces"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/usecase"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
)

const (
	reasonValidation = "validation_error"
	reasonNotFound   = "not_found"
	reasonBadRequest = "bad_request"
	reasonConflict   = "concurrent_modification"
)

// handleError maps engine errors to status codes and a {reason, message} body
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var te *model.TransitionError
	switch {
	case errors.As(err, &te):
		errutil.HandleHTTP(ctx, w, te, http.StatusUnprocessableEntity, te.Reason.String())

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidRACIMember),
		errors.Is(err, usecase.ErrAccountableRequired):
		errutil.HandleHTTP(ctx, w, err, http.StatusUnprocessableEntity, reasonValidation)

	case errors.Is(err, usecase.ErrTimerNotRunning):
		errutil.HandleHTTP(ctx, w, err, http.StatusUnprocessableEntity, "timer_not_running")

	case errors.Is(err, usecase.ErrPermissionDenied):
		errutil.HandleHTTP(ctx, w, err, http.StatusForbidden, model.ReasonPermissionDenied.String())

	case errors.Is(err, interfaces.ErrNotFound), errors.Is(err, model.ErrTeamNotFound):
		errutil.HandleHTTP(ctx, w, err, http.StatusNotFound, reasonNotFound)

	case errors.Is(err, usecase.ErrConcurrentModification):
		errutil.HandleHTTP(ctx, w, err, http.StatusConflict, reasonConflict)

	default:
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError, "")
	}
}
