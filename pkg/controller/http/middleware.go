package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/domain/model"
	"github.com/secmon-lab/briareos/pkg/domain/types"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

// ActorHeader carries the acting user or agent. It is set by the trusted
// gateway in front of the server.
const ActorHeader = "X-Briareos-Actor"

type ctxKey int

const (
	actorCtxKey ctxKey = iota
	teamCtxKey
)

func actorFrom(ctx context.Context) types.ActorID {
	id, _ := ctx.Value(actorCtxKey).(types.ActorID)
	return id
}

func teamFrom(ctx context.Context) *model.Team {
	team, _ := ctx.Value(teamCtxKey).(*model.Team)
	return team
}

// teamMiddleware resolves {teamID} against the registry
func (s *Server) teamMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		teamID := types.TeamID(chi.URLParam(r, "teamID"))
		team, err := s.uc.Registry().Get(teamID)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound, reasonNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), teamCtxKey, team)
		ctx = logging.With(ctx, logging.From(ctx).With("team_id", teamID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorMiddleware requires the actor header
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actor == "" {
			errutil.HandleHTTP(r.Context(), w, goerr.New("actor header is required"), http.StatusUnauthorized, "unauthenticated")
			return
		}

		ctx := context.WithValue(r.Context(), actorCtxKey, types.ActorID(actor))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
