package http

import (
	"encoding/json"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/briareos/pkg/usecase"
	"github.com/secmon-lab/briareos/pkg/utils/errutil"
	"github.com/secmon-lab/briareos/pkg/utils/logging"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
	sentry bool
}

type Options func(*Server)

// WithSentry reports panics and attaches a Sentry hub to each request.
// The Sentry client must be initialized separately.
func WithSentry(enabled bool) Options {
	return func(s *Server) {
		s.sentry = enabled
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	if s.sentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/v1/teams", s.listTeams)
	r.Route("/api/v1/teams/{teamID}", func(r chi.Router) {
		r.Use(s.teamMiddleware)
		r.Use(actorMiddleware)

		r.Post("/projects", s.createProject)
		r.Get("/projects", s.listProjects)
		r.Get("/projects/{id}", s.getProject)
		r.Patch("/projects/{id}/raci", s.updateProjectRACI)

		r.Post("/work-orders", s.createWorkOrder)
		r.Get("/work-orders/{id}", s.getWorkItem(workOrderKind))
		r.Post("/work-orders/{id}/transition", s.transition(workOrderKind))
		r.Get("/work-orders/{id}/transitions", s.transitions(workOrderKind))
		r.Patch("/work-orders/{id}/raci", s.updateWorkItemRACI(workOrderKind))

		r.Post("/tasks", s.createTask)
		r.Get("/tasks", s.listTasks)
		r.Get("/tasks/{id}", s.getWorkItem(taskKind))
		r.Post("/tasks/{id}/transition", s.transition(taskKind))
		r.Get("/tasks/{id}/transitions", s.transitions(taskKind))
		r.Patch("/tasks/{id}/raci", s.updateWorkItemRACI(taskKind))
		r.Post("/tasks/{id}/timer/start", s.startTimer)
		r.Post("/tasks/{id}/timer/stop", s.stopTimer)

		r.Get("/inbox", s.listInbox)
		r.Get("/inbox/{id}", s.getInboxItem)
		r.Get("/audit-logs", s.listAuditLogs)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"actor", r.Header.Get(ActorHeader),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// listTeams serves the configured team directory
func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	type teamResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	type response struct {
		Teams []teamResponse `json:"teams"`
	}

	teams := s.uc.Registry().List()
	resp := response{Teams: make([]teamResponse, len(teams))}
	for i, t := range teams {
		resp.Teams[i] = teamResponse{ID: t.ID.String(), Name: t.Name}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
