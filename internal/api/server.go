package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/solohub/braind/internal/engine"
	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/internal/streaming"
	"github.com/solohub/braind/internal/validation"
)

// Deps holds the dependencies for the API server.
type Deps struct {
	Store     store.Store
	Executor  *executor.Executor
	Engine    *engine.Engine
	Hub       streaming.EventHub
	Validator *validation.JSONSchemaValidator
	Logger    *slog.Logger
}

// Server exposes the workflow and action pipeline over HTTP.
type Server struct {
	deps Deps
}

// NewServer creates an API server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{deps: deps}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api/brain", func(r chi.Router) {
		// Internal drain trigger for the action runner; no user scoping.
		r.Post("/actions/execute-pending", s.handleExecutePending)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/workflows", s.handleCreateWorkflow)
			r.Get("/workflows", s.handleListWorkflows)
			r.Get("/workflows/{id}", s.handleGetWorkflow)
			r.Put("/workflows/{id}", s.handleUpdateWorkflow)
			r.Delete("/workflows/{id}", s.handleDeleteWorkflow)
			r.Post("/workflows/{id}/test", s.handleTestWorkflow)

			r.Post("/actions", s.handleQueueAction)
			r.Get("/actions", s.handleListActions)
			r.Get("/actions/{id}", s.handleGetAction)

			r.Get("/tasks", s.handleListTasks)
			r.Get("/notifications", s.handleListNotifications)
			r.Get("/events", s.handleEvents)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
