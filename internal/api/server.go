// Package api exposes the task service over HTTP with the JSON envelope the
// browser client expects.
package api

import (
	"net/http"

	"github.com/gurkanbulca/tasklist/internal/middleware"
	"github.com/gurkanbulca/tasklist/internal/service"
	"github.com/gurkanbulca/tasklist/pkg/auth"
)

type Options struct {
	Tasks  *service.TaskService
	Tokens *auth.TokenManager
	CSRF   *auth.CSRFManager
	// RequireCSRF turns on token checks for state-changing requests.
	RequireCSRF bool
	// Health is mounted at /health without authentication. Optional.
	Health http.Handler
}

type Server struct {
	tasks       *service.TaskService
	tokens      *auth.TokenManager
	csrf        *auth.CSRFManager
	requireCSRF bool
	health      http.Handler
}

func NewServer(opts Options) *Server {
	return &Server{
		tasks:       opts.Tasks,
		tokens:      opts.Tokens,
		csrf:        opts.CSRF,
		requireCSRF: opts.RequireCSRF && opts.CSRF != nil,
		health:      opts.Health,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /tasks", s.handleList)
	mux.HandleFunc("POST /tasks", s.handleCreate)
	mux.HandleFunc("GET /tasks/{id}", s.handleShow)
	mux.HandleFunc("GET /tasks/{id}/edit", s.handleShow)
	mux.HandleFunc("PUT /tasks/{id}", s.handleUpdate)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdate)
	mux.HandleFunc("PATCH /tasks/{id}/status", s.handleChangeStatus)
	mux.HandleFunc("PATCH /tasks/{id}/due-date", s.handleChangeDueDate)
	mux.HandleFunc("DELETE /tasks", s.handleDelete)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDelete)
	mux.HandleFunc("GET /csrf-token", s.handleCSRFToken)

	publicPaths := []string{}
	if s.health != nil {
		mux.Handle("GET /health", s.health)
		publicPaths = append(publicPaths, "/health")
	}

	var handler http.Handler = mux
	if s.requireCSRF {
		handler = middleware.RequireCSRF(s.csrf)(handler)
	}
	handler = middleware.NewAuthenticator(s.tokens, publicPaths...).Middleware(handler)
	handler = middleware.MethodOverride(handler)
	handler = middleware.Logging(handler)
	handler = middleware.ExtractMetadata(handler)
	return handler
}
