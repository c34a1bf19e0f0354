// Package server exposes the dashboard's HTTP surface: incident CRUD and
// search, the chat endpoint, the health probe, the flow-event SSE stream,
// and the incident websocket.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/incintel/incintel/internal/expressions"
	"github.com/incintel/incintel/internal/flow"
	"github.com/incintel/incintel/internal/orchestrator"
	"github.com/incintel/incintel/internal/store"
	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/internal/validation"
)

// Deps holds the dependencies for the API server.
type Deps struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Engine       *flow.Engine
	Hub          streaming.EventHub
	Validator    *validation.PayloadValidator
	Logger       *slog.Logger

	// RetrievalCheck probes the retrieval backend for the health endpoint.
	// Nil means the backend state is reported as unknown.
	RetrievalCheck func(ctx context.Context) error
}

// Server serves the dashboard API.
type Server struct {
	deps   Deps
	filter *expressions.ExprEngine
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{
		deps:   deps,
		filter: expressions.NewExprEngine(),
	}
}

// Handler returns the HTTP handler for all API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleBanner)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Incidents.
	mux.HandleFunc("GET /api/incidents", s.handleListIncidents)
	mux.HandleFunc("POST /api/incidents", s.handleCreateIncident)
	mux.HandleFunc("GET /api/incidents/search", s.handleSearchIncidents)
	mux.HandleFunc("GET /api/incidents/{id}", s.handleGetIncident)
	mux.HandleFunc("PATCH /api/incidents/{id}", s.handleUpdateIncident)
	mux.HandleFunc("DELETE /api/incidents/{id}", s.handleDeleteIncident)
	mux.HandleFunc("POST /api/incidents/{id}/soft-delete", s.handleDeleteIncident)

	// Dashboard feeds.
	mux.HandleFunc("GET /api/live-updates", s.handleLiveUpdates)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/flow", s.handleFlowSnapshot)

	// Push channels.
	mux.HandleFunc("GET /sse/flows", s.handleSSEFlows)
	mux.HandleFunc("GET /ws/incidents", s.handleWSIncidents)

	return mux
}
