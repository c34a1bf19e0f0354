package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/incintel/incintel/internal/logging"
	"github.com/incintel/incintel/internal/store"
	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/pkg/schema"
)

const maxRequestBody = 1 << 20 // 1MB

func (s *Server) handleBanner(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "incintel",
		"status":  "ok",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	storeState := "ok"
	if _, err := s.deps.Store.ListIncidents(ctx, store.IncidentFilter{Limit: 1}); err != nil {
		storeState = "error"
	}

	retrievalState := "unknown"
	if s.deps.RetrievalCheck != nil {
		retrievalState = "ok"
		if err := s.deps.RetrievalCheck(ctx); err != nil {
			retrievalState = "unreachable"
		}
	}

	status := http.StatusOK
	if storeState != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"store":     storeState,
		"retrieval": retrievalState,
	})
}

// --- Incidents ---

func (s *Server) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	filter := store.IncidentFilter{
		Status:   schema.IncidentStatus(r.URL.Query().Get("status")),
		Severity: schema.Severity(r.URL.Query().Get("severity")),
		Location: r.URL.Query().Get("location"),
		Limit:    queryInt(r, "limit", 0),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, schema.NewErrorf(schema.ErrCodeValidation, "unknown status %q", filter.Status))
		return
	}
	if filter.Severity != "" && !filter.Severity.Valid() {
		writeError(w, schema.NewErrorf(schema.ErrCodeValidation, "unknown severity %q", filter.Severity))
		return
	}

	incidents, err := s.deps.Store.ListIncidents(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if incidents == nil {
		incidents = []*store.Incident{}
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	inc, err := s.deps.Store.GetIncident(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleCreateIncident(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "read request body").WithCause(err))
		return
	}
	if err := s.deps.Validator.ValidateIncidentCreate(raw); err != nil {
		writeError(w, err)
		return
	}

	var inc store.Incident
	if err := json.Unmarshal(raw, &inc); err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "malformed incident payload").WithCause(err))
		return
	}

	if err := s.deps.Store.CreateIncident(r.Context(), &inc); err != nil {
		writeError(w, err)
		return
	}

	ctx := logging.WithIncidentID(r.Context(), inc.ID)
	s.deps.Logger.InfoContext(ctx, "incident created", "severity", inc.Severity)
	s.audit(ctx, inc.ID, schema.EventIncidentCreated, raw)
	s.publishIncident(ctx, schema.EventIncidentCreated, &inc)

	writeJSON(w, http.StatusCreated, inc)
}

func (s *Server) handleUpdateIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "read request body").WithCause(err))
		return
	}
	if err := s.deps.Validator.ValidateIncidentUpdate(raw); err != nil {
		writeError(w, err)
		return
	}

	var update store.IncidentUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "malformed update payload").WithCause(err))
		return
	}

	inc, err := s.deps.Store.UpdateIncident(r.Context(), id, update)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx := logging.WithIncidentID(r.Context(), id)
	s.deps.Logger.InfoContext(ctx, "incident updated", "status", inc.Status)
	s.audit(ctx, id, schema.EventIncidentUpdated, raw)
	s.publishIncident(ctx, schema.EventIncidentUpdated, inc)

	writeJSON(w, http.StatusOK, inc)
}

func (s *Server) handleDeleteIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.deps.Store.DeleteIncident(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	ctx := logging.WithIncidentID(r.Context(), id)
	s.deps.Logger.InfoContext(ctx, "incident deleted")
	s.audit(ctx, id, schema.EventIncidentDeleted, nil)
	s.publish(ctx, streaming.StreamEvent{
		Type:       schema.EventIncidentDeleted,
		IncidentID: id,
	})

	writeJSON(w, http.StatusOK, map[string]string{"ok": "true", "id": id})
}

func (s *Server) handleSearchIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "missing query parameter q"))
		return
	}

	incidents, err := s.deps.Store.SearchIncidents(r.Context(), q, queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}

	if expr := r.URL.Query().Get("filter"); expr != "" {
		filtered := make([]*store.Incident, 0, len(incidents))
		for _, inc := range incidents {
			keep, err := s.filter.EvaluateBool(r.Context(), expr, inc.Env())
			if err != nil {
				writeError(w, err)
				return
			}
			if keep {
				filtered = append(filtered, inc)
			}
		}
		incidents = filtered
	}

	if incidents == nil {
		incidents = []*store.Incident{}
	}
	writeJSON(w, http.StatusOK, incidents)
}

func (s *Server) handleLiveUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := s.deps.Store.RecentLiveUpdates(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, err)
		return
	}
	if updates == nil {
		updates = []*store.LiveUpdate{}
	}
	writeJSON(w, http.StatusOK, updates)
}

// --- Chat ---

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "read request body").WithCause(err))
		return
	}
	if err := s.deps.Validator.ValidateChatRequest(raw); err != nil {
		writeError(w, err)
		return
	}

	var req schema.ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, schema.NewError(schema.ErrCodeValidation, "malformed chat payload").WithCause(err))
		return
	}

	resp, err := s.deps.Orchestrator.Submit(r.Context(), req.Message, req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlowSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Engine.Snapshot())
}

// --- Event plumbing ---

func (s *Server) publishIncident(ctx context.Context, eventType string, inc *store.Incident) {
	s.publish(ctx, streaming.StreamEvent{
		Type:       eventType,
		IncidentID: inc.ID,
		Payload: map[string]any{
			"title":    inc.Title,
			"severity": string(inc.Severity),
			"status":   string(inc.Status),
			"location": inc.Location,
		},
	})
}

func (s *Server) publish(ctx context.Context, event streaming.StreamEvent) {
	if s.deps.Hub == nil {
		return
	}
	if err := s.deps.Hub.Publish(ctx, event); err != nil {
		s.deps.Logger.WarnContext(ctx, "event publish failed", "type", event.Type, "error", err)
	}
}

func (s *Server) audit(ctx context.Context, incidentID, eventType string, payload []byte) {
	if err := s.deps.Store.AppendAudit(ctx, &store.AuditEvent{
		IncidentID: incidentID,
		Type:       eventType,
		Payload:    payload,
	}); err != nil {
		s.deps.Logger.WarnContext(ctx, "audit append failed", "type", eventType, "error", err)
	}
}
