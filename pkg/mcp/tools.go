package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/incintel/incintel/internal/store"
	"github.com/incintel/incintel/pkg/schema"
)

const defaultSearchLimit = 20

// handleAsk routes a question through the orchestrator, same path as the
// dashboard chat box.
func (s *IntelServer) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question is required"), nil
	}

	resp, askErr := s.orch.Submit(ctx, question, nil)
	if askErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submission failed: %v", askErr)), nil
	}
	return marshalResult(resp)
}

// handleSearch runs a free-text search over the incident store.
func (s *IntelServer) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := req.GetInt("limit", defaultSearchLimit)

	incidents, searchErr := s.store.SearchIncidents(ctx, query, limit)
	if searchErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", searchErr)), nil
	}
	return marshalResult(map[string]any{"incidents": incidents, "count": len(incidents)})
}

// handleGet fetches one incident by ID.
func (s *IntelServer) handleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	incidentID, err := req.RequireString("incident_id")
	if err != nil {
		return mcp.NewToolResultError("incident_id is required"), nil
	}

	inc, getErr := s.store.GetIncident(ctx, incidentID)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", getErr)), nil
	}
	return marshalResult(inc)
}

// handleReport files a new incident.
func (s *IntelServer) handleReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title is required"), nil
	}

	inc := &store.Incident{
		Title:       title,
		Description: req.GetString("description", ""),
		Location:    req.GetString("location", ""),
	}
	if sev := req.GetString("severity", ""); sev != "" {
		severity := schema.Severity(sev)
		if !severity.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid severity: %s", sev)), nil
		}
		inc.Severity = severity
	}

	if createErr := s.store.CreateIncident(ctx, inc); createErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create incident: %v", createErr)), nil
	}

	s.logger.InfoContext(ctx, "incident reported via mcp", "incident_id", inc.ID, "severity", inc.Severity)
	return marshalResult(inc)
}

// handleResolve marks an incident resolved.
func (s *IntelServer) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	incidentID, err := req.RequireString("incident_id")
	if err != nil {
		return mcp.NewToolResultError("incident_id is required"), nil
	}

	status := schema.IncidentResolved
	inc, updErr := s.store.UpdateIncident(ctx, incidentID, store.IncidentUpdate{Status: &status})
	if updErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", updErr)), nil
	}

	s.logger.InfoContext(ctx, "incident resolved via mcp", "incident_id", incidentID)
	return marshalResult(map[string]any{
		"ok":          true,
		"incident_id": inc.ID,
		"status":      inc.Status,
		"resolved_at": inc.ResolvedAt,
	})
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
