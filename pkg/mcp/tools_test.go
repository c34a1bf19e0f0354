package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incintel/incintel/internal/flow"
	"github.com/incintel/incintel/internal/orchestrator"
	"github.com/incintel/incintel/internal/rag"
	"github.com/incintel/incintel/internal/store"
	"github.com/incintel/incintel/internal/streaming"
	"github.com/incintel/incintel/pkg/schema"
)

type stubAnswerClient struct {
	answer *rag.Answer
	err    error
}

func (c *stubAnswerClient) Ask(ctx context.Context, query string, history []schema.ChatMessage) (*rag.Answer, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.answer, nil
}

func newTestServer(t *testing.T) (*IntelServer, store.Store) {
	t.Helper()

	st, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	hub := streaming.NewMemoryHub()
	engine := flow.NewEngine(hub, nil, flow.WithStepDelay(time.Millisecond))
	orch := orchestrator.New(engine, &stubAnswerClient{answer: &rag.Answer{Text: "3 open incidents."}}, nil,
		orchestrator.WithThinkDelay(time.Millisecond))

	s := NewIntelServer(IntelServerDeps{Store: st, Orchestrator: orch})
	return s, st
}

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

func TestAskTool(t *testing.T) {
	s, _ := newTestServer(t)

	req := buildRequest("incident.ask", map[string]any{"question": "show open incidents"})
	result, err := s.handleAsk(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var resp schema.ChatResponse
	unmarshalResult(t, result, &resp)
	assert.Equal(t, "3 open incidents.", resp.Response)
	assert.NotEmpty(t, resp.RunID)
}

func TestAskToolMissingQuestion(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleAsk(context.Background(), buildRequest("incident.ask", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestReportTool(t *testing.T) {
	s, st := newTestServer(t)

	req := buildRequest("incident.report", map[string]any{
		"title":    "Power outage",
		"severity": "critical",
		"location": "Sector 7",
	})
	result, err := s.handleReport(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var inc store.Incident
	unmarshalResult(t, result, &inc)
	assert.Regexp(t, `^INC-\d{8}-\d{6}$`, inc.ID)
	assert.Equal(t, schema.SeverityCritical, inc.Severity)

	stored, err := st.GetIncident(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Power outage", stored.Title)
}

func TestReportToolInvalidSeverity(t *testing.T) {
	s, _ := newTestServer(t)

	req := buildRequest("incident.report", map[string]any{
		"title":    "Bad request",
		"severity": "catastrophic",
	})
	result, err := s.handleReport(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestGetTool(t *testing.T) {
	s, st := newTestServer(t)

	inc := &store.Incident{Title: "Flooding", Severity: schema.SeverityHigh}
	require.NoError(t, st.CreateIncident(context.Background(), inc))

	result, err := s.handleGet(context.Background(), buildRequest("incident.get",
		map[string]any{"incident_id": inc.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, extractText(t, result), "Flooding")
}

func TestGetToolNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleGet(context.Background(), buildRequest("incident.get",
		map[string]any{"incident_id": "INC-19990101-000000"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestSearchTool(t *testing.T) {
	s, st := newTestServer(t)

	require.NoError(t, st.CreateIncident(context.Background(), &store.Incident{Title: "Gas leak in Block A"}))
	require.NoError(t, st.CreateIncident(context.Background(), &store.Incident{Title: "Roof collapse"}))

	result, err := s.handleSearch(context.Background(), buildRequest("incident.search",
		map[string]any{"query": "gas"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out struct {
		Incidents []store.Incident `json:"incidents"`
		Count     int              `json:"count"`
	}
	unmarshalResult(t, result, &out)
	assert.Equal(t, 1, out.Count)
	require.Len(t, out.Incidents, 1)
	assert.Equal(t, "Gas leak in Block A", out.Incidents[0].Title)
}

func TestResolveTool(t *testing.T) {
	s, st := newTestServer(t)

	inc := &store.Incident{Title: "Signal failure"}
	require.NoError(t, st.CreateIncident(context.Background(), inc))

	result, err := s.handleResolve(context.Background(), buildRequest("incident.resolve",
		map[string]any{"incident_id": inc.ID}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	stored, err := st.GetIncident(context.Background(), inc.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.IncidentResolved, stored.Status)
	assert.NotNil(t, stored.ResolvedAt)
}

func TestToolsRegistered(t *testing.T) {
	s, _ := newTestServer(t)
	require.NotNil(t, s.MCPServer())

	names := make([]string, 0, len(s.tools()))
	for _, tool := range s.tools() {
		names = append(names, tool.Tool.Name)
	}
	assert.ElementsMatch(t, names,
		[]string{"incident.ask", "incident.search", "incident.get", "incident.report", "incident.resolve"})
}
