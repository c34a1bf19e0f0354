package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/incintel/incintel/internal/orchestrator"
	"github.com/incintel/incintel/internal/store"
)

// IntelServerDeps holds the dependencies for creating an IntelServer.
type IntelServerDeps struct {
	Store        store.Store
	Orchestrator *orchestrator.Orchestrator
	Logger       *slog.Logger
}

// IntelServer wraps an MCP server with incident-dashboard tool handlers.
type IntelServer struct {
	store     store.Store
	orch      *orchestrator.Orchestrator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewIntelServer creates a new IntelServer with all 5 tools registered.
func NewIntelServer(deps IntelServerDeps) *IntelServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &IntelServer{
		store:  deps.Store,
		orch:   deps.Orchestrator,
		logger: logger,
	}

	mcpSrv := server.NewMCPServer(
		"incintel",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Incintel is an incident intelligence dashboard. Use incident.ask to query the assistant in natural language, incident.search to look up incidents by text, incident.get to fetch one incident, incident.report to file a new incident, and incident.resolve to mark one resolved."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *IntelServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *IntelServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *IntelServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: askTool(), Handler: s.handleAsk},
		{Tool: searchTool(), Handler: s.handleSearch},
		{Tool: getTool(), Handler: s.handleGet},
		{Tool: reportTool(), Handler: s.handleReport},
		{Tool: resolveTool(), Handler: s.handleResolve},
	}
}

// --- Tool definitions ---

func askTool() mcp.Tool {
	return mcp.NewTool("incident.ask",
		mcp.WithDescription("Ask the incident assistant a natural-language question"),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question for the assistant")),
	)
}

func searchTool() mcp.Tool {
	return mcp.NewTool("incident.search",
		mcp.WithDescription("Search incidents by free text over id, title, description and location"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default: 20)")),
	)
}

func getTool() mcp.Tool {
	return mcp.NewTool("incident.get",
		mcp.WithDescription("Fetch a single incident by its ID"),
		mcp.WithString("incident_id", mcp.Required(), mcp.Description("Incident ID, e.g. INC-20260115-101500")),
	)
}

func reportTool() mcp.Tool {
	return mcp.NewTool("incident.report",
		mcp.WithDescription("File a new incident"),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short incident title")),
		mcp.WithString("description", mcp.Description("Free-form details")),
		mcp.WithString("severity",
			mcp.Enum("low", "medium", "high", "critical"),
			mcp.Description("Severity level (default: medium)"),
		),
		mcp.WithString("location", mcp.Description("Where the incident happened")),
	)
}

func resolveTool() mcp.Tool {
	return mcp.NewTool("incident.resolve",
		mcp.WithDescription("Mark an incident resolved"),
		mcp.WithString("incident_id", mcp.Required(), mcp.Description("Incident ID to resolve")),
	)
}
