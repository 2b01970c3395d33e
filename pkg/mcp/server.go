package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/solohub/braind/internal/engine"
	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/store"
)

// BrainServerDeps holds the dependencies for creating a BrainServer.
type BrainServerDeps struct {
	Store    store.Store
	Executor *executor.Executor
	Engine   *engine.Engine
	Logger   *slog.Logger
}

// BrainServer wraps an MCP server exposing the workflow and action pipeline
// as agent tools.
type BrainServer struct {
	store     store.Store
	executor  *executor.Executor
	engine    *engine.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewBrainServer creates a new BrainServer with all 5 tools registered.
func NewBrainServer(deps BrainServerDeps) *BrainServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &BrainServer{
		store:    deps.Store,
		executor: deps.Executor,
		engine:   deps.Engine,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"braind",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Braind runs user automation workflows. Use brain.create_workflow to register a trigger-to-actions rule, brain.run_workflow to fire one against an event, brain.queue_action to enqueue a single action, and brain.list_workflows / brain.list_actions to inspect state."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *BrainServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *BrainServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *BrainServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: createWorkflowTool(), Handler: s.handleCreateWorkflow},
		{Tool: listWorkflowsTool(), Handler: s.handleListWorkflows},
		{Tool: runWorkflowTool(), Handler: s.handleRunWorkflow},
		{Tool: queueActionTool(), Handler: s.handleQueueAction},
		{Tool: listActionsTool(), Handler: s.handleListActions},
	}
}

// --- Tool definitions ---

func createWorkflowTool() mcp.Tool {
	return mcp.NewTool("brain.create_workflow",
		mcp.WithDescription("Register a workflow mapping a trigger to an ordered action list"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the workflow")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Workflow name")),
		mcp.WithString("trigger_type", mcp.Required(),
			mcp.Enum("schedule_daily", "schedule_cron", "on_query"),
			mcp.Description("When the workflow fires"),
		),
		mcp.WithObject("trigger_config", mcp.Description("Trigger tuning (contains, min_confidence, cron, when)")),
		mcp.WithArray("actions", mcp.Required(), mcp.Description("Ordered action steps, each with action_type and payload")),
		mcp.WithString("description", mcp.Description("Workflow description")),
	)
}

func listWorkflowsTool() mcp.Tool {
	return mcp.NewTool("brain.list_workflows",
		mcp.WithDescription("List a user's workflows"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the workflows")),
		mcp.WithString("trigger_type", mcp.Description("Filter by trigger type")),
	)
}

func runWorkflowTool() mcp.Tool {
	return mcp.NewTool("brain.run_workflow",
		mcp.WithDescription("Fire a workflow against an event context, queueing its actions"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the workflow")),
		mcp.WithString("workflow_id", mcp.Required(), mcp.Description("ID of the workflow to run")),
		mcp.WithObject("context", mcp.Description("Event context rendered into action payloads")),
	)
}

func queueActionTool() mcp.Tool {
	return mcp.NewTool("brain.queue_action",
		mcp.WithDescription("Queue a single action for background execution"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the action")),
		mcp.WithString("action_type", mcp.Required(), mcp.Description("Action type (create_task, send_notification, add_note, update_knowledge)")),
		mcp.WithObject("payload", mcp.Description("Action payload")),
		mcp.WithString("session_id", mcp.Description("Originating session")),
	)
}

func listActionsTool() mcp.Tool {
	return mcp.NewTool("brain.list_actions",
		mcp.WithDescription("List a user's queued and completed actions"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the actions")),
		mcp.WithString("status", mcp.Description("Filter by status (pending, running, success, failed)")),
		mcp.WithString("action_type", mcp.Description("Filter by action type")),
	)
}
