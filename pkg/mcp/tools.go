package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/pkg/schema"
)

// handleCreateWorkflow registers a new workflow.
func (s *BrainServer) handleCreateWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	triggerType, err := req.RequireString("trigger_type")
	if err != nil {
		return mcp.NewToolResultError("trigger_type is required"), nil
	}

	args := req.GetArguments()
	rawSteps, ok := args["actions"].([]any)
	if !ok {
		return mcp.NewToolResultError("actions is required and must be an array"), nil
	}

	stepBytes, marshalErr := json.Marshal(rawSteps)
	if marshalErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid actions: %v", marshalErr)), nil
	}
	var steps []schema.ActionStep
	if unmarshalErr := json.Unmarshal(stepBytes, &steps); unmarshalErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid actions: %v", unmarshalErr)), nil
	}

	wf := &store.Workflow{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          name,
		Description:   req.GetString("description", ""),
		TriggerType:   triggerType,
		TriggerConfig: mcp.ParseStringMap(req, "trigger_config", nil),
		Actions:       steps,
		IsActive:      true,
	}

	if createErr := s.store.CreateWorkflow(ctx, wf); createErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create workflow: %v", createErr)), nil
	}
	return marshalResult(wf)
}

// handleListWorkflows lists a user's workflows.
func (s *BrainServer) handleListWorkflows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	workflows, listErr := s.store.ListWorkflows(ctx, store.WorkflowFilter{
		UserID:      userID,
		TriggerType: req.GetString("trigger_type", ""),
	})
	if listErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list workflows: %v", listErr)), nil
	}
	return marshalResult(workflows)
}

// handleRunWorkflow fires a workflow against an event context.
func (s *BrainServer) handleRunWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	workflowID, err := req.RequireString("workflow_id")
	if err != nil {
		return mcp.NewToolResultError("workflow_id is required"), nil
	}

	wf, getErr := s.store.GetWorkflow(ctx, workflowID, userID)
	if getErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("workflow lookup failed: %v", getErr)), nil
	}

	eventCtx := mcp.ParseStringMap(req, "context", nil)
	queued, runErr := s.engine.RunWorkflow(ctx, wf, userID, eventCtx)
	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("workflow run failed: %v", runErr)), nil
	}

	return marshalResult(map[string]any{
		"workflow_id":   workflowID,
		"actionsQueued": queued,
	})
}

// handleQueueAction enqueues a single action.
func (s *BrainServer) handleQueueAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	actionType, err := req.RequireString("action_type")
	if err != nil {
		return mcp.NewToolResultError("action_type is required"), nil
	}

	action, queueErr := s.executor.Queue(ctx, executor.QueueRequest{
		UserID:     userID,
		SessionID:  req.GetString("session_id", ""),
		ActionType: actionType,
		Payload:    mcp.ParseStringMap(req, "payload", nil),
	})
	if queueErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to queue action: %v", queueErr)), nil
	}
	return marshalResult(action)
}

// handleListActions lists a user's actions.
func (s *BrainServer) handleListActions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	actions, listErr := s.store.ListActions(ctx, store.ActionFilter{
		UserID:     userID,
		Status:     schema.ActionStatus(req.GetString("status", "")),
		ActionType: req.GetString("action_type", ""),
	})
	if listErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list actions: %v", listErr)), nil
	}
	return marshalResult(actions)
}

// marshalResult converts a value to a JSON text tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
