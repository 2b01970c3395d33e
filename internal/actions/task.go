package actions

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/pkg/schema"
)

const createTaskSchema = `{
  "type": "object",
  "properties": {
    "title": { "type": "string" },
    "description": { "type": "string" },
    "priority": { "type": "string", "enum": ["low", "medium", "high"] }
  },
  "additionalProperties": true
}`

// CreateTaskHandler persists a task row for the action's user.
type CreateTaskHandler struct {
	store store.Store
}

// NewCreateTaskHandler creates a handler backed by the given store.
func NewCreateTaskHandler(s store.Store) *CreateTaskHandler {
	return &CreateTaskHandler{store: s}
}

func (h *CreateTaskHandler) Name() string { return schema.ActionCreateTask }

func (h *CreateTaskHandler) Schema() HandlerSchema {
	return HandlerSchema{
		PayloadSchema: json.RawMessage(createTaskSchema),
		Description:   "Create a task from the payload title, description and priority.",
	}
}

func (h *CreateTaskHandler) Execute(ctx context.Context, input HandlerInput) (*HandlerOutput, error) {
	task := &store.Task{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       stringOr(input.Payload, "title", "Untitled Task"),
		Description: stringOr(input.Payload, "description", ""),
		Status:      "open",
		Priority:    stringOr(input.Payload, "priority", "medium"),
		Source:      "workflow",
	}

	if err := h.store.CreateTask(ctx, task); err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "failed to create task").WithCause(err)
	}

	return &HandlerOutput{Result: map[string]any{"task_id": task.ID}}, nil
}

// stringOr returns payload[key] as a string, or def when absent or not a string.
func stringOr(payload map[string]any, key, def string) string {
	if v, ok := payload[key].(string); ok && v != "" {
		return v
	}
	return def
}
