package actions

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/pkg/schema"
)

const sendNotificationSchema = `{
  "type": "object",
  "properties": {
    "message": { "type": "string" },
    "type": { "type": "string" }
  },
  "additionalProperties": true
}`

// SendNotificationHandler persists a notification row for the action's user.
type SendNotificationHandler struct {
	store store.Store
}

// NewSendNotificationHandler creates a handler backed by the given store.
func NewSendNotificationHandler(s store.Store) *SendNotificationHandler {
	return &SendNotificationHandler{store: s}
}

func (h *SendNotificationHandler) Name() string { return schema.ActionSendNotification }

func (h *SendNotificationHandler) Schema() HandlerSchema {
	return HandlerSchema{
		PayloadSchema: json.RawMessage(sendNotificationSchema),
		Description:   "Deliver a notification with the payload message and type.",
	}
}

func (h *SendNotificationHandler) Execute(ctx context.Context, input HandlerInput) (*HandlerOutput, error) {
	n := &store.Notification{
		ID:      uuid.NewString(),
		UserID:  input.UserID,
		Type:    stringOr(input.Payload, "type", "insight"),
		Message: stringOr(input.Payload, "message", "No message"),
	}

	if err := h.store.CreateNotification(ctx, n); err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "failed to create notification").WithCause(err)
	}

	return &HandlerOutput{Result: map[string]any{"notification_id": n.ID}}, nil
}

const addNoteSchema = `{
  "type": "object",
  "properties": {
    "content": { "type": "string" },
    "message": { "type": "string" }
  },
  "additionalProperties": true
}`

// AddNoteHandler records a note as a notification of type "note".
type AddNoteHandler struct {
	store store.Store
}

// NewAddNoteHandler creates a handler backed by the given store.
func NewAddNoteHandler(s store.Store) *AddNoteHandler {
	return &AddNoteHandler{store: s}
}

func (h *AddNoteHandler) Name() string { return schema.ActionAddNote }

func (h *AddNoteHandler) Schema() HandlerSchema {
	return HandlerSchema{
		PayloadSchema: json.RawMessage(addNoteSchema),
		Description:   "Record a note with the payload content.",
	}
}

func (h *AddNoteHandler) Execute(ctx context.Context, input HandlerInput) (*HandlerOutput, error) {
	message := stringOr(input.Payload, "content", "")
	if message == "" {
		message = stringOr(input.Payload, "message", "No content")
	}

	n := &store.Notification{
		ID:      uuid.NewString(),
		UserID:  input.UserID,
		Type:    "note",
		Message: message,
	}

	if err := h.store.CreateNotification(ctx, n); err != nil {
		return nil, schema.NewError(schema.ErrCodeExecution, "failed to record note").WithCause(err)
	}

	return &HandlerOutput{Result: map[string]any{"note_id": n.ID}}, nil
}
