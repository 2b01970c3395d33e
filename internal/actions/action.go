package actions

import (
	"context"
	"encoding/json"
)

// Handler is an executable handler for one action type.
type Handler interface {
	Name() string
	Schema() HandlerSchema
	Execute(ctx context.Context, input HandlerInput) (*HandlerOutput, error)
}

// HandlerSchema describes the payload contract of a handler.
type HandlerSchema struct {
	PayloadSchema json.RawMessage `json:"payload_schema,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// HandlerInput is the data provided to a handler at execution time.
type HandlerInput struct {
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id,omitempty"`
	Payload   map[string]any `json:"payload"`
}

// HandlerOutput is the result of a handler execution.
type HandlerOutput struct {
	Result map[string]any `json:"result,omitempty"`
}

// HandlerInfo is a summary of a registered handler for listing.
type HandlerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
