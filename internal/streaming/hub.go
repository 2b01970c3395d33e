package streaming

import "context"

// StreamEvent is a real-time event emitted by the action/workflow pipeline.
type StreamEvent struct {
	UserID     string `json:"user_id"`
	WorkflowID string `json:"workflow_id,omitempty"`
	ActionID   string `json:"action_id,omitempty"`
	EventType  string `json:"event_type"`
	Payload    any    `json:"payload,omitempty"`
}

// EventFilter specifies which events a subscriber wants to receive.
type EventFilter struct {
	UserID     string   `json:"user_id,omitempty"`
	WorkflowID string   `json:"workflow_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// EventHub provides pub/sub for real-time pipeline events.
type EventHub interface {
	Publish(ctx context.Context, event StreamEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan StreamEvent, func(), error)
}
