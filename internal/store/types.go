package store

import (
	"time"

	"github.com/solohub/braind/pkg/schema"
)

// Workflow is a user-owned rule mapping a trigger to an ordered action list.
type Workflow struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	Name            string               `json:"name"`
	Description     string               `json:"description,omitempty"`
	TriggerType     string               `json:"trigger_type"`
	TriggerConfig   schema.TriggerConfig `json:"trigger_config,omitempty"`
	Actions         []schema.ActionStep  `json:"actions"`
	IsActive        bool                 `json:"is_active"`
	LastTriggeredAt *time.Time           `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// Action is a single queued side-effecting operation with its own lifecycle.
type Action struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	SessionID  string              `json:"session_id,omitempty"`
	ActionType string              `json:"action_type"`
	Payload    map[string]any      `json:"payload"`
	Status     schema.ActionStatus `json:"status"`
	Result     map[string]any      `json:"result,omitempty"`
	ErrorLog   string              `json:"error_log,omitempty"`
	ExecutedAt *time.Time          `json:"executed_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Task is a row created by the create_task action.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification is a row created by send_notification and add_note actions.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Filter and update types ---

// WorkflowFilter specifies criteria for listing workflows.
type WorkflowFilter struct {
	UserID      string `json:"user_id,omitempty"`
	ActiveOnly  bool   `json:"active_only,omitempty"`
	TriggerType string `json:"trigger_type,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// WorkflowUpdate specifies mutable fields of a workflow. Nil pointers leave
// the column untouched.
type WorkflowUpdate struct {
	Name          *string               `json:"name,omitempty"`
	Description   *string               `json:"description,omitempty"`
	TriggerType   *string               `json:"trigger_type,omitempty"`
	TriggerConfig *schema.TriggerConfig `json:"trigger_config,omitempty"`
	Actions       *[]schema.ActionStep  `json:"actions,omitempty"`
	IsActive      *bool                 `json:"is_active,omitempty"`
}

// ActionFilter specifies criteria for listing actions.
type ActionFilter struct {
	UserID     string              `json:"user_id,omitempty"`
	Status     schema.ActionStatus `json:"status,omitempty"`
	ActionType string              `json:"action_type,omitempty"`
	Limit      int                 `json:"limit,omitempty"`
}

// ActionUpdate specifies mutable fields of an action.
type ActionUpdate struct {
	Status     *schema.ActionStatus `json:"status,omitempty"`
	Result     map[string]any       `json:"result,omitempty"`
	ErrorLog   *string              `json:"error_log,omitempty"`
	ExecutedAt *time.Time           `json:"executed_at,omitempty"`
}
