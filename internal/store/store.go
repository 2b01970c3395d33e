package store

import (
	"context"
	"time"
)

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Workflows
	CreateWorkflow(ctx context.Context, wf *Workflow) error
	GetWorkflow(ctx context.Context, id, userID string) (*Workflow, error)
	UpdateWorkflow(ctx context.Context, id, userID string, update WorkflowUpdate) error
	ListWorkflows(ctx context.Context, filter WorkflowFilter) ([]*Workflow, error)
	DeleteWorkflow(ctx context.Context, id, userID string) error
	MarkTriggered(ctx context.Context, id string, at time.Time) error

	// Actions
	CreateAction(ctx context.Context, a *Action) error
	GetAction(ctx context.Context, id, userID string) (*Action, error)
	ListActions(ctx context.Context, filter ActionFilter) ([]*Action, error)
	// ClaimPending atomically moves up to limit pending actions to running,
	// oldest first, and returns the claimed rows. Rows claimed by one caller
	// are invisible to concurrent callers.
	ClaimPending(ctx context.Context, limit int) ([]*Action, error)
	UpdateAction(ctx context.Context, id string, update ActionUpdate) error

	// Side-effect collections written by action handlers
	CreateTask(ctx context.Context, t *Task) error
	ListTasks(ctx context.Context, userID string, limit int) ([]*Task, error)
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]*Notification, error)

	// ListActiveWorkflowUsers returns distinct user ids owning at least one
	// active workflow, for the workflow scheduler.
	ListActiveWorkflowUsers(ctx context.Context, limit int) ([]string, error)

	// Maintenance
	Migrate(ctx context.Context) error

	// Lifecycle
	Close() error
}
