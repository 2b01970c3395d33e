package schema

// ActionStatus represents the lifecycle state of a queued action.
type ActionStatus string

const (
	ActionStatusPending ActionStatus = "pending"
	ActionStatusRunning ActionStatus = "running"
	ActionStatusSuccess ActionStatus = "success"
	ActionStatusFailed  ActionStatus = "failed"
)

// ValidActionTransitions maps each status to the statuses it may move to.
// Transitions are monotonic: an action never re-enters pending and terminal
// states have no outgoing edges.
var ValidActionTransitions = map[ActionStatus][]ActionStatus{
	ActionStatusPending: {ActionStatusRunning},
	ActionStatusRunning: {ActionStatusSuccess, ActionStatusFailed},
}

// CanTransition reports whether from -> to is an allowed action transition.
func CanTransition(from, to ActionStatus) bool {
	for _, allowed := range ValidActionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status is a terminal state.
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusSuccess || s == ActionStatusFailed
}

// Trigger types understood by the workflow engine. The set is open at the
// store level; these are the types the engine currently evaluates.
const (
	TriggerScheduleDaily = "schedule_daily"
	TriggerScheduleCron  = "schedule_cron"
	TriggerOnQuery       = "on_query"
)

// Builtin action types dispatched by the executor.
const (
	ActionCreateTask       = "create_task"
	ActionSendNotification = "send_notification"
	ActionAddNote          = "add_note"
	ActionUpdateKnowledge  = "update_knowledge"
)

// Event type constants for the streaming hub.
const (
	EventActionQueued      = "action_queued"
	EventActionStarted     = "action_started"
	EventActionCompleted   = "action_completed"
	EventActionFailed      = "action_failed"
	EventWorkflowTriggered = "workflow_triggered"
	EventStepSkipped       = "step_skipped"
)
