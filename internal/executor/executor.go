package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/solohub/braind/internal/actions"
	"github.com/solohub/braind/internal/logging"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/internal/streaming"
	"github.com/solohub/braind/internal/validation"
	"github.com/solohub/braind/pkg/schema"
)

// QueueRequest carries the fields needed to queue a new action.
type QueueRequest struct {
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id,omitempty"`
	ActionType string         `json:"action_type"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Executor queues actions and drives them through their lifecycle.
// Dispatch is closed: an action type without a registered handler fails
// terminally at execution time.
type Executor struct {
	store     store.Store
	registry  *actions.Registry
	validator *validation.JSONSchemaValidator
	hub       streaming.EventHub
	logger    *slog.Logger
}

// NewExecutor creates an Executor with the given dependencies.
// hub is optional (nil = no events published).
func NewExecutor(s store.Store, reg *actions.Registry, v *validation.JSONSchemaValidator, hub streaming.EventHub, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:     s,
		registry:  reg,
		validator: v,
		hub:       hub,
		logger:    logger,
	}
}

// Queue persists a new pending action. Payloads for registered action types
// are validated against the handler's payload schema; unknown types are
// accepted here and fail when executed.
func (e *Executor) Queue(ctx context.Context, req QueueRequest) (*store.Action, error) {
	if req.UserID == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "user_id is required")
	}
	if req.ActionType == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "action_type is required")
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	if e.validator != nil {
		if h, err := e.registry.Get(req.ActionType); err == nil {
			if verr := e.validator.ValidatePayload(payload, h.Schema().PayloadSchema); verr != nil {
				return nil, verr
			}
		}
	}

	action := &store.Action{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		ActionType: req.ActionType,
		Payload:    payload,
		Status:     schema.ActionStatusPending,
	}

	if err := e.store.CreateAction(ctx, action); err != nil {
		return nil, err
	}

	ctx = logging.WithUserID(ctx, action.UserID)
	ctx = logging.WithActionID(ctx, action.ID)
	e.publish(ctx, action, schema.EventActionQueued, nil)
	e.logger.InfoContext(ctx, "action queued", "action_type", action.ActionType)

	return action, nil
}

// Execute runs a single action to a terminal status. The action must be
// pending or already claimed as running; terminal actions are rejected.
func (e *Executor) Execute(ctx context.Context, action *store.Action) (*store.Action, error) {
	ctx = logging.WithUserID(ctx, action.UserID)
	ctx = logging.WithActionID(ctx, action.ID)

	if action.Status.IsTerminal() {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"action %s is %s and cannot be executed", action.ID, action.Status)
	}

	switch {
	case action.Status == schema.ActionStatusRunning:
		// claimed by ClaimPending, already running
	case schema.CanTransition(action.Status, schema.ActionStatusRunning):
		running := schema.ActionStatusRunning
		if err := e.store.UpdateAction(ctx, action.ID, store.ActionUpdate{Status: &running}); err != nil {
			return nil, err
		}
		action.Status = running
	default:
		return nil, schema.NewErrorf(schema.ErrCodeInvalidTransition,
			"action %s cannot move from %s to %s", action.ID, action.Status, schema.ActionStatusRunning)
	}

	e.publish(ctx, action, schema.EventActionStarted, nil)

	handler, err := e.registry.Get(action.ActionType)
	if err != nil {
		return e.fail(ctx, action, err)
	}

	out, err := handler.Execute(ctx, actions.HandlerInput{
		UserID:    action.UserID,
		SessionID: action.SessionID,
		Payload:   action.Payload,
	})
	if err != nil {
		return e.fail(ctx, action, err)
	}

	now := time.Now().UTC()
	success := schema.ActionStatusSuccess
	update := store.ActionUpdate{
		Status:     &success,
		Result:     out.Result,
		ExecutedAt: &now,
	}
	if err := e.store.UpdateAction(ctx, action.ID, update); err != nil {
		return nil, err
	}

	action.Status = success
	action.Result = out.Result
	action.ExecutedAt = &now

	e.publish(ctx, action, schema.EventActionCompleted, out.Result)
	e.logger.InfoContext(ctx, "action completed", "action_type", action.ActionType)

	return action, nil
}

// ExecuteByID loads an action by id with ownership enforced, then executes it.
func (e *Executor) ExecuteByID(ctx context.Context, id, userID string) (*store.Action, error) {
	action, err := e.store.GetAction(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, action)
}

// ExecutePending atomically claims up to limit pending actions, oldest first,
// and executes them sequentially. Returns the number of actions attempted.
// Handler failures are recorded on the action, not returned.
func (e *Executor) ExecutePending(ctx context.Context, limit int) (int, error) {
	claimed, err := e.store.ClaimPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	for _, action := range claimed {
		if _, err := e.Execute(ctx, action); err != nil {
			e.logger.ErrorContext(ctx, "action execution error",
				"action_id", action.ID,
				"error", err)
		}
	}
	return len(claimed), nil
}

// fail records a terminal failure on the action. The returned error is nil:
// the failure lives in the action row.
func (e *Executor) fail(ctx context.Context, action *store.Action, cause error) (*store.Action, error) {
	now := time.Now().UTC()
	failed := schema.ActionStatusFailed
	errLog := cause.Error()
	update := store.ActionUpdate{
		Status:     &failed,
		ErrorLog:   &errLog,
		ExecutedAt: &now,
	}
	if err := e.store.UpdateAction(ctx, action.ID, update); err != nil {
		return nil, err
	}

	action.Status = failed
	action.ErrorLog = errLog
	action.ExecutedAt = &now

	e.publish(ctx, action, schema.EventActionFailed, map[string]any{"error": errLog})
	e.logger.WarnContext(ctx, "action failed",
		"action_type", action.ActionType,
		"error", errLog)

	return action, nil
}

func (e *Executor) publish(ctx context.Context, action *store.Action, eventType string, payload map[string]any) {
	if e.hub == nil {
		return
	}
	_ = e.hub.Publish(ctx, streaming.StreamEvent{
		UserID:    action.UserID,
		ActionID:  action.ID,
		EventType: eventType,
		Payload:   payload,
	})
}
