package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/expressions"
	"github.com/solohub/braind/internal/logging"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/internal/streaming"
	"github.com/solohub/braind/pkg/schema"
)

// Engine decides which workflows respond to an event and translates a
// matching workflow's declarative action list into queued actions.
type Engine struct {
	store    store.Store
	executor *executor.Executor
	engines  *expressions.Engines
	hub      streaming.EventHub
	logger   *slog.Logger
}

// NewEngine creates an Engine with the given dependencies.
// hub is optional (nil = no events published).
func NewEngine(s store.Store, exec *executor.Executor, engines *expressions.Engines, hub streaming.EventHub, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    s,
		executor: exec,
		engines:  engines,
		hub:      hub,
		logger:   logger,
	}
}

// ActiveWorkflows returns all active workflows owned by the user.
func (e *Engine) ActiveWorkflows(ctx context.Context, userID string) ([]*store.Workflow, error) {
	return e.store.ListWorkflows(ctx, store.WorkflowFilter{
		UserID:     userID,
		ActiveOnly: true,
	})
}

// MatchTrigger reports whether the workflow's trigger fires for the given
// event type and context. Trigger type matching is exact. on_query triggers
// additionally honor trigger_config.contains (case-insensitive substring of
// context.query) and trigger_config.min_confidence (context.confidence
// defaults to 0 when absent). A trigger_config.when expression, evaluated
// with the engine named by when_lang, gates any trigger type.
func (e *Engine) MatchTrigger(ctx context.Context, wf *store.Workflow, eventType string, eventCtx map[string]any) (bool, error) {
	if wf.TriggerType == "" || wf.TriggerType != eventType {
		return false, nil
	}

	if eventType == schema.TriggerOnQuery {
		if contains := wf.TriggerConfig.String("contains"); contains != "" {
			query, _ := eventCtx["query"].(string)
			if !strings.Contains(strings.ToLower(query), strings.ToLower(contains)) {
				return false, nil
			}
		}
		if min, ok := wf.TriggerConfig.Float("min_confidence"); ok {
			confidence := 0.0
			if c, ok := toFloat(eventCtx["confidence"]); ok {
				confidence = c
			}
			if confidence < min {
				return false, nil
			}
		}
	}

	if when := wf.TriggerConfig.String("when"); when != "" {
		pass, err := e.evalWhen(ctx, wf, when, eventCtx)
		if err != nil {
			return false, err
		}
		if !pass {
			return false, nil
		}
	}

	return true, nil
}

// evalWhen evaluates a trigger_config.when condition. The expression sees the
// event context as "event" (with "context" accepted as an alias) and the
// workflow's trigger config as "workflow".
func (e *Engine) evalWhen(ctx context.Context, wf *store.Workflow, expression string, eventCtx map[string]any) (bool, error) {
	lang := wf.TriggerConfig.String("when_lang")
	engine, err := e.engines.Condition(lang)
	if err != nil {
		return false, err
	}

	result, err := engine.Evaluate(ctx, expression, map[string]any{
		"event":    eventCtx,
		"context":  eventCtx,
		"workflow": map[string]any(wf.TriggerConfig),
	})
	if err != nil {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"when condition failed for workflow %s", wf.ID).WithCause(err)
	}

	pass, ok := result.(bool)
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeExpression,
			"when condition for workflow %s did not return a boolean", wf.ID)
	}
	return pass, nil
}

// EvaluateEvent returns the user's active workflows whose triggers fire for
// the event, in store order.
func (e *Engine) EvaluateEvent(ctx context.Context, userID, eventType string, eventCtx map[string]any) ([]*store.Workflow, error) {
	if eventCtx == nil {
		eventCtx = map[string]any{}
	}

	workflows, err := e.ActiveWorkflows(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := make([]*store.Workflow, 0, len(workflows))
	for _, wf := range workflows {
		ok, err := e.MatchTrigger(ctx, wf, eventType, eventCtx)
		if err != nil {
			e.logger.WarnContext(ctx, "trigger match error",
				"workflow_id", wf.ID,
				"error", err)
			continue
		}
		if ok {
			matched = append(matched, wf)
		}
	}
	return matched, nil
}

// RunWorkflow queues one action per workflow step, strictly in array order.
// Step payloads come from a jq program (payload_jq) or a template rendered
// against the event context. A step whose payload cannot be produced is
// logged and skipped; the run continues. Returns the number of actions
// queued.
func (e *Engine) RunWorkflow(ctx context.Context, wf *store.Workflow, userID string, eventCtx map[string]any) (int, error) {
	ctx = logging.WithUserID(ctx, userID)
	ctx = logging.WithWorkflowID(ctx, wf.ID)

	if eventCtx == nil {
		eventCtx = map[string]any{}
	}
	sessionID, _ := eventCtx["sessionId"].(string)

	e.publish(ctx, wf, userID, schema.EventWorkflowTriggered, map[string]any{
		"workflow_name": wf.Name,
	})

	queued := 0
	for i, step := range wf.Actions {
		actionType := step.ResolvedType()
		if actionType == "" {
			e.skipStep(ctx, wf, userID, i, "step has no action type")
			continue
		}

		payload, err := e.stepPayload(ctx, step, eventCtx)
		if err != nil {
			e.skipStep(ctx, wf, userID, i, err.Error())
			continue
		}

		_, err = e.executor.Queue(ctx, executor.QueueRequest{
			UserID:     userID,
			SessionID:  sessionID,
			ActionType: actionType,
			Payload:    payload,
		})
		if err != nil {
			return queued, err
		}
		queued++
	}

	e.logger.InfoContext(ctx, "workflow run complete", "queued", queued)

	return queued, nil
}

// stepPayload produces the payload for one step from the event context.
func (e *Engine) stepPayload(ctx context.Context, step schema.ActionStep, eventCtx map[string]any) (map[string]any, error) {
	if step.PayloadJQ != "" {
		return e.engines.JQ().Transform(ctx, step.PayloadJQ, eventCtx)
	}
	tpl := step.Template()
	if !expressions.HasPlaceholders(tpl) {
		// static payload, no render round-trip needed
		return tpl, nil
	}
	return expressions.RenderTemplate(tpl, eventCtx)
}

func (e *Engine) skipStep(ctx context.Context, wf *store.Workflow, userID string, index int, reason string) {
	e.logger.WarnContext(ctx, "workflow step skipped",
		"step_index", index,
		"reason", reason)
	e.publish(ctx, wf, userID, schema.EventStepSkipped, map[string]any{
		"step_index": index,
		"reason":     reason,
	})
}

func (e *Engine) publish(ctx context.Context, wf *store.Workflow, userID, eventType string, payload map[string]any) {
	if e.hub == nil {
		return
	}
	_ = e.hub.Publish(ctx, streaming.StreamEvent{
		UserID:     userID,
		WorkflowID: wf.ID,
		EventType:  eventType,
		Payload:    payload,
	})
}

// toFloat coerces JSON-decoded numeric values to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
