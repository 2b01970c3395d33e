package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solohub/braind/internal/actions"
	"github.com/solohub/braind/internal/executor"
	"github.com/solohub/braind/internal/expressions"
	"github.com/solohub/braind/internal/store"
	"github.com/solohub/braind/internal/streaming"
	"github.com/solohub/braind/internal/validation"
	"github.com/solohub/braind/pkg/schema"
)

type fixture struct {
	store  store.Store
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "braind-test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	reg := actions.NewRegistry()
	require.NoError(t, actions.RegisterBuiltins(reg, s))

	v, err := validation.NewJSONSchemaValidator()
	require.NoError(t, err)

	engines, err := expressions.NewEngines()
	require.NoError(t, err)

	hub := streaming.NewMemoryHub()
	exec := executor.NewExecutor(s, reg, v, hub, slog.Default())

	return &fixture{
		store:  s,
		engine: NewEngine(s, exec, engines, hub, slog.Default()),
	}
}

func (f *fixture) seedWorkflow(t *testing.T, wf *store.Workflow) *store.Workflow {
	t.Helper()
	if wf.ID == "" {
		wf.ID = "wf-" + wf.Name
	}
	if wf.UserID == "" {
		wf.UserID = "user-1"
	}
	require.NoError(t, f.store.CreateWorkflow(context.Background(), wf))
	return wf
}

func onQueryWorkflow(name string, cfg schema.TriggerConfig, steps ...schema.ActionStep) *store.Workflow {
	return &store.Workflow{
		Name:          name,
		TriggerType:   schema.TriggerOnQuery,
		TriggerConfig: cfg,
		Actions:       steps,
		IsActive:      true,
	}
}

func TestMatchTrigger_ExactTypeOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := &store.Workflow{
		TriggerType:   schema.TriggerScheduleDaily,
		TriggerConfig: schema.TriggerConfig{"contains": "refund"},
	}

	ok, err := f.engine.MatchTrigger(ctx, wf, schema.TriggerOnQuery, map[string]any{"query": "refund please"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.engine.MatchTrigger(ctx, wf, schema.TriggerScheduleDaily, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.MatchTrigger(ctx, &store.Workflow{}, schema.TriggerOnQuery, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchTrigger_ContainsAndConfidence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := &store.Workflow{
		TriggerType: schema.TriggerOnQuery,
		TriggerConfig: schema.TriggerConfig{
			"contains":       "refund",
			"min_confidence": 0.8,
		},
	}

	cases := []struct {
		name    string
		context map[string]any
		want    bool
	}{
		{"both pass", map[string]any{"query": "I want a REFUND now", "confidence": 0.9}, true},
		{"substring fails", map[string]any{"query": "where is my order", "confidence": 0.9}, false},
		{"confidence fails", map[string]any{"query": "refund please", "confidence": 0.5}, false},
		{"missing confidence is zero", map[string]any{"query": "refund please"}, false},
		{"integer confidence", map[string]any{"query": "refund please", "confidence": 1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := f.engine.MatchTrigger(ctx, wf, schema.TriggerOnQuery, tc.context)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestMatchTrigger_WhenCondition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := &store.Workflow{
		TriggerType: schema.TriggerOnQuery,
		TriggerConfig: schema.TriggerConfig{
			"when": `event.priority == "high"`,
		},
	}

	ok, err := f.engine.MatchTrigger(ctx, wf, schema.TriggerOnQuery, map[string]any{"priority": "high"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.engine.MatchTrigger(ctx, wf, schema.TriggerOnQuery, map[string]any{"priority": "low"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchTrigger_WhenContextAlias(t *testing.T) {
	f := newFixture(t)

	// The event context is visible under both spellings.
	wf := &store.Workflow{
		TriggerType: schema.TriggerOnQuery,
		TriggerConfig: schema.TriggerConfig{
			"when": `context.priority == "high" && event.priority == "high"`,
		},
	}

	ok, err := f.engine.MatchTrigger(context.Background(), wf, schema.TriggerOnQuery,
		map[string]any{"priority": "high"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatchTrigger_WhenExprLang(t *testing.T) {
	f := newFixture(t)

	wf := &store.Workflow{
		TriggerType: schema.TriggerOnQuery,
		TriggerConfig: schema.TriggerConfig{
			"when":      `event.count > 3`,
			"when_lang": "expr",
		},
	}

	ok, err := f.engine.MatchTrigger(context.Background(), wf, schema.TriggerOnQuery, map[string]any{"count": 5})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEvaluateEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWorkflow(t, onQueryWorkflow("invoices", schema.TriggerConfig{"contains": "invoice"},
		schema.ActionStep{ActionType: schema.ActionCreateTask}))
	f.seedWorkflow(t, onQueryWorkflow("refunds", schema.TriggerConfig{"contains": "refund"},
		schema.ActionStep{ActionType: schema.ActionCreateTask}))
	inactive := onQueryWorkflow("disabled", schema.TriggerConfig{"contains": "invoice"},
		schema.ActionStep{ActionType: schema.ActionCreateTask})
	inactive.IsActive = false
	f.seedWorkflow(t, inactive)

	matched, err := f.engine.EvaluateEvent(ctx, "user-1", schema.TriggerOnQuery,
		map[string]any{"query": "where is my invoice"})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "invoices", matched[0].Name)
}

func TestRunWorkflow_QueuesEveryStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.seedWorkflow(t, onQueryWorkflow("multi", nil,
		schema.ActionStep{ActionType: schema.ActionCreateTask, Payload: map[string]any{"title": "one"}},
		schema.ActionStep{ActionType: schema.ActionSendNotification, Payload: map[string]any{"message": "two"}},
		schema.ActionStep{ActionType: schema.ActionAddNote, Payload: map[string]any{"content": "three"}},
	))

	queued, err := f.engine.RunWorkflow(ctx, wf, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, queued)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{
		UserID: "user-1",
		Status: schema.ActionStatusPending,
	})
	require.NoError(t, err)
	require.Len(t, pending, 3)
}

func TestRunWorkflow_EmptyActions(t *testing.T) {
	f := newFixture(t)

	wf := f.seedWorkflow(t, onQueryWorkflow("empty", nil))

	queued, err := f.engine.RunWorkflow(context.Background(), wf, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, queued)

	pending, err := f.store.ListActions(context.Background(), store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRunWorkflow_TemplateRendering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedWorkflow(t, onQueryWorkflow("follow-up", schema.TriggerConfig{"contains": "invoice"},
		schema.ActionStep{
			ActionType: schema.ActionCreateTask,
			Payload:    map[string]any{"title": "Follow up on {{query}}"},
		}))

	eventCtx := map[string]any{"query": "where is my invoice", "confidence": 0.9}

	matched, err := f.engine.EvaluateEvent(ctx, "user-1", schema.TriggerOnQuery, eventCtx)
	require.NoError(t, err)
	require.Len(t, matched, 1)

	queued, err := f.engine.RunWorkflow(ctx, matched[0], "user-1", eventCtx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, schema.ActionCreateTask, pending[0].ActionType)
	assert.Equal(t, "Follow up on where is my invoice", pending[0].Payload["title"])
}

func TestRunWorkflow_SessionIDFromContext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.seedWorkflow(t, onQueryWorkflow("session", nil,
		schema.ActionStep{ActionType: schema.ActionAddNote, Payload: map[string]any{"content": "hi"}}))

	_, err := f.engine.RunWorkflow(ctx, wf, "user-1", map[string]any{"sessionId": "sess-42"})
	require.NoError(t, err)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "sess-42", pending[0].SessionID)
}

func TestRunWorkflow_JQTransform(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.seedWorkflow(t, onQueryWorkflow("jq", nil,
		schema.ActionStep{
			ActionType: schema.ActionCreateTask,
			PayloadJQ:  `{title: ("Ticket: " + .query), priority: "high"}`,
		}))

	queued, err := f.engine.RunWorkflow(ctx, wf, "user-1", map[string]any{"query": "broken login"})
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Ticket: broken login", pending[0].Payload["title"])
	assert.Equal(t, "high", pending[0].Payload["priority"])
}

func TestRunWorkflow_SkipsBrokenStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.seedWorkflow(t, onQueryWorkflow("partial", nil,
		schema.ActionStep{ActionType: schema.ActionCreateTask, PayloadJQ: `.query | not_a_function`},
		schema.ActionStep{ActionType: schema.ActionAddNote, Payload: map[string]any{"content": "still runs"}},
	))

	queued, err := f.engine.RunWorkflow(ctx, wf, "user-1", map[string]any{"query": "hello"})
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, schema.ActionAddNote, pending[0].ActionType)
}

func TestRunWorkflow_LegacyTypeKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	wf := f.seedWorkflow(t, onQueryWorkflow("legacy", nil,
		schema.ActionStep{Type: schema.ActionSendNotification, PayloadTemplate: map[string]any{"message": "via legacy keys"}}))

	queued, err := f.engine.RunWorkflow(ctx, wf, "user-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	pending, err := f.store.ListActions(ctx, store.ActionFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, schema.ActionSendNotification, pending[0].ActionType)
	assert.Equal(t, "via legacy keys", pending[0].Payload["message"])
}
