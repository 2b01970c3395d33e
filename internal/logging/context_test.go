package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	// Initially empty.
	assert.Equal(t, "", UserID(ctx))
	assert.Equal(t, "", WorkflowID(ctx))
	assert.Equal(t, "", ActionID(ctx))

	// Set values.
	ctx = WithUserID(ctx, "user-123")
	ctx = WithWorkflowID(ctx, "wf-1")
	ctx = WithActionID(ctx, "act-42")

	// Round-trip.
	assert.Equal(t, "user-123", UserID(ctx))
	assert.Equal(t, "wf-1", WorkflowID(ctx))
	assert.Equal(t, "act-42", ActionID(ctx))
}

func TestCorrelationHandlerMissingKeys(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	// Only set user ID; workflow and action should not appear.
	ctx := WithUserID(context.Background(), "user-only")
	logger.InfoContext(ctx, "partial context")

	output := buf.String()
	assert.Contains(t, output, "user_id=user-only")
	assert.NotContains(t, output, "workflow_id")
	assert.NotContains(t, output, "action_id")
}

func TestCorrelationHandler(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	ctx := WithUserID(context.Background(), "user-1")
	ctx = WithActionID(ctx, "act-9")

	logger.InfoContext(ctx, "handled")

	output := buf.String()
	assert.Contains(t, output, "user_id=user-1")
	assert.Contains(t, output, "action_id=act-9")
	assert.NotContains(t, output, "workflow_id")
}
