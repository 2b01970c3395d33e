package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan StreamEvent) StreamEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return StreamEvent{}
	}
}

func TestMemoryHub_PublishSubscribe(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	err = hub.Publish(ctx, StreamEvent{
		UserID:    "user-1",
		EventType: "action.queued",
	})
	require.NoError(t, err)

	ev := recvEvent(t, ch)
	assert.Equal(t, "user-1", ev.UserID)
	assert.Equal(t, "action.queued", ev.EventType)
}

func TestMemoryHub_FilterByUser(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{UserID: "user-1"})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{UserID: "user-2", EventType: "action.queued"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{UserID: "user-1", EventType: "action.completed"}))

	ev := recvEvent(t, ch)
	assert.Equal(t, "user-1", ev.UserID)
	assert.Equal(t, "action.completed", ev.EventType)
	assert.Empty(t, ch)
}

func TestMemoryHub_FilterByWorkflowAndType(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{
		WorkflowID: "wf-1",
		EventTypes: []string{"workflow.triggered"},
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{WorkflowID: "wf-1", EventType: "action.queued"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{WorkflowID: "wf-2", EventType: "workflow.triggered"}))
	require.NoError(t, hub.Publish(ctx, StreamEvent{WorkflowID: "wf-1", EventType: "workflow.triggered"}))

	ev := recvEvent(t, ch)
	assert.Equal(t, "wf-1", ev.WorkflowID)
	assert.Equal(t, "workflow.triggered", ev.EventType)
	assert.Empty(t, ch)
}

func TestMemoryHub_CancelRemovesSubscriber(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	cancel()

	require.NoError(t, hub.Publish(ctx, StreamEvent{EventType: "action.queued"}))
	assert.Empty(t, ch)
}

func TestMemoryHub_DropsWhenFull(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, EventFilter{})
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < defaultChannelBuffer+10; i++ {
		require.NoError(t, hub.Publish(ctx, StreamEvent{EventType: "action.queued"}))
	}
	assert.Len(t, ch, defaultChannelBuffer)
}
