package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solohub/braind/pkg/schema"
)

type stubHandler struct {
	name string
}

func (s *stubHandler) Name() string          { return s.name }
func (s *stubHandler) Schema() HandlerSchema { return HandlerSchema{Description: "stub"} }
func (s *stubHandler) Execute(context.Context, HandlerInput) (*HandlerOutput, error) {
	return &HandlerOutput{}, nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubHandler{name: "create_task"}))

	h, err := reg.Get("create_task")
	require.NoError(t, err)
	assert.Equal(t, "create_task", h.Name())
	assert.True(t, reg.Has("create_task"))
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("launch_rockets")
	require.Error(t, err)

	var berr *schema.BrainError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, schema.ErrCodeUnsupportedAction, berr.Code)
	assert.Contains(t, berr.Message, "launch_rockets")
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubHandler{name: "add_note"}))

	err := reg.Register(&stubHandler{name: "add_note"})
	require.Error(t, err)

	var berr *schema.BrainError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, schema.ErrCodeConflict, berr.Code)
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubHandler{name: "send_notification"}))
	require.NoError(t, reg.Register(&stubHandler{name: "add_note"}))
	require.NoError(t, reg.Register(&stubHandler{name: "create_task"}))

	infos := reg.List()
	require.Len(t, infos, 3)
	assert.Equal(t, "add_note", infos[0].Name)
	assert.Equal(t, "create_task", infos[1].Name)
	assert.Equal(t, "send_notification", infos[2].Name)
}
