package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ActionStatus
		want     bool
	}{
		{ActionStatusPending, ActionStatusRunning, true},
		{ActionStatusRunning, ActionStatusSuccess, true},
		{ActionStatusRunning, ActionStatusFailed, true},
		{ActionStatusPending, ActionStatusSuccess, false},
		{ActionStatusRunning, ActionStatusPending, false},
		{ActionStatusSuccess, ActionStatusRunning, false},
		{ActionStatusFailed, ActionStatusRunning, false},
		{ActionStatusSuccess, ActionStatusFailed, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, ActionStatusPending.IsTerminal())
	assert.False(t, ActionStatusRunning.IsTerminal())
	assert.True(t, ActionStatusSuccess.IsTerminal())
	assert.True(t, ActionStatusFailed.IsTerminal())
}
