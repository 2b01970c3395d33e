package expressions

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solohub/braind/pkg/schema"
)

func TestRenderTemplate_NestedPath(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"title": "Hello {{user.name}}"},
		map[string]any{"user": map[string]any{"name": "Ann"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello Ann", payload["title"])
}

func TestRenderTemplate_MissingPathRendersEmpty(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"title": "Hello {{user.name}}"},
		map[string]any{},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello ", payload["title"])
}

func TestRenderTemplate_WhitespaceTrimmed(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"title": "Follow up on {{ query }}"},
		map[string]any{"query": "where is my invoice"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Follow up on where is my invoice", payload["title"])
}

func TestRenderTemplate_NumberAndBool(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"note": "confidence {{confidence}} urgent {{urgent}}"},
		map[string]any{"confidence": 0.9, "urgent": true},
	)
	require.NoError(t, err)
	assert.Equal(t, "confidence 0.9 urgent true", payload["note"])
}

func TestRenderTemplate_MultiplePlaceholders(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"message": "{{a}} and {{b}}"},
		map[string]any{"a": "first", "b": "second"},
	)
	require.NoError(t, err)
	assert.Equal(t, "first and second", payload["message"])
}

func TestRenderTemplate_EmptyTemplate(t *testing.T) {
	payload, err := RenderTemplate(nil, map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestRenderTemplate_BrokenJSONIsHardFailure(t *testing.T) {
	// A substituted quote breaks the JSON string; the render must fail
	// instead of producing a corrupt payload.
	_, err := RenderTemplate(
		map[string]any{"title": "Hello {{name}}"},
		map[string]any{"name": `Ann "the boss"`},
	)
	require.Error(t, err)

	var brainErr *schema.BrainError
	require.True(t, errors.As(err, &brainErr))
	assert.Equal(t, schema.ErrCodeTemplate, brainErr.Code)
}

func TestRenderTemplate_UnclosedPlaceholderLeftVerbatim(t *testing.T) {
	payload, err := RenderTemplate(
		map[string]any{"title": "Hello {{user"},
		map[string]any{"user": "Ann"},
	)
	require.NoError(t, err)
	assert.Equal(t, "Hello {{user", payload["title"])
}

func TestLookupPath(t *testing.T) {
	ctx := map[string]any{
		"user":    map[string]any{"name": "Ann"},
		"dot.key": "direct",
	}

	val, ok := LookupPath(ctx, "user.name")
	require.True(t, ok)
	assert.Equal(t, "Ann", val)

	val, ok = LookupPath(ctx, "dot.key")
	require.True(t, ok)
	assert.Equal(t, "direct", val)

	_, ok = LookupPath(ctx, "user.name.deeper")
	assert.False(t, ok)

	_, ok = LookupPath(ctx, "missing")
	assert.False(t, ok)
}

func TestHasPlaceholders(t *testing.T) {
	assert.True(t, HasPlaceholders(map[string]any{"a": "{{x}}"}))
	assert.False(t, HasPlaceholders(map[string]any{"a": "plain"}))
}
