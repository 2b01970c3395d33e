package expressions

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/solohub/braind/pkg/schema"
)

// RenderTemplate renders a payload template against an event context.
// The template is serialized to JSON, every {{dotted.path}} placeholder is
// replaced by the value resolved from the context (whitespace around the path
// is trimmed, unresolved paths render as empty strings), and the result is
// parsed back into a map. If a substitution breaks the JSON structure the
// render fails with a TEMPLATE_ERROR rather than producing a corrupt payload.
func RenderTemplate(tpl map[string]any, context map[string]any) (map[string]any, error) {
	if len(tpl) == 0 {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(tpl)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeTemplate,
			"serialize payload template: %s", err.Error()).WithCause(err)
	}

	rendered := substitute(string(raw), context)

	var payload map[string]any
	if err := json.Unmarshal([]byte(rendered), &payload); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeTemplate,
			"rendered payload is not valid JSON: %s", err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"rendered": rendered})
	}
	return payload, nil
}

// substitute replaces every {{...}} placeholder in the serialized template.
// Placeholders without a closing }} are left untouched.
func substitute(input string, context map[string]any) string {
	var result strings.Builder
	result.Grow(len(input))

	i := 0
	for i < len(input) {
		idx := strings.Index(input[i:], "{{")
		if idx == -1 {
			result.WriteString(input[i:])
			break
		}

		result.WriteString(input[i : i+idx])
		start := i + idx + 2

		end := strings.Index(input[start:], "}}")
		if end == -1 {
			result.WriteString(input[i+idx:])
			break
		}
		end += start

		path := strings.TrimSpace(input[start:end])
		val, ok := LookupPath(context, path)
		if ok {
			result.WriteString(marshalInline(val))
		}
		// Unresolved paths render as empty string.

		i = end + 2
	}

	return result.String()
}

// LookupPath resolves a dot-delimited path against nested maps.
// Returns false when any segment is missing or a non-map is traversed into.
func LookupPath(root map[string]any, path string) (any, bool) {
	if path == "" || root == nil {
		return nil, false
	}

	// Direct key lookup first (supports keys containing dots).
	if val, ok := root[path]; ok {
		return val, true
	}

	var current any = root
	for _, seg := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// marshalInline converts a resolved value into its inline representation.
// Strings are embedded without extra quotes so that placeholders inside JSON
// string values concatenate naturally; complex types are JSON-encoded inline.
func marshalInline(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case nil:
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case json.RawMessage:
		return string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// HasPlaceholders checks whether a template contains any {{...}} references.
func HasPlaceholders(tpl map[string]any) bool {
	raw, err := json.Marshal(tpl)
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), "{{")
}
