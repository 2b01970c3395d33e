package schema

// ActionStep is one declarative entry in a workflow's action list.
// Two field spellings are accepted for both the type and the payload; the
// admin UI historically wrote either form and stored workflows carry both.
type ActionStep struct {
	ActionType      string         `json:"action_type,omitempty"`
	Type            string         `json:"type,omitempty"` // alias for action_type
	Payload         map[string]any `json:"payload,omitempty"`
	PayloadTemplate map[string]any `json:"payload_template,omitempty"` // alias for payload
	PayloadJQ       string         `json:"payload_jq,omitempty"`       // jq program over the event context
}

// ResolvedType returns the step's action type, preferring action_type over type.
func (s ActionStep) ResolvedType() string {
	if s.ActionType != "" {
		return s.ActionType
	}
	return s.Type
}

// Template returns the payload template, preferring payload over payload_template.
func (s ActionStep) Template() map[string]any {
	if s.Payload != nil {
		return s.Payload
	}
	return s.PayloadTemplate
}

// TriggerConfig is the untyped matcher configuration attached to a workflow.
// Its semantics depend entirely on the trigger type.
type TriggerConfig map[string]any

// String returns the string value for key, or "" if absent or not a string.
func (c TriggerConfig) String(key string) string {
	v, _ := c[key].(string)
	return v
}

// Float returns the numeric value for key and whether it was present.
// JSON numbers unmarshal as float64; int is accepted for values set in code.
func (c TriggerConfig) Float(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
