package expressions

import (
	"context"

	"github.com/solohub/braind/pkg/schema"
)

// Engine evaluates trigger condition expressions against an event.
// Two implementations: CEL (default) and Expr.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Engines holds the available expression engines, keyed by name.
// The workflow engine selects one via trigger_config.when_lang.
type Engines struct {
	byName map[string]Engine
	jq     *GoJQEngine
}

// NewEngines builds the full engine set: cel, expr, and the jq transform engine.
func NewEngines() (*Engines, error) {
	celEngine, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	exprEngine := NewExprEngine()
	jqEngine := NewGoJQEngine()

	return &Engines{
		byName: map[string]Engine{
			celEngine.Name():  celEngine,
			exprEngine.Name(): exprEngine,
		},
		jq: jqEngine,
	}, nil
}

// Condition returns the condition engine for the given language name.
// An empty name selects CEL.
func (e *Engines) Condition(lang string) (Engine, error) {
	if lang == "" {
		lang = "cel"
	}
	engine, ok := e.byName[lang]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"unknown condition language %q; available: cel, expr", lang)
	}
	return engine, nil
}

// JQ returns the jq transform engine.
func (e *Engines) JQ() *GoJQEngine {
	return e.jq
}
