package expressions

import (
	"context"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/solohub/braind/pkg/schema"
)

// exprScope is the fixed expression environment: the same three top-level
// variables the CEL engine declares. Compiling against it rejects unknown
// identifiers up front instead of failing at evaluation time.
type exprScope struct {
	Event    map[string]any `expr:"event"`
	Context  map[string]any `expr:"context"`
	Workflow map[string]any `expr:"workflow"`
}

func scopeFrom(data map[string]any) exprScope {
	return exprScope{
		Event:    scopeMap(data, "event"),
		Context:  scopeMap(data, "context"),
		Workflow: scopeMap(data, "workflow"),
	}
}

// scopeMap returns the named sub-map, or an empty map so member access on a
// missing scope yields nil instead of a runtime error.
func scopeMap(data map[string]any, key string) map[string]any {
	if m, ok := data[key].(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

// ExprEngine implements the Engine interface using expr-lang/expr. It covers
// conditions that lean on expr's array/string helpers, nil coalescing (??)
// and optional chaining (?.).
// Thread-safe: compiled *vm.Program objects are cached and reused across goroutines.
type ExprEngine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEngine creates a new Expr expression engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{
		cache: make(map[string]*vm.Program),
	}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Evaluate compiles (or retrieves from cache) an Expr expression and evaluates
// it against the event, context and workflow scopes carried in data.
func (e *ExprEngine) Evaluate(ctx context.Context, expression string, data map[string]any) (any, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty expr expression")
	}

	prg, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(prg, scopeFrom(data))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeExpression,
			"expr evaluation failed for %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	return out, nil
}

// getOrCompile returns a cached compiled program or compiles and caches a new one.
func (e *ExprEngine) getOrCompile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(expression, expr.Env(exprScope{}))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"expr compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = prg
	return prg, nil
}

var _ Engine = (*ExprEngine)(nil)
