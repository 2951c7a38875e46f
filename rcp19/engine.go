// Package rcp19 implements the RESO RCP19 validation expression language:
// a small formula language evaluated against a JSON document and an optional
// previous version of that document.
//
// Parsing is independent of evaluation. An Engine holds the named functions
// an expression may call; special operands such as .NOW. and .TODAY. are
// resolved through functions of the same name, so an embedder decides where
// "current time" comes from:
//
//	engine := rcp19.NewEngine[State]().
//	    WithFunction("NOW", rcp19.FunctionFunc[State](now))
//	expr, err := rcp19.Parse(`ListPrice > LAST ListPrice .AND. .NOW. > "2024"`)
//	result, err := rcp19.NewContext(engine, doc, state).WithPrevious(prev).Evaluate(expr)
//
// Documents use the shapes produced by encoding/json with UseNumber: nil,
// bool, json.Number, string, []any and map[string]any.
package rcp19

import "strings"

// Function is a named function callable from an expression. S is the type
// of the ambient state the embedder threads through evaluation.
type Function[S any] interface {
	Evaluate(ctx FunctionContext[S], args []any) (any, error)
}

// FunctionFunc adapts an ordinary function to the Function interface.
type FunctionFunc[S any] func(ctx FunctionContext[S], args []any) (any, error)

// Evaluate calls f(ctx, args).
func (f FunctionFunc[S]) Evaluate(ctx FunctionContext[S], args []any) (any, error) {
	return f(ctx, args)
}

// FunctionContext gives a function read-only access to the evaluation it is
// part of.
type FunctionContext[S any] struct {
	eval *EvaluateContext[S]
	name string
}

// Name returns the upper-case name the function was invoked under.
func (c FunctionContext[S]) Name() string {
	return c.name
}

// State returns a copy of the ambient state of the evaluation.
func (c FunctionContext[S]) State() S {
	return c.eval.state
}

// Value returns the document being evaluated.
func (c FunctionContext[S]) Value() any {
	return c.eval.value
}

// Engine holds the functions available to expressions. Configure it before
// evaluating; it is not safe to register functions concurrently with
// evaluation.
type Engine[S any] struct {
	functions map[string]Function[S]
}

// NewEngine returns an engine with the built-in functions registered.
// It has no clock: .NOW. and .TODAY. fail until functions named NOW and
// TODAY are registered.
func NewEngine[S any]() *Engine[S] {
	e := &Engine[S]{functions: make(map[string]Function[S])}
	registerBuiltins(e)
	return e
}

// WithFunction registers fn under name, replacing any function of the same
// name. Names are case-insensitive.
func (e *Engine[S]) WithFunction(name string, fn Function[S]) *Engine[S] {
	e.functions[strings.ToUpper(name)] = fn
	return e
}

// Function returns the function registered under name.
func (e *Engine[S]) Function(name string) (Function[S], bool) {
	fn, ok := e.functions[strings.ToUpper(name)]
	return fn, ok
}

// EvaluateContext binds an engine, a document, an optional previous
// document and the ambient state for one evaluation.
type EvaluateContext[S any] struct {
	engine      *Engine[S]
	value       any
	previous    any
	state       S
	hasPrevious bool
}

// NewContext creates an evaluation context for value.
func NewContext[S any](engine *Engine[S], value any, state S) *EvaluateContext[S] {
	return &EvaluateContext[S]{engine: engine, value: value, state: state}
}

// WithPrevious returns a copy of the context whose LAST fields read prev.
func (c *EvaluateContext[S]) WithPrevious(prev any) *EvaluateContext[S] {
	cp := *c
	cp.previous = prev
	cp.hasPrevious = true
	return &cp
}

// HasPrevious reports whether a previous document was supplied.
func (c *EvaluateContext[S]) HasPrevious() bool {
	return c.hasPrevious
}

// Evaluate evaluates expr in this context. Errors are *EvalError.
func (c *EvaluateContext[S]) Evaluate(expr *Expression) (any, error) {
	ev := evaluator[S]{ctx: c}
	return ev.eval(expr.root)
}
