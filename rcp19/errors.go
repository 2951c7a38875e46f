package rcp19

import (
	"errors"
	"fmt"
)

// ErrUnknownFunction is returned when an expression calls a function, or
// uses a special operand, that has not been registered with the engine.
var ErrUnknownFunction = errors.New("unknown function")

// SyntaxError reports an expression that does not conform to the grammar.
type SyntaxError struct {
	Msg string
	Pos int // byte offset into the expression
}

func newSyntaxError(pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// EvalError reports a semantic failure while evaluating a parsed expression,
// such as a type mismatch or a failing function.
type EvalError struct {
	Err error
	Msg string
}

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EvalError) Unwrap() error {
	return e.Err
}
