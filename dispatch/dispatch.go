// Package dispatch turns one raw request buffer into exactly one response.
//
// Every failure is converted into the error text of a response at the point
// it occurs; nothing is retried and nothing propagates past the boundary.
package dispatch

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/evaluator/internal/boundary"
	"github.com/reglet-dev/evaluator/rcp19"
	"github.com/reglet-dev/evaluator/timestate"
	"github.com/reglet-dev/evaluator/wireformat"
)

// Emitter delivers the encoded response to the host.
type Emitter interface {
	Emit(buf []byte) error
}

// Dispatch decodes raw as a request, evaluates it and returns the response.
func Dispatch(raw []byte) wireformat.Response {
	data, err := Evaluate(raw)
	if err != nil {
		slog.Debug("dispatch: request failed", "error", err)
		return wireformat.Failure(err.Error())
	}
	return wireformat.Success(data)
}

// Evaluate is Dispatch with the failure kept as a typed error: one of
// *EncodingError, *SchemaError, *ParseError or *EvaluationError.
func Evaluate(raw []byte) (json.RawMessage, error) {
	text, err := boundary.Decode(raw)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}

	req, err := wireformat.DecodeRequest(text)
	if err != nil {
		return nil, &SchemaError{Err: err}
	}

	expr, err := rcp19.Parse(req.Expression)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	ctx, err := newContext(req)
	if err != nil {
		return nil, &SchemaError{Err: err}
	}

	result, err := ctx.Evaluate(expr)
	if err != nil {
		return nil, &EvaluationError{Err: err}
	}

	data, err := wireformat.EncodeDocument(result)
	if err != nil {
		return nil, &EvaluationError{Err: err}
	}
	return data, nil
}

// newContext builds a fresh engine and evaluation context for req. Nothing
// here outlives the call.
func newContext(req wireformat.Request) (*rcp19.EvaluateContext[timestate.State], error) {
	value, err := wireformat.DecodeDocument(req.Value)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	engine := timestate.Register(rcp19.NewEngine[timestate.State]())
	ctx := rcp19.NewContext(engine, value, req.State())

	if req.HasPrevious() {
		prev, err := wireformat.DecodeDocument(req.PreviousValue)
		if err != nil {
			return nil, fmt.Errorf("previousValue: %w", err)
		}
		ctx = ctx.WithPrevious(prev)
	}
	return ctx, nil
}

// Run dispatches raw and hands the encoded response to emitter. It emits
// exactly once, even when evaluation panics.
func Run(raw []byte, emitter Emitter) error {
	out, err := boundary.Encode(safeDispatch(raw))
	if err != nil {
		slog.Error("dispatch: failed to encode response", "error", err)
		out, err = boundary.Encode(wireformat.Failure(err.Error()))
		if err != nil {
			return err
		}
	}
	return emitter.Emit(out)
}

// dispatchFn is replaced in tests.
var dispatchFn = Dispatch

func safeDispatch(raw []byte) (resp wireformat.Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch: evaluation panicked", "panic", r)
			resp = wireformat.Failure(fmt.Sprintf("Evaluation panicked: %v", r))
		}
	}()
	return dispatchFn(raw)
}
