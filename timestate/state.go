// Package timestate carries the caller's notion of "now" into an evaluation.
//
// The evaluator has no clock. Every request supplies the current instant and
// the caller's local calendar date, and the two intrinsics registered here
// are pure projections of that snapshot.
package timestate

import (
	"time"

	"github.com/reglet-dev/evaluator/rcp19"
)

// NowLayout formats the current instant with millisecond precision. A zero
// offset is written as Z.
const NowLayout = "2006-01-02T15:04:05.000Z07:00"

// Names of the intrinsics backing the .NOW. and .TODAY. operands.
const (
	NowName   = "NOW"
	TodayName = "TODAY"
)

// State is an immutable snapshot of the instant and date of one request.
type State struct {
	now   time.Time
	today Date
}

// New returns the snapshot for one evaluation.
func New(now time.Time, today Date) State {
	return State{now: now, today: today}
}

// Now returns the supplied instant.
func (s State) Now() time.Time {
	return s.now
}

// Today returns the supplied calendar date.
func (s State) Today() Date {
	return s.today
}

// NowFunction returns the snapshot's instant formatted with NowLayout.
// Arguments are ignored.
func NowFunction(ctx rcp19.FunctionContext[State], _ []any) (any, error) {
	return ctx.State().now.Format(NowLayout), nil
}

// TodayFunction returns the snapshot's date as YYYY-MM-DD. Arguments are
// ignored.
func TodayFunction(ctx rcp19.FunctionContext[State], _ []any) (any, error) {
	return ctx.State().today.String(), nil
}

// Register installs NowFunction and TodayFunction on engine.
func Register(engine *rcp19.Engine[State]) *rcp19.Engine[State] {
	return engine.
		WithFunction(NowName, rcp19.FunctionFunc[State](NowFunction)).
		WithFunction(TodayName, rcp19.FunctionFunc[State](TodayFunction))
}
