// Package output delivers the finished response to the host.
//
// The module cannot return a string, so it calls a single host import with
// the pointer and length of the response buffer. The host must copy the
// bytes before the call returns.
package output

import (
	"errors"
	"runtime"
)

// ErrAlreadyEmitted is returned when an Emitter is used a second time.
var ErrAlreadyEmitted = errors.New("output: response already emitted")

// Callback hands buf to the host. buf is only valid for the duration of
// the call.
type Callback func(buf []byte)

// Emitter invokes its callback at most once.
type Emitter struct {
	callback Callback
	emitted  bool
}

// NewEmitter returns an emitter bound to callback.
func NewEmitter(callback Callback) *Emitter {
	return &Emitter{callback: callback}
}

// Emit passes buf to the host. Only the first call reaches the callback.
func (e *Emitter) Emit(buf []byte) error {
	if e.emitted {
		return ErrAlreadyEmitted
	}
	e.emitted = true
	e.callback(buf)
	runtime.KeepAlive(buf)
	return nil
}

// Emitted reports whether the response has been delivered.
func (e *Emitter) Emitted() bool {
	return e.emitted
}
