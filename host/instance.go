package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/evaluator/wireformat"
)

var (
	// ErrInstanceClosed is returned by calls on an instance that was closed,
	// or abandoned after a trap or an expired context.
	ErrInstanceClosed = errors.New("evaluator instance is closed")

	// ErrRequestTooLarge is returned for requests above the configured
	// maximum size.
	ErrRequestTooLarge = errors.New("request exceeds maximum size")

	// ErrNoOutput is returned when run finished without calling output.
	ErrNoOutput = errors.New("module returned without producing output")

	// ErrDuplicateOutput is returned when run called output more than once.
	ErrDuplicateOutput = errors.New("module produced more than one output")
)

// Instance is one instantiated evaluator module. The module holds no lock
// of its own, so calls on an Instance are serialised.
type Instance struct {
	module   api.Module
	allocate api.Function
	release  api.Function
	run      api.Function
	logger   *slog.Logger
	config   Config
	mu       sync.Mutex
	closed   bool
}

// Evaluate sends req to the module and decodes its response. A response
// carrying an error is not a Go error; check Response.IsError.
func (i *Instance) Evaluate(ctx context.Context, req wireformat.Request) (wireformat.Response, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return wireformat.Response{}, fmt.Errorf("failed to encode request: %w", err)
	}
	out, err := i.EvaluateRaw(ctx, raw)
	if err != nil {
		return wireformat.Response{}, err
	}
	var resp wireformat.Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return wireformat.Response{}, fmt.Errorf("failed to decode response %q: %w", out, err)
	}
	return resp, nil
}

// EvaluateRaw writes request into module memory, runs it and returns a copy
// of the bytes the module emitted.
//
// If ctx ends while the module is running, the module is closed and the
// Instance can no longer be used.
func (i *Instance) EvaluateRaw(ctx context.Context, request []byte) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, ErrInstanceClosed
	}
	if uint64(len(request)) > uint64(i.config.MaxRequestSize) {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrRequestTooLarge, len(request), i.config.MaxRequestSize)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}
	logger := i.logger.With("request_id", id.String())
	start := time.Now()
	logger.DebugContext(ctx, "host: evaluating", "bytes", len(request))

	col := newCollector(logger)
	out, err := i.call(withCollector(ctx, col), request, col)
	if err != nil {
		logger.ErrorContext(ctx, "host: evaluation failed", "error", err, "duration", time.Since(start))
		return nil, err
	}
	logger.DebugContext(ctx, "host: evaluated", "bytes", len(out), "duration", time.Since(start))
	return out, nil
}

func (i *Instance) call(ctx context.Context, request []byte, col *collector) ([]byte, error) {
	size := uint32(len(request)) //nolint:gosec // G115: bounded by MaxRequestSize

	var ptr uint32
	if size > 0 {
		results, err := i.allocate.Call(ctx, uint64(size))
		if err != nil {
			return nil, i.abandon(ctx, exportAllocate, err)
		}
		ptr = uint32(results[0]) //nolint:gosec // G115: wasm32 pointers are 32-bit
		if ptr == 0 || !i.module.Memory().Write(ptr, request) {
			return nil, i.abandon(ctx, exportAllocate, fmt.Errorf("cannot write %d bytes at %#x", size, ptr))
		}
	}

	if _, err := i.run.Call(ctx, uint64(ptr), uint64(size)); err != nil {
		return nil, i.abandon(ctx, exportRun, err)
	}

	if size > 0 {
		if _, err := i.release.Call(ctx, uint64(ptr), uint64(size)); err != nil {
			return nil, i.abandon(ctx, exportRelease, err)
		}
	}

	switch {
	case col.calls == 0:
		return nil, ErrNoOutput
	case col.calls > 1:
		return nil, ErrDuplicateOutput
	case col.err:
		return nil, errors.New("failed to read output from module memory")
	}
	return col.data, nil
}

// abandon closes the module after a failed export call. A trapped Go module
// cannot be resumed, and a module stopped by its context is already closed.
func (i *Instance) abandon(ctx context.Context, export string, err error) error {
	i.closed = true
	_ = i.module.Close(context.WithoutCancel(ctx))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s aborted: %w", export, ctxErr)
	}
	return fmt.Errorf("%s failed: %w", export, err)
}

// Close closes the module. Further calls return ErrInstanceClosed.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	return i.module.Close(ctx)
}
