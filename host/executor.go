package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Exports the evaluator module must provide.
const (
	exportAllocate   = "allocate"
	exportRelease    = "release"
	exportRun        = "run"
	exportInitialize = "_initialize"
)

// ErrMissingExport is returned by Load when the module lacks one of the
// evaluator exports.
var ErrMissingExport = errors.New("module is missing a required export")

// Executor owns the wazero runtime that evaluator instances run in.
type Executor struct {
	runtime   wazero.Runtime
	config    Config
	instances atomic.Uint64
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	rtConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MemoryLimitPages).
		WithCloseOnContextDone(true)
	if cfg.CompilationCache != nil {
		rtConfig = rtConfig.WithCompilationCache(cfg.CompilationCache)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	if err := registerHostModule(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return &Executor{runtime: rt, config: cfg}, nil
}

// Config returns the resolved configuration.
func (e *Executor) Config() Config {
	return e.config
}

// Close releases the runtime and every instance loaded from it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles and instantiates an evaluator module.
func (e *Executor) Load(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	name := e.config.ModuleName + "-" + strconv.FormatUint(e.instances.Add(1), 10)
	// No WithSysWalltime or WithSysNanotime: the module sees wazero's fake
	// clocks. No stdout or stderr either.
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction(exportInitialize); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", exportInitialize, err)
		}
	}

	inst := &Instance{
		module:   mod,
		config:   e.config,
		logger:   e.config.Logger.With("module", name),
		allocate: mod.ExportedFunction(exportAllocate),
		release:  mod.ExportedFunction(exportRelease),
		run:      mod.ExportedFunction(exportRun),
	}
	for _, export := range []struct {
		fn   api.Function
		name string
	}{
		{inst.allocate, exportAllocate},
		{inst.release, exportRelease},
		{inst.run, exportRun},
	} {
		if export.fn == nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("%w: %q", ErrMissingExport, export.name)
		}
	}
	if mod.Memory() == nil {
		_ = mod.Close(ctx)
		return nil, fmt.Errorf("%w: memory", ErrMissingExport)
	}
	return inst, nil
}
