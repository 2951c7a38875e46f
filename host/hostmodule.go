package host

import (
	"context"
	"log/slog"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// ImportModule is the namespace of the functions the module imports.
const ImportModule = "evaluator"

// collector receives the output of one run call.
type collector struct {
	logger *slog.Logger
	data   []byte
	calls  int
	err    bool
}

func newCollector(logger *slog.Logger) *collector {
	return &collector{logger: logger}
}

type collectorKey struct{}

func withCollector(ctx context.Context, c *collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

func collectorFrom(ctx context.Context) (*collector, bool) {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	return c, ok
}

// registerHostModule exports evaluator.output.
func registerHostModule(ctx context.Context, rt wazero.Runtime) error {
	_, err := rt.NewHostModuleBuilder(ImportModule).
		NewFunctionBuilder().
		WithFunc(output).
		Export("output").
		Instantiate(ctx)
	return err
}

// output copies the response the module points at. The module only
// guarantees the buffer for the duration of this call.
func output(ctx context.Context, m api.Module, ptr, length uint32) {
	c, ok := collectorFrom(ctx)
	if !ok {
		slog.ErrorContext(ctx, "host: output called outside of run", "module", m.Name())
		return
	}
	c.calls++
	if c.calls > 1 {
		return
	}

	data, ok := m.Memory().Read(ptr, length)
	if !ok {
		c.logger.ErrorContext(ctx, "host: output out of range of module memory",
			"module", m.Name(), "ptr", ptr, "length", length)
		c.err = true
		return
	}
	c.data = append(make([]byte, 0, len(data)), data...)
}
