//go:build wasip1

package guest

import (
	"log/slog"
	"unsafe"

	"github.com/reglet-dev/evaluator/dispatch"
	"github.com/reglet-dev/evaluator/internal/abi"
	_ "github.com/reglet-dev/evaluator/log"
	"github.com/reglet-dev/evaluator/output"
)

// hostOutput hands the response at ptr to the host, which must copy it
// before returning.
//
//go:wasmimport evaluator output
func hostOutput(ptr uint32, length uint32)

// run evaluates the request the host wrote at ptr and reports the response
// through hostOutput.
//
//go:wasmexport run
func run(ptr uint32, length uint32) {
	raw := abi.View(ptr, length)
	if err := dispatch.Run(raw, output.NewEmitter(emitToHost)); err != nil {
		slog.Error("guest: failed to emit response", "error", err)
	}
}

func emitToHost(buf []byte) {
	if len(buf) == 0 {
		hostOutput(0, 0)
		return
	}
	//nolint:gosec // G103: wasm32 linear memory addresses fit in uint32
	hostOutput(uint32(uintptr(unsafe.Pointer(&buf[0]))), uint32(len(buf)))
}
