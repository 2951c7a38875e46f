// Package host runs the evaluator module under wazero.
//
// An Executor owns a wazero runtime with WASI preview1 and the "evaluator"
// host module providing the output import. Load instantiates the evaluator
// module; the resulting Instance performs the allocate, write, run, read and
// release sequence for each request.
//
// The runtime is created without a system clock, so even the module's WASI
// clock reads see wazero's fixed fake time. The only notion of "now" the
// module has is the one carried in each request.
package host

//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o testdata/evaluator.wasm ../cmd/evaluator
