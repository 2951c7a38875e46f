// Command evaluator is the sandboxed RCP19 evaluator module. It is a
// reactor: the host instantiates it once and calls its exports.
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o evaluator.wasm ./cmd/evaluator
package main

import (
	_ "github.com/reglet-dev/evaluator/guest"
)

func main() {}
