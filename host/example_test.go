package host_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/reglet-dev/evaluator/host"
	"github.com/reglet-dev/evaluator/log"
	"github.com/reglet-dev/evaluator/timestate"
	"github.com/reglet-dev/evaluator/wireformat"
)

func ExampleInstance_Evaluate() {
	logger := slog.New(log.NewHandler(log.WithLevel(slog.LevelInfo)))

	wasmBytes, err := os.ReadFile("testdata/evaluator.wasm")
	if err != nil {
		logger.Error("failed to read module", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	executor, err := host.NewExecutor(ctx, host.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create executor", "error", err)
		return
	}
	defer executor.Close(context.Background())

	instance, err := executor.Load(ctx, wasmBytes)
	if err != nil {
		logger.Error("failed to load module", "error", err)
		return
	}

	now := time.Now()
	resp, err := instance.Evaluate(ctx, wireformat.Request{
		Expression:    `ListPrice < LAST ListPrice .AND. Status = "Active"`,
		Value:         json.RawMessage(`{"ListPrice": 250000, "Status": "Active"}`),
		PreviousValue: json.RawMessage(`{"ListPrice": 300000, "Status": "Active"}`),
		Now:           now,
		Date:          timestate.DateOf(now),
	})
	if err != nil {
		logger.Error("evaluation failed", "error", err)
		return
	}
	if resp.IsError() {
		logger.Warn("expression rejected", "error", resp.Err())
		return
	}
	fmt.Println(string(resp.Result()))
}
