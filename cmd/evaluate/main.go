// Command evaluate runs RCP19 expressions through the sandboxed evaluator
// module.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/reglet-dev/evaluator/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
