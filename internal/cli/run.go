package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	"github.com/reglet-dev/evaluator/host"
	"github.com/reglet-dev/evaluator/wireformat"
	"github.com/reglet-dev/evaluator/wireformat/schema"
)

// DefaultTimeout bounds a single evaluation, compilation included.
const DefaultTimeout = 30 * time.Second

// RunOptions holds options for the run command.
type RunOptions struct {
	*RootOptions
	request  requestOptions
	Module   string
	Timeout  time.Duration
	Validate bool
	CacheDir string

	clock func() time.Time
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts, clock: time.Now}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate an expression against a JSON document",
		Long: `Evaluate an expression in the evaluator module and print the response.

The request is built from flags, or read from a JSON or YAML file with
--request. now and date default to the host clock.

Exit codes:
  0 - The response carries data
  1 - The response carries an error
  2 - The command failed before a response was produced`,
		Example: `  evaluate run --module evaluator.wasm --expression 'ListPrice > 100000' --value '{"ListPrice": 250000}'
  evaluate run --request request.yaml --validate`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Module, "module", "m", "evaluator.wasm", "path to the evaluator module")
	cmd.Flags().StringVarP(&opts.request.Expression, "expression", "e", "", "RCP19 expression")
	cmd.Flags().StringVar(&opts.request.Value, "value", "{}", "document as JSON")
	cmd.Flags().StringVar(&opts.request.Previous, "previous", "", "previous document as JSON")
	cmd.Flags().StringVar(&opts.request.Now, "now", "", "current instant as RFC 3339 (default host clock)")
	cmd.Flags().StringVar(&opts.request.Date, "date", "", "current date as YYYY-MM-DD (default date of --now)")
	cmd.Flags().StringVarP(&opts.request.File, "request", "r", "", "request file (.json, .yaml or .yml)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", DefaultTimeout, "evaluation timeout")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "check the request against its JSON Schema before sending")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "directory for the compiled module cache")

	cmd.MarkFlagsOneRequired("expression", "request")
	cmd.MarkFlagsMutuallyExclusive("expression", "request")
	cmd.MarkFlagsMutuallyExclusive("value", "request")
	cmd.MarkFlagsMutuallyExclusive("previous", "request")

	return cmd
}

func runEvaluate(cmd *cobra.Command, opts *RunOptions) error {
	logger := opts.Logger()

	req, err := opts.request.build(opts.clock)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build request", err)
	}
	if opts.Validate {
		if err := schema.ValidateRequest(req); err != nil {
			return WrapExitError(ExitCommandError, "invalid request", err)
		}
	}

	wasm, err := os.ReadFile(opts.Module)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read module", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	hostOpts := []host.Option{host.WithLogger(logger)}
	if opts.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(opts.CacheDir)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open compilation cache", err)
		}
		defer cache.Close(context.Background())
		hostOpts = append(hostOpts, host.WithCompilationCache(cache))
	}

	executor, err := host.NewExecutor(ctx, hostOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create executor", err)
	}
	defer executor.Close(context.Background())

	instance, err := executor.Load(ctx, wasm)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load module", err)
	}
	defer instance.Close(context.Background())

	out, err := instance.EvaluateRaw(ctx, req)
	if err != nil {
		return WrapExitError(ExitCommandError, "evaluation failed", err)
	}

	var resp wireformat.Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return WrapExitError(ExitCommandError, "module returned a malformed response", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
		return err
	}

	if resp.IsError() {
		return NewExitError(ExitFailure, *resp.Error)
	}
	logger.Debug("evaluation succeeded", "module", opts.Module)
	return nil
}
