// Package cli implements the evaluate command line, a host-side driver for
// the evaluator module.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/evaluator/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	logger *slog.Logger
}

// Logger returns the logger configured by the global flags. Diagnostics go
// to the command's error stream so stdout stays valid JSON.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(log.NewHandler(log.WithLevel(slog.LevelWarn)))
	}
	return o.logger
}

// NewRootCommand creates the root command for the evaluate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate RCP19 expressions in a sandboxed module",
		Long: "evaluate loads the evaluator WebAssembly module and runs RCP19 " +
			"expressions against JSON documents.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(log.NewHandler(
				log.WithLevel(level),
				log.WithWriter(cmd.ErrOrStderr()),
			))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}
