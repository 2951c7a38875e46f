package cli

import (
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/reglet-dev/evaluator/wireformat/schema"
)

// schemas maps the schema command's arguments to their generators.
var schemas = map[string]func() *jsonschema.Schema{
	"request":  schema.Request,
	"response": schema.Response,
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "schema request|response",
		Short:         "Print the JSON Schema of a wire envelope",
		Args:          cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:     []string{"request", "response"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := schema.Generate(schemas[args[0]]())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to generate schema", err)
			}
			rootOpts.Logger().Debug("generated schema", "envelope", args[0], "bytes", len(out))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
