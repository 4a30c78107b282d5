package cli

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the journal schema",
		Long: `Print the journal schema of the configured controller.

The schema lists every journal group and value with its id, type, size and
range. It is the same document clients fetch with the journal_schema
command.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(rootOpts, cmd)
		},
	}
	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	ctl, err := newController(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to build controller", err)
	}

	schema := ctl.engine.Schema()
	if opts.Format == "json" {
		return formatter.Success(json.RawMessage(schema))
	}
	return formatter.Success(string(schema))
}
