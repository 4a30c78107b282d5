package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DavidWenzler/reAM250-sub000/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Config *config.Config           `json:"config,omitempty"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a controller configuration",
		Long: `Validate a controller configuration without starting it.

Loads defaults, the YAML file, the dotenv file and REAM_* environment
overrides, then checks the result against the configuration schema. The
file argument takes precedence over --config.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	scoped := *opts
	scoped.Config = path
	cfg, err := scoped.loadConfig()

	var verrs config.ValidationErrors
	switch {
	case err == nil:
		formatter.VerboseLog("Loaded configuration from %s", describeSource(path))
		if opts.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		fmt.Fprintf(cmd.OutOrStdout(), "  server   %s (%d connections)\n", cfg.Server.Address(), cfg.Server.MaxConnections)
		fmt.Fprintf(cmd.OutOrStdout(), "  cycle    %s\n", cfg.Engine.CyclePeriod)
		fmt.Fprintf(cmd.OutOrStdout(), "  lists    %d x %d entries\n", cfg.Engine.Lists, cfg.Engine.ListEntries)
		return nil

	case errors.As(err, &verrs):
		if opts.Format == "json" {
			_ = formatter.Error(ErrCodeConfig, "configuration invalid", ValidationResult{Errors: verrs})
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✗ Configuration invalid (%d error(s))\n", len(verrs))
			for _, e := range verrs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", e.Error())
			}
		}
		return WrapExitError(ExitFailure, "configuration invalid", err)

	default:
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
}

func describeSource(path string) string {
	if strings.TrimSpace(path) == "" {
		return "defaults"
	}
	return path
}
