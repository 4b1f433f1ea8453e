// Package cli implements hosctl, the operator tool for inspecting rule sets, rebuilding
// driver projections and exporting the audit trail.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"eldcore/internal/hos/app"
	"eldcore/internal/hos/regulation"
	"eldcore/internal/platform/config"
	"eldcore/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	RuleSet  string
	LogLevel string

	// OpenStores opens the configured backends. Tests replace it with in-memory stores.
	OpenStores func(ctx context.Context, cmd *cobra.Command) (*app.Stores, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for hosctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	opts.OpenStores = opts.openFromEnv

	cmd := &cobra.Command{
		Use:   "hosctl",
		Short: "hosctl - hours-of-service operator tool",
		Long: `Inspect the effective rule set, rebuild driver projections from the event log
and export the audit trail. Backends are selected with the same HOS_* environment
variables as the server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.RuleSet, "rules", "", "YAML rule set overriding the defaults (default $HOS_RULESET_PATH)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "diagnostic log level written to stderr")

	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

// loadRuleSet prefers the --rules flag over the environment.
func (o *RootOptions) loadRuleSet() (regulation.RuleSet, error) {
	path := o.RuleSet
	if path == "" {
		cfg, err := config.FromEnv()
		if err != nil {
			return regulation.RuleSet{}, err
		}
		path = cfg.RuleSetPath
	}
	return config.LoadRuleSet(path)
}

func (o *RootOptions) openFromEnv(ctx context.Context, cmd *cobra.Command) (*app.Stores, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Log.Level = o.LogLevel
	cfg.Log.Format = "text"
	cfg.Postgres.MigrateOnStart = false
	return app.OpenStores(ctx, cfg, logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
