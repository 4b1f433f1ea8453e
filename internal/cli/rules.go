package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule set",
		Long: `Print the thresholds the coordinator would evaluate with: the US defaults,
overlaid with the file given by --rules or $HOS_RULESET_PATH.

Examples:
  hosctl rules
  hosctl rules --rules ./canada-south.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(rootOpts, cmd)
		},
	}
}

func runRules(opts *RootOptions, cmd *cobra.Command) error {
	rules, err := opts.loadRuleSet()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rule set", err)
	}
	raw, err := rules.Marshal()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to render rule set", err)
	}

	if opts.Format == "json" {
		// Round-trip through YAML so durations keep their "11h0m0s" form.
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return WrapExitError(ExitCommandError, "failed to render rule set", err)
		}
		return opts.formatter(cmd).JSON(doc)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(raw))
	return err
}
