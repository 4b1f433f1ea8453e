package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"eldcore/internal/hos/app"
	"eldcore/internal/hos/coordinator"
	"eldcore/internal/hos/models"
	"eldcore/internal/hos/regulation"
	"eldcore/internal/hos/store/statuscache"
	dErrors "eldcore/pkg/domain-errors"
	"eldcore/pkg/requestcontext"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	At         string
	WriteCache bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <driver>",
		Short: "Rebuild a driver projection from the event log",
		Long: `Replay a driver's event log from genesis and print the resulting duty state,
remaining budgets and open violations. Nothing is written unless --write-cache is
set, in which case the rebuilt projection replaces the cached one.

Exit codes:
  0 - Projection rebuilt
  1 - The log could not be reduced (corrupt or inconsistent history)
  2 - Command error (bad flags, unreachable backend, etc.)

Examples:
  hosctl replay drv-1042
  hosctl replay drv-1042 --at 2026-03-02T18:00:00Z
  hosctl replay drv-1042 --write-cache --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "evaluate as of this RFC 3339 instant instead of now")
	cmd.Flags().BoolVar(&opts.WriteCache, "write-cache", false, "write the rebuilt projection to the status cache")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command, rawDriver string) error {
	ctx := requestcontext.WithTime(commandContext(cmd), time.Now())

	driverID, err := models.ParseDriverID(rawDriver)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid driver id", err)
	}
	var at time.Time
	if opts.At != "" {
		if at, err = time.Parse(time.RFC3339Nano, opts.At); err != nil {
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
		if opts.WriteCache {
			return NewExitError(ExitCommandError, "--at and --write-cache are mutually exclusive")
		}
	}

	rules, err := opts.loadRuleSet()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rule set", err)
	}
	stores, err := opts.OpenStores(ctx, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stores", err)
	}
	defer stores.Close()

	out := opts.formatter(cmd)
	out.VerboseLog("replaying %s (durable=%t, shared cache=%t)", driverID, stores.Durable, stores.Shared)

	proj, err := replay(ctx, stores, rules, opts.WriteCache, driverID, at)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInvariantViolation) {
			return WrapExitError(ExitFailure, fmt.Sprintf("failed to replay %s", driverID), err)
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay %s", driverID), err)
	}

	if opts.Format == "json" {
		return out.JSON(proj)
	}
	return writeProjection(cmd.OutOrStdout(), driverID, proj)
}

// replay runs the coordinator's rebuild path. Without --write-cache the coordinator is given a
// private cache so the shared one is left untouched.
func replay(
	ctx context.Context,
	stores *app.Stores,
	rules regulation.RuleSet,
	writeCache bool,
	driverID models.DriverID,
	at time.Time,
) (models.StatusProjection, error) {
	var cache coordinator.StatusCache = statuscache.NewInMemoryCache()
	if writeCache {
		cache = stores.Cache
	}
	coord, err := coordinator.New(stores.Events, cache, stores.Violations, rules,
		coordinator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return models.StatusProjection{}, err
	}

	if !at.IsZero() {
		return coord.EvaluateAt(ctx, driverID, at)
	}
	if writeCache {
		if err := coord.Invalidate(ctx, driverID); err != nil {
			return models.StatusProjection{}, err
		}
	}
	return coord.GetCurrentStatus(ctx, driverID)
}

func writeProjection(w io.Writer, driverID models.DriverID, p models.StatusProjection) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	status := "none"
	if !p.State.IsGenesis() {
		status = fmt.Sprintf("%s since %s", p.State.CurrentStatus, p.State.CurrentStatusSince.Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "driver:\t%s\n", driverID)
	fmt.Fprintf(tw, "status:\t%s\n", status)
	fmt.Fprintf(tw, "last sequence:\t%d\n", p.SourceSequence)
	fmt.Fprintf(tw, "remaining drive:\t%s\n", p.Budget.RemainingDriveTime)
	fmt.Fprintf(tw, "remaining window:\t%s\n", p.Budget.RemainingDutyWindow)
	fmt.Fprintf(tw, "time to break:\t%s\n", p.Budget.TimeToRequiredBreak)
	fmt.Fprintf(tw, "remaining cycle:\t%s\n", p.Budget.RemainingCycleHours)
	fmt.Fprintf(tw, "as of:\t%s\n", p.Budget.AsOf.Format(time.RFC3339))
	fmt.Fprintf(tw, "violations:\t%d\n", len(p.Violations))
	for _, v := range p.Violations {
		end := "open"
		if !v.WindowEnd.IsZero() {
			end = v.WindowEnd.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "  %s\t%s %s -> %s\n", v.RuleID, v.Status, v.WindowStart.Format(time.RFC3339), end)
	}
	return tw.Flush()
}
