package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"eldcore/internal/hos/export"
	"eldcore/internal/hos/models"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	After    string
	Driver   string
	Output   string
	PageSize int
}

// ExportSummary is reported once the stream has been written.
type ExportSummary struct {
	Records int    `json:"records"`
	Cursor  string `json:"cursor,omitempty"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit trail as JSON lines",
		Long: `Stream every driver's events and violation records as JSON lines, ordered by
driver, then sequence. Each line carries a "cursor"; pass the last one seen to
--after to resume an interrupted export.

Examples:
  hosctl export --output audit.jsonl
  hosctl export --driver drv-1042
  hosctl export --after drv-1042:17:0`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.After, "after", "", "resume after this cursor (driver:seq:ordinal)")
	cmd.Flags().StringVar(&opts.Driver, "driver", "", "export a single driver only")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 500, "drivers fetched per page")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) (err error) {
	ctx := commandContext(cmd)

	var after export.Cursor
	if opts.After != "" {
		if after, err = export.ParseCursor(opts.After); err != nil {
			return WrapExitError(ExitCommandError, "invalid --after", err)
		}
	}
	var driverID models.DriverID
	if opts.Driver != "" {
		if driverID, err = models.ParseDriverID(opts.Driver); err != nil {
			return WrapExitError(ExitCommandError, "invalid --driver", err)
		}
		if !after.IsZero() && after.DriverID != driverID {
			return NewExitError(ExitCommandError, "--after cursor belongs to a different driver")
		}
	}

	stores, err := opts.OpenStores(ctx, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stores", err)
	}
	defer stores.Close()

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, ferr := os.Create(opts.Output)
		if ferr != nil {
			return WrapExitError(ExitCommandError, "failed to create output", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = WrapExitError(ExitCommandError, "failed to close output", cerr)
			}
		}()
		w = f
	}

	exporter := export.NewExporter(stores.Events, stores.Violations, export.WithPageSize(opts.PageSize))
	records := exporter.Records(ctx, after)
	if driverID != "" {
		records = exporter.Driver(ctx, driverID, after)
	}

	last, n, err := export.WriteJSONLines(w, records)
	summary := ExportSummary{Records: n}
	if !last.IsZero() {
		summary.Cursor = last.String()
	}
	if err != nil {
		// The cursor of the last written line is still a valid resume point.
		fmt.Fprintf(cmd.ErrOrStderr(), "export interrupted after %d records, resume with --after %s\n", n, summary.Cursor)
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	out := opts.formatter(cmd)
	if opts.Format == "json" && opts.Output != "" {
		return out.JSON(summary)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d records\n", n)
	out.VerboseLog("last cursor: %s", summary.Cursor)
	return nil
}
