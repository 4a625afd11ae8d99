package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/export"
	"github.com/markusj1201/SoHa-Priorities/internal/monitoring"
	"github.com/markusj1201/SoHa-Priorities/internal/pipeline"
	"github.com/markusj1201/SoHa-Priorities/internal/runlog"
	"github.com/markusj1201/SoHa-Priorities/internal/sink"
	"github.com/markusj1201/SoHa-Priorities/internal/source"
)

var (
	runDryRun bool
	runOutput string
	runFormat string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute and write today's priority list",
	Long: "Runs one pass: registry, scorers, aggregation, then the debug and final tables. " +
		"With --dry-run nothing is written to the sink; use --output to keep a local copy.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		mode := "run"
		if runDryRun {
			mode = "dry-run"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}
		if runFormat != "" && !slices.Contains(export.Formats(), runFormat) {
			return eris.Wrapf(export.ErrUnknownFormat, "run: --format %q", runFormat)
		}

		src, err := source.Open(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "run: open sources")
		}
		defer src.Close() //nolint:errcheck

		deps := pipeline.Deps{
			Source:   src,
			Notifier: monitoring.NewNotifier(cfg.Monitoring),
		}

		if !runDryRun {
			snk, err := sink.Open(ctx, cfg)
			if err != nil {
				return eris.Wrap(err, "run: open sink")
			}
			defer snk.Close()
			deps.Sink = snk

			arc, err := sink.NewArchive(ctx, cfg.Archive)
			if err != nil {
				zap.L().Warn("archive init failed, continuing without archive", zap.Error(err))
			}
			deps.Archive = arc
		}

		if cfg.RunLog.Enabled {
			rl, closeLog, err := runlog.Open(ctx, cfg.RunLogDSN())
			if err != nil {
				zap.L().Warn("run log init failed, continuing without run history", zap.Error(err))
			} else {
				defer closeLog()
				deps.RunLog = rl
			}
		}

		opts := pipeline.OptionsFrom(cfg)
		opts.DryRun = runDryRun

		rep, runErr := pipeline.New(deps, opts).Run(ctx)
		if rep != nil {
			formatOutcomes(os.Stderr, rep)
			if err := writeOutput(os.Stdout, rep); err != nil {
				return err
			}
		}
		if runErr != nil {
			return eris.Wrap(runErr, "run")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "compute the priority list without writing to the sink")
	runCmd.Flags().StringVar(&runOutput, "output", "", "also write the final table to this file")
	runCmd.Flags().StringVar(&runFormat, "format", "", "output format: table, csv, xlsx, geojson (default from --output extension)")
	rootCmd.AddCommand(runCmd)
}

// writeOutput renders the final table to --output, or to stdout for a dry
// run without --output.
func writeOutput(stdout io.Writer, rep *pipeline.Report) error {
	final := sink.FinalTable(rep.Final)

	if runOutput == "" {
		if !rep.DryRun {
			return nil
		}
		format := runFormat
		if format == "" {
			format = export.FormatTable
		}
		return eris.Wrap(export.Write(stdout, format, final), "run: write output")
	}

	format := runFormat
	if format == "" {
		format = export.FormatFromPath(runOutput)
	}
	f, err := os.Create(runOutput)
	if err != nil {
		return eris.Wrapf(err, "run: create %s", runOutput)
	}
	if err := export.Write(f, format, final); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "run: write %s", runOutput)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "run: close %s", runOutput)
	}
	zap.L().Info("priority list written", zap.String("path", runOutput), zap.String("format", format), zap.Int("rows", len(rep.Final)))
	return nil
}

// formatOutcomes writes one line per scorer followed by a run summary.
func formatOutcomes(out io.Writer, rep *pipeline.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORER\tSTATUS\tITEMS\tREASON\tELAPSED")
	for _, o := range rep.Outcomes {
		reason := o.Reason
		if reason == "" {
			reason = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", o.Scorer, o.Status, o.Count, reason, o.Elapsed.Round(time.Millisecond))
	}
	_ = w.Flush()

	status := "ok"
	switch {
	case rep.RegistryErr != nil:
		status = "registry failed"
	case rep.SinkErr != nil:
		status = "sink failed"
	case rep.DryRun:
		status = "dry run"
	}
	_, _ = fmt.Fprintf(out, "\nrun %s: %s, %d wells, %d rows, %s\n",
		rep.RunID.String()[:8], status, rep.RegistrySize, len(rep.Final), rep.Elapsed.Round(time.Millisecond))
}
