package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/markusj1201/SoHa-Priorities/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List run history",
	Long:  "Lists recent runs from the run log, most recent first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		rl, closeLog, err := runlog.Open(ctx, cfg.RunLogDSN())
		if err != nil {
			return eris.Wrap(err, "runs: open run log")
		}
		defer closeLog()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := rl.List(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		last, err := rl.LastSuccess(ctx)
		if err != nil {
			return eris.Wrap(err, "runs: last success")
		}
		formatLastSuccess(os.Stdout, last)
		formatRunsList(os.Stdout, entries)
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsCmd.Flags().Bool("json", false, "print entries as JSON, including per-scorer outcomes")
	rootCmd.AddCommand(runsCmd)
}

// formatLastSuccess writes the header line naming the most recent complete
// run.
func formatLastSuccess(out io.Writer, last *time.Time) {
	if last == nil {
		_, _ = fmt.Fprintln(out, "Last successful run: never")
		return
	}
	_, _ = fmt.Fprintf(out, "Last successful run: %s\n", last.Format("2006-01-02 15:04"))
}

// formatRunsList writes a tabular list of runs to out.
func formatRunsList(out io.Writer, entries []runlog.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tDURATION\tWELLS\tROWS\tFAILED\tERROR")
	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}
		var failed int
		for _, o := range e.Outcomes {
			if o.Status == "failed" {
				failed++
			}
		}
		errMsg := e.Error
		if errMsg == "" {
			errMsg = "-"
		} else if len(errMsg) > 60 {
			errMsg = errMsg[:57] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			e.RunID.String()[:8],
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.RegistrySize,
			e.RowsWritten,
			failed,
			errMsg,
		)
	}
	_ = w.Flush()
}
