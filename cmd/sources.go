package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/markusj1201/SoHa-Priorities/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect upstream data systems",
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping every configured system and list its catalog queries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sources"); err != nil {
			return err
		}

		src, err := source.Open(ctx, cfg)
		if err != nil {
			return eris.Wrap(err, "sources check")
		}
		defer src.Close() //nolint:errcheck

		results := src.Check(ctx)
		formatCheck(os.Stdout, results)

		var failed int
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("sources check: %d of %d systems unreachable", failed, len(results))
		}
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesCheckCmd)
	rootCmd.AddCommand(sourcesCmd)
}

// formatCheck writes one line per system.
func formatCheck(out io.Writer, results []source.CheckResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SYSTEM\tDRIVER\tSTATUS\tELAPSED\tQUERIES")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "error: " + r.Err.Error()
		}
		driver := r.Driver
		if driver == "" {
			driver = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.System, driver, status, r.Elapsed.Round(time.Millisecond), strings.Join(r.Queries, ", "))
	}
	_ = w.Flush()
}
