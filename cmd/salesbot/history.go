package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/nao1215/salesbot/internal/config"
	"github.com/nao1215/salesbot/internal/database"
	"github.com/spf13/cobra"
)

// defaultHistoryLimit is the number of runs listed without --limit.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		Long: `History lists runs recorded in the run-history database, newest first.

The database lives in the output directory and is written by every
"salesbot run" that was not given --no-history.

Examples:
  # Show the last 20 runs
  salesbot history

  # Show the last 5 runs as JSON
  salesbot history --limit 5 --json

  # Show failed rows of one run
  salesbot history --run 6f1c...`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Directory holding the run-history database")
	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().String("run", "",
		"Show the failed rows of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output as JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetString("run")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no run history in %s: %w", dir, err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if runID != "" {
		failed, err := db.FailedSubmissions(ctx, runID)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, failed)
		}
		if len(failed) == 0 {
			fmt.Fprintf(out, "No failed rows for run %s\n", runID)
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ROW\tNAME\tTARGET\tSALES\tERROR")
		for _, s := range failed {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Row, s.Record.FullName(), s.Record.SalesTarget, s.Record.Sales, s.Error)
		}
		return tw.Flush()
	}

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tSUBMITTED\tERROR")
	for _, r := range runs {
		status := "ok"
		if r.Failed {
			status = "failed"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			status,
			r.Succeeded, r.Attempted,
			r.Error,
		)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
