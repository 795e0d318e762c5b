package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
	"github.com/benjamonnguyen/pomostudy/stats"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the most recent sessions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of sessions to show")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	recorder, db, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close() //nolint

	printHistory(cmd.OutOrStdout(), recorder, historyLimit)
	return nil
}

func printHistory(w io.Writer, q stats.Querier, limit int) {
	records := slices.Collect(q.Query(history.All))
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	var currentDay string
	for _, r := range records {
		day := r.StartTime.Local().Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}
		fmt.Fprintf(w, "  %s-%s  %-11s %3dm  %-11s %s\n",
			r.StartTime.Local().Format("15:04"),
			r.EndTime.Local().Format("15:04"),
			r.IntervalType,
			r.PlannedDurationMinutes,
			outcome(r),
			r.TaskID,
		)
	}
}

func outcome(r pomostudy.SessionRecord) string {
	if r.Completed {
		return "completed"
	}
	return "interrupted"
}
