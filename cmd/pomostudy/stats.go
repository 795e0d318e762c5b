package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
	"github.com/benjamonnguyen/pomostudy/stats"
)

var (
	statsDays int
	statsAll  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show today's focus, streak and a daily chart",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Number of days to chart")
	statsCmd.Flags().BoolVar(&statsAll, "all", false, "Include sessions of every owner")
}

func runStats(cmd *cobra.Command, _ []string) error {
	recorder, db, err := openHistory(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close() //nolint

	var filters []history.Predicate
	if !statsAll {
		filters = append(filters, history.ForOwner(pomostudy.OwnerID(cfg.Owner)))
	}
	printStats(cmd.OutOrStdout(), recorder, time.Now(), statsDays, filters...)
	return nil
}

func printStats(w io.Writer, q stats.Querier, now time.Time, days int, filters ...history.Predicate) {
	today := stats.Today(q, now, filters...)
	fmt.Fprintf(w, "Today     %d pomodoros, %s focused, %d interrupted\n",
		today.CompletedSessions, stats.FormatMinutes(today.FocusedMinutes), today.InterruptedSessions)
	fmt.Fprintf(w, "Streak    %d days\n", stats.Streak(q, now, filters...))

	series := stats.Daily(q, now, days, filters...)
	if len(series) == 0 {
		return
	}
	fmt.Fprintln(w, "--------------------------------")
	for _, d := range series {
		fmt.Fprintf(w, "%s  %-8s %s\n", d.Date.Format("Mon 01-02"), stats.FormatMinutes(d.FocusedMinutes), strings.Repeat("#", d.CompletedSessions))
	}
}
