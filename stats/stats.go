// Package stats derives daily focus statistics from session history.
package stats

import (
	"fmt"
	"iter"
	"time"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
)

type Querier interface {
	Query(history.Predicate) iter.Seq[pomostudy.SessionRecord]
}

type Day struct {
	Date                time.Time
	CompletedSessions   int
	InterruptedSessions int
	FocusedMinutes      int
}

// ForDay summarizes work sessions started on day's calendar date in day's location.
// Only completed work sessions count towards focused minutes.
func ForDay(q Querier, day time.Time, filters ...history.Predicate) Day {
	d := Day{Date: StartOfDay(day)}
	pred := history.And(append([]history.Predicate{
		history.OfType(pomostudy.WorkInterval),
		history.OnDay(day),
	}, filters...)...)
	for r := range q.Query(pred) {
		if r.Completed {
			d.CompletedSessions++
			d.FocusedMinutes += r.PlannedDurationMinutes
		} else {
			d.InterruptedSessions++
		}
	}
	return d
}

func Today(q Querier, now time.Time, filters ...history.Predicate) Day {
	return ForDay(q, now, filters...)
}

// Daily returns one entry per day for the days ending on last, oldest first.
func Daily(q Querier, last time.Time, days int, filters ...history.Predicate) []Day {
	if days <= 0 {
		return nil
	}
	series := make([]Day, 0, days)
	for i := days - 1; i >= 0; i-- {
		series = append(series, ForDay(q, last.AddDate(0, 0, -i), filters...))
	}
	return series
}

// Streak counts consecutive days with at least one completed work session,
// ending today, or yesterday when nothing has been completed today yet.
func Streak(q Querier, now time.Time, filters ...history.Predicate) int {
	active := make(map[time.Time]struct{})
	pred := history.And(append([]history.Predicate{
		history.Completed,
		history.OfType(pomostudy.WorkInterval),
	}, filters...)...)
	for r := range q.Query(pred) {
		active[StartOfDay(r.StartTime.In(now.Location()))] = struct{}{}
	}

	day := StartOfDay(now)
	if _, ok := active[day]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := active[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatMinutes formats minutes like "1h 40m" or "45m".
func FormatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
