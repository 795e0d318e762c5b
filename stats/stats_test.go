package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
)

var now = time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC)

type seed struct {
	daysAgo   int
	t         pomostudy.IntervalType
	minutes   int
	completed bool
	owner     pomostudy.OwnerID
}

func newHistory(t *testing.T, seeds ...seed) *history.Recorder {
	t.Helper()
	r := history.NewMemoryRecorder()
	for i, s := range seeds {
		start := now.AddDate(0, 0, -s.daysAgo).Add(-time.Duration(i) * time.Minute)
		owner := s.owner
		if owner == "" {
			owner = "alice"
		}
		require.NoError(t, r.Record(context.Background(), pomostudy.SessionRecord{
			ID:                     pomostudy.SessionID(fmt.Sprintf("s%d", i)),
			OwnerID:                owner,
			StartTime:              start,
			EndTime:                start.Add(time.Duration(s.minutes) * time.Minute),
			IntervalType:           s.t,
			PlannedDurationMinutes: s.minutes,
			Completed:              s.completed,
			Interrupted:            !s.completed,
		}))
	}
	return r
}

func TestForDay(t *testing.T) {
	h := newHistory(t,
		seed{0, pomostudy.WorkInterval, 25, true, ""},
		seed{0, pomostudy.WorkInterval, 50, true, ""},
		seed{0, pomostudy.WorkInterval, 25, false, ""},
		seed{0, pomostudy.ShortBreakInterval, 5, true, ""},
		seed{0, pomostudy.WorkInterval, 25, true, "bob"},
		seed{1, pomostudy.WorkInterval, 25, true, ""},
	)

	d := Today(h, now)
	assert.Equal(t, StartOfDay(now), d.Date)
	assert.Equal(t, 3, d.CompletedSessions)
	assert.Equal(t, 1, d.InterruptedSessions)
	assert.Equal(t, 100, d.FocusedMinutes)

	d = ForDay(h, now, history.ForOwner("alice"))
	assert.Equal(t, 2, d.CompletedSessions)
	assert.Equal(t, 75, d.FocusedMinutes)

	d = ForDay(h, now.AddDate(0, 0, -1))
	assert.Equal(t, 1, d.CompletedSessions)

	d = ForDay(h, now.AddDate(0, 0, -2))
	assert.Zero(t, d.CompletedSessions)
	assert.Zero(t, d.FocusedMinutes)
}

func TestDaily(t *testing.T) {
	h := newHistory(t,
		seed{0, pomostudy.WorkInterval, 25, true, ""},
		seed{2, pomostudy.WorkInterval, 25, true, ""},
		seed{2, pomostudy.WorkInterval, 25, true, ""},
		seed{9, pomostudy.WorkInterval, 25, true, ""},
	)

	series := Daily(h, now, 7)
	require.Len(t, series, 7)
	assert.Equal(t, StartOfDay(now.AddDate(0, 0, -6)), series[0].Date)
	assert.Equal(t, StartOfDay(now), series[6].Date)

	var counts []int
	for _, d := range series {
		counts = append(counts, d.CompletedSessions)
	}
	assert.Equal(t, []int{0, 0, 0, 0, 2, 0, 1}, counts)

	assert.Nil(t, Daily(h, now, 0))
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		seeds []seed
		want  int
	}{
		{
			name: "empty",
			want: 0,
		},
		{
			name: "today only",
			seeds: []seed{
				{0, pomostudy.WorkInterval, 25, true, ""},
			},
			want: 1,
		},
		{
			name: "consecutive through today",
			seeds: []seed{
				{0, pomostudy.WorkInterval, 25, true, ""},
				{1, pomostudy.WorkInterval, 25, true, ""},
				{2, pomostudy.WorkInterval, 25, true, ""},
				{4, pomostudy.WorkInterval, 25, true, ""},
			},
			want: 3,
		},
		{
			name: "nothing yet today",
			seeds: []seed{
				{1, pomostudy.WorkInterval, 25, true, ""},
				{2, pomostudy.WorkInterval, 25, true, ""},
			},
			want: 2,
		},
		{
			name: "gap before yesterday breaks it",
			seeds: []seed{
				{2, pomostudy.WorkInterval, 25, true, ""},
			},
			want: 0,
		},
		{
			name: "interrupted and breaks do not count",
			seeds: []seed{
				{0, pomostudy.WorkInterval, 25, false, ""},
				{0, pomostudy.ShortBreakInterval, 5, true, ""},
				{1, pomostudy.WorkInterval, 25, true, ""},
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(newHistory(t, tt.seeds...), now))
		})
	}
}

func TestFormatMinutes(t *testing.T) {
	assert.Equal(t, "0m", FormatMinutes(0))
	assert.Equal(t, "45m", FormatMinutes(45))
	assert.Equal(t, "1h 40m", FormatMinutes(100))
	assert.Equal(t, "2h 0m", FormatMinutes(120))
}
