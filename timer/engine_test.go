package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomostudy"
)

type mockRecorder struct {
	mu      sync.Mutex
	records []pomostudy.SessionRecord
	err     error
}

func (m *mockRecorder) Record(_ context.Context, rec pomostudy.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecorder) all() []pomostudy.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pomostudy.SessionRecord(nil), m.records...)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop() { f.stopped.Store(true) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *tickerFactory) new(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *tickerFactory) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickers[len(f.tickers)-1]
}

func (f *tickerFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// tickNow drives the engine synchronously as if the active loop fired.
func (e *Engine) tickNow() {
	e.mu.Lock()
	gen := e.runGen
	e.mu.Unlock()
	e.tick(gen)
}

func (e *Engine) tickN(n int) {
	for range n {
		e.tickNow()
	}
}

var testSettings = pomostudy.Settings{
	WorkMinutes:             25,
	ShortBreakMinutes:       5,
	LongBreakMinutes:        15,
	SessionsBeforeLongBreak: 4,
	Notifications:           true,
}

type harness struct {
	engine  *Engine
	rec     *mockRecorder
	tickers *tickerFactory
	clock   *atomic.Int64
}

func newHarness(t *testing.T, settings pomostudy.Settings) harness {
	t.Helper()
	rec := &mockRecorder{}
	tickers := &tickerFactory{}
	clock := &atomic.Int64{}
	clock.Store(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).Unix())
	var ids atomic.Int64
	e := New(context.Background(), settings, rec,
		WithTicker(tickers.new),
		WithClock(func() time.Time { return time.Unix(clock.Load(), 0).UTC() }),
		WithIDGenerator(func() string { return fmt.Sprintf("s%d", ids.Add(1)) }),
		WithOwner("alice"),
		WithLogger(log.New(testWriter{t})),
	)
	t.Cleanup(e.Close)
	return harness{engine: e, rec: rec, tickers: tickers, clock: clock}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// completeInterval starts the engine and ticks the current interval to zero.
func (h harness) completeInterval(t *testing.T) {
	t.Helper()
	require.NoError(t, h.engine.Start())
	h.engine.tickN(h.engine.State().RemainingSeconds)
}

func TestEngine_New(t *testing.T) {
	h := newHarness(t, testSettings)

	state := h.engine.State()
	assert.Equal(t, pomostudy.WorkInterval, state.IntervalType)
	assert.Equal(t, 1500, state.RemainingSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 0, state.CompletedWorkIntervals)
	_, open := h.engine.OpenSession()
	assert.False(t, open)
}

func TestEngine_TickDecrementsByOne(t *testing.T) {
	h := newHarness(t, testSettings)
	require.NoError(t, h.engine.Start())

	prev := h.engine.State().RemainingSeconds
	for range 100 {
		h.engine.tickNow()
		curr := h.engine.State().RemainingSeconds
		assert.Equal(t, prev-1, curr)
		prev = curr
	}
}

func TestEngine_TickNeverBelowZero(t *testing.T) {
	h := newHarness(t, pomostudy.Settings{
		WorkMinutes:             1,
		ShortBreakMinutes:       1,
		LongBreakMinutes:        1,
		SessionsBeforeLongBreak: 4,
	})
	require.NoError(t, h.engine.Start())

	h.engine.tickN(60)
	state := h.engine.State()
	assert.False(t, state.IsRunning)
	assert.Equal(t, 60, state.RemainingSeconds) // next interval loaded

	// stray ticks while stopped change nothing
	h.engine.tickN(5)
	assert.Equal(t, state, h.engine.State())
}

func TestEngine_TickIgnoredWhenNotRunning(t *testing.T) {
	h := newHarness(t, testSettings)

	h.engine.tickN(3)
	assert.Equal(t, 1500, h.engine.State().RemainingSeconds)
}

func TestEngine_ScenarioA_WorkCompletesToShortBreak(t *testing.T) {
	h := newHarness(t, testSettings)
	var completions []Completion
	h.engine.OnComplete(func(_ context.Context, c Completion) {
		completions = append(completions, c)
	})

	require.NoError(t, h.engine.Start())
	h.clock.Add(1500)
	h.engine.tickN(1500)

	records := h.rec.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].Completed)
	assert.False(t, records[0].Interrupted)
	assert.Equal(t, 25, records[0].PlannedDurationMinutes)
	assert.Equal(t, pomostudy.WorkInterval, records[0].IntervalType)
	assert.Equal(t, pomostudy.OwnerID("alice"), records[0].OwnerID)
	assert.Equal(t, 25*time.Minute, records[0].Elapsed())

	state := h.engine.State()
	assert.Equal(t, pomostudy.ShortBreakInterval, state.IntervalType)
	assert.Equal(t, 300, state.RemainingSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 1, state.CompletedWorkIntervals)

	require.Len(t, completions, 1)
	assert.Equal(t, pomostudy.ShortBreakInterval, completions[0].Next)
	assert.Equal(t, "Pomodoro complete!", completions[0].Notification.Title)
	assert.Equal(t, records[0], completions[0].Record)
}

func TestEngine_ScenarioB_ResetAfterTenTicks(t *testing.T) {
	h := newHarness(t, testSettings)

	require.NoError(t, h.engine.Start())
	h.engine.tickN(10)
	h.clock.Add(10)
	h.engine.Reset()

	records := h.rec.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].Interrupted)
	assert.False(t, records[0].Completed)
	assert.Equal(t, 10*time.Second, records[0].Elapsed())

	state := h.engine.State()
	assert.Equal(t, pomostudy.WorkInterval, state.IntervalType)
	assert.Equal(t, 1500, state.RemainingSeconds)
	assert.False(t, state.IsRunning)
	assert.Equal(t, 0, state.CompletedWorkIntervals)
}

func TestEngine_ScenarioC_FourthWorkYieldsLongBreak(t *testing.T) {
	h := newHarness(t, testSettings)

	for i := 1; i <= 3; i++ {
		h.completeInterval(t) // work
		assert.Equal(t, pomostudy.ShortBreakInterval, h.engine.State().IntervalType, "work #%d", i)
		h.completeInterval(t) // short break
		assert.Equal(t, pomostudy.WorkInterval, h.engine.State().IntervalType)
	}

	h.completeInterval(t)
	state := h.engine.State()
	assert.Equal(t, pomostudy.LongBreakInterval, state.IntervalType)
	assert.Equal(t, 900, state.RemainingSeconds)
	assert.Equal(t, 4, state.CompletedWorkIntervals)

	h.completeInterval(t)
	assert.Equal(t, pomostudy.WorkInterval, h.engine.State().IntervalType)

	records := h.rec.all()
	assert.Len(t, records, 8)
	for _, r := range records {
		assert.True(t, r.Completed)
	}
}

func TestEngine_ExclusiveOutcome(t *testing.T) {
	h := newHarness(t, testSettings)

	h.completeInterval(t)
	require.NoError(t, h.engine.Start())
	h.engine.tickN(3)
	h.engine.Reset()
	require.NoError(t, h.engine.Start())
	require.NoError(t, h.engine.SetIntervalType(pomostudy.LongBreakInterval))
	require.NoError(t, h.engine.Start())
	h.engine.Close()

	records := h.rec.all()
	require.Len(t, records, 4)
	ids := map[pomostudy.SessionID]bool{}
	for _, r := range records {
		assert.True(t, r.IsFinalized(), "record %s", r.ID)
		assert.NotEqual(t, r.Completed, r.Interrupted)
		assert.False(t, ids[r.ID], "duplicate record %s", r.ID)
		ids[r.ID] = true
	}
}

func TestEngine_StartIsIdempotent(t *testing.T) {
	h := newHarness(t, testSettings)

	require.NoError(t, h.engine.Start())
	first, ok := h.engine.OpenSession()
	require.True(t, ok)
	require.NoError(t, h.engine.Start())
	second, ok := h.engine.OpenSession()
	require.True(t, ok)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, h.tickers.count(), "second start must not register another tick")

	h.engine.Reset()
	assert.Len(t, h.rec.all(), 1)
}

func TestEngine_ResetRestoresDurationForCurrentType(t *testing.T) {
	tests := []struct {
		name     string
		interval pomostudy.IntervalType
		want     int
	}{
		{"work", pomostudy.WorkInterval, 1500},
		{"short break", pomostudy.ShortBreakInterval, 300},
		{"long break", pomostudy.LongBreakInterval, 900},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, testSettings)
			require.NoError(t, h.engine.SetIntervalType(tc.interval))
			require.NoError(t, h.engine.Start())
			h.engine.tickN(42)

			h.engine.Reset()

			state := h.engine.State()
			assert.Equal(t, tc.interval, state.IntervalType)
			assert.Equal(t, tc.want, state.RemainingSeconds)
		})
	}
}

func TestEngine_PauseKeepsSessionOpen(t *testing.T) {
	h := newHarness(t, testSettings)

	require.NoError(t, h.engine.Start())
	opened, _ := h.engine.OpenSession()
	h.engine.tickN(5)
	h.engine.Pause()

	state := h.engine.State()
	assert.False(t, state.IsRunning)
	assert.Equal(t, 1495, state.RemainingSeconds)
	assert.Empty(t, h.rec.all())

	// paused engine ignores ticks
	h.engine.tickN(5)
	assert.Equal(t, 1495, h.engine.State().RemainingSeconds)

	require.NoError(t, h.engine.Start())
	resumed, ok := h.engine.OpenSession()
	require.True(t, ok)
	assert.Equal(t, opened, resumed)

	h.engine.tickN(1495)
	records := h.rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, opened.ID, records[0].ID)
	assert.True(t, records[0].Completed)
}

func TestEngine_MisuseIsNoop(t *testing.T) {
	h := newHarness(t, testSettings)

	h.engine.Pause()
	h.engine.Reset()
	h.engine.Pause()

	assert.Empty(t, h.rec.all())
	assert.Equal(t, State{IntervalType: pomostudy.WorkInterval, RemainingSeconds: 1500}, h.engine.State())
}

func TestEngine_SetIntervalType(t *testing.T) {
	t.Run("while running interrupts", func(t *testing.T) {
		h := newHarness(t, testSettings)
		require.NoError(t, h.engine.Start())
		h.engine.tickN(30)

		require.NoError(t, h.engine.SetIntervalType(pomostudy.ShortBreakInterval))

		records := h.rec.all()
		require.Len(t, records, 1)
		assert.True(t, records[0].Interrupted)
		assert.Equal(t, pomostudy.WorkInterval, records[0].IntervalType)
		state := h.engine.State()
		assert.Equal(t, pomostudy.ShortBreakInterval, state.IntervalType)
		assert.Equal(t, 300, state.RemainingSeconds)
		assert.False(t, state.IsRunning)
	})

	t.Run("while idle", func(t *testing.T) {
		h := newHarness(t, testSettings)

		require.NoError(t, h.engine.SetIntervalType(pomostudy.LongBreakInterval))

		assert.Empty(t, h.rec.all())
		assert.Equal(t, 900, h.engine.State().RemainingSeconds)
	})

	t.Run("invalid", func(t *testing.T) {
		h := newHarness(t, testSettings)
		assert.Error(t, h.engine.SetIntervalType(pomostudy.IntervalType(9)))
	})
}

func TestEngine_StartRejectsNonPositiveDuration(t *testing.T) {
	h := newHarness(t, pomostudy.Settings{
		WorkMinutes:             0,
		ShortBreakMinutes:       5,
		LongBreakMinutes:        15,
		SessionsBeforeLongBreak: 4,
	})

	err := h.engine.Start()
	assert.ErrorIs(t, err, ErrNonPositiveDuration)
	assert.False(t, h.engine.State().IsRunning)
	_, open := h.engine.OpenSession()
	assert.False(t, open)
	assert.Equal(t, 0, h.tickers.count())
}

func TestEngine_UpdateSettings(t *testing.T) {
	h := newHarness(t, testSettings)

	updated := testSettings
	updated.WorkMinutes = 50
	require.NoError(t, h.engine.UpdateSettings(updated))
	assert.Equal(t, 3000, h.engine.State().RemainingSeconds)

	require.NoError(t, h.engine.Start())
	h.engine.tickN(100)
	updated.WorkMinutes = 1
	require.NoError(t, h.engine.UpdateSettings(updated))
	assert.Equal(t, 60, h.engine.State().RemainingSeconds, "clamped to the shorter duration")

	invalid := updated
	invalid.ShortBreakMinutes = -1
	assert.ErrorIs(t, h.engine.UpdateSettings(invalid), pomostudy.ErrInvalidSettings)
	assert.Equal(t, updated, h.engine.Settings())
}

func TestEngine_SetTask(t *testing.T) {
	h := newHarness(t, testSettings)
	h.engine.SetTask("task-1")

	h.completeInterval(t)

	records := h.rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, "task-1", records[0].TaskID)
}

func TestEngine_RecorderErrorDoesNotStopEngine(t *testing.T) {
	h := newHarness(t, testSettings)
	h.rec.err = errors.New("disk full")

	h.completeInterval(t)

	assert.Equal(t, pomostudy.ShortBreakInterval, h.engine.State().IntervalType)
	require.NoError(t, h.engine.Start())
}

func TestEngine_TickLoop(t *testing.T) {
	h := newHarness(t, pomostudy.Settings{
		WorkMinutes:             1,
		ShortBreakMinutes:       1,
		LongBreakMinutes:        1,
		SessionsBeforeLongBreak: 2,
	})
	updates := make(chan State, 100)
	h.engine.OnUpdate(func(s State) { updates <- s })

	require.NoError(t, h.engine.Start())
	<-updates // start

	ticker := h.tickers.last()
	for range 3 {
		ticker.ch <- time.Now()
		<-updates
	}
	assert.Equal(t, 57, h.engine.State().RemainingSeconds)

	h.engine.Pause()
	<-updates
	assert.Eventually(t, ticker.stopped.Load, time.Second, 10*time.Millisecond)
}

func TestEngine_StaleTickAfterRestartIgnored(t *testing.T) {
	h := newHarness(t, testSettings)

	require.NoError(t, h.engine.Start())
	h.engine.mu.Lock()
	staleGen := h.engine.runGen
	h.engine.mu.Unlock()
	h.engine.Pause()
	require.NoError(t, h.engine.Start())

	h.engine.tick(staleGen)
	assert.Equal(t, 1500, h.engine.State().RemainingSeconds)
}

func TestEngine_ContextCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	tickers := &tickerFactory{}
	e := New(ctx, testSettings, &mockRecorder{}, WithTicker(tickers.new))
	defer e.Close()

	require.NoError(t, e.Start())
	cancel()

	assert.Eventually(t, func() bool {
		return !e.State().IsRunning && tickers.last().stopped.Load()
	}, time.Second, 10*time.Millisecond)
}

func TestEngine_Close(t *testing.T) {
	h := newHarness(t, testSettings)
	require.NoError(t, h.engine.Start())
	h.engine.tickN(10)

	h.engine.Close()

	assert.True(t, h.tickers.last().stopped.Load())
	records := h.rec.all()
	require.Len(t, records, 1)
	assert.True(t, records[0].Interrupted)
	assert.ErrorIs(t, h.engine.Start(), ErrClosed)

	h.engine.Close()
	assert.Len(t, h.rec.all(), 1)
}

func TestNextInterval(t *testing.T) {
	tests := []struct {
		finished  pomostudy.IntervalType
		completed int
		before    int
		want      pomostudy.IntervalType
	}{
		{pomostudy.WorkInterval, 1, 4, pomostudy.ShortBreakInterval},
		{pomostudy.WorkInterval, 3, 4, pomostudy.ShortBreakInterval},
		{pomostudy.WorkInterval, 4, 4, pomostudy.LongBreakInterval},
		{pomostudy.WorkInterval, 8, 4, pomostudy.LongBreakInterval},
		{pomostudy.WorkInterval, 1, 1, pomostudy.LongBreakInterval},
		{pomostudy.WorkInterval, 5, 0, pomostudy.ShortBreakInterval},
		{pomostudy.ShortBreakInterval, 4, 4, pomostudy.WorkInterval},
		{pomostudy.LongBreakInterval, 4, 4, pomostudy.WorkInterval},
	}
	for _, tc := range tests {
		got := NextInterval(tc.finished, tc.completed, tc.before)
		if got != tc.want {
			t.Errorf("NextInterval(%s, %d, %d) = %s, want %s", tc.finished, tc.completed, tc.before, got, tc.want)
		}
	}
}
