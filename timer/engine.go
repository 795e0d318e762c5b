// Package timer runs the pomodoro countdown for a single view and hands
// finalized session records to a Recorder.
package timer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/pomostudy"
)

const (
	tickRate      = time.Second
	recordTimeout = 10 * time.Second
)

var (
	ErrClosed              = errors.New("timer closed")
	ErrNonPositiveDuration = errors.New("configured duration must be positive")
)

type Recorder interface {
	Record(context.Context, pomostudy.SessionRecord) error
}

type State struct {
	IntervalType           pomostudy.IntervalType
	RemainingSeconds       int
	IsRunning              bool
	CompletedWorkIntervals int
}

// Clock renders the remaining time as MM:SS.
func (s State) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.RemainingSeconds/60, s.RemainingSeconds%60)
}

// Completion is emitted when a countdown reaches zero on its own.
type Completion struct {
	Record       pomostudy.SessionRecord
	Next         pomostudy.IntervalType
	Notification pomostudy.Notification
}

type Engine struct {
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	settings pomostudy.Settings
	recorder Recorder
	state    State
	open     *pomostudy.SessionRecord
	owner    pomostudy.OwnerID
	taskID   string
	closed   bool

	// run loop; runGen identifies the active loop so ticks from a
	// superseded loop are dropped
	runGen  uint64
	stopRun context.CancelFunc
	wg      sync.WaitGroup

	onComplete []func(context.Context, Completion)
	onUpdate   []func(State)

	now       func() time.Time
	newTicker func(time.Duration) Ticker
	newID     func() string
	l         *log.Logger
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(e *Engine) { e.newTicker = newTicker }
}

func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func WithOwner(owner pomostudy.OwnerID) Option {
	return func(e *Engine) { e.owner = owner }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.l = l }
}

// New returns an idle engine on a full Work interval. Settings are expected to
// be validated by the caller. The tick loop never outlives ctx.
func New(ctx context.Context, settings pomostudy.Settings, recorder Recorder, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(ctx)
	e := &Engine{
		ctx:      ctx,
		cancel:   cancel,
		settings: settings,
		recorder: recorder,
		state: State{
			IntervalType:     pomostudy.WorkInterval,
			RemainingSeconds: settings.Seconds(pomostudy.WorkInterval),
		},
		now:       time.Now,
		newTicker: NewStdTicker,
		newID:     uuid.NewString,
		l:         log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnComplete hooks run on the tick goroutine and must not call Close.
func (e *Engine) OnComplete(fn func(context.Context, Completion)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = append(e.onComplete, fn)
}

// OnUpdate hooks receive a snapshot after every state change, including each tick.
func (e *Engine) OnUpdate(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = append(e.onUpdate, fn)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Settings() pomostudy.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// OpenSession returns the record of the interval started but not yet finalized.
func (e *Engine) OpenSession() (pomostudy.SessionRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.open == nil {
		return pomostudy.SessionRecord{}, false
	}
	return *e.open, true
}

// SetTask tags the next opened session with taskID.
func (e *Engine) SetTask(taskID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.taskID = taskID
}

// Start opens a session for the current interval, or resumes the open one
// after a pause. Calling Start while running does nothing.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.state.IsRunning {
		e.mu.Unlock()
		return nil
	}
	planned := e.settings.Minutes(e.state.IntervalType)
	if planned <= 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s is %d minutes", ErrNonPositiveDuration, e.state.IntervalType, planned)
	}

	if e.open == nil {
		e.open = &pomostudy.SessionRecord{
			ID:                     pomostudy.SessionID(e.newID()),
			OwnerID:                e.owner,
			TaskID:                 e.taskID,
			StartTime:              e.now(),
			IntervalType:           e.state.IntervalType,
			PlannedDurationMinutes: planned,
		}
	}
	e.state.IsRunning = true
	e.startLoopLocked()
	state := e.state
	e.mu.Unlock()

	e.emitUpdate(state)
	return nil
}

// Pause stops the countdown. The open session stays open.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.IsRunning {
		e.mu.Unlock()
		return
	}
	e.stopLoopLocked()
	state := e.state
	e.mu.Unlock()

	e.emitUpdate(state)
}

// Reset finalizes the open session as interrupted and restores the full
// duration of the current interval type.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	rec, interrupted := e.interruptLocked()
	e.stopLoopLocked()
	e.state.RemainingSeconds = e.settings.Seconds(e.state.IntervalType)
	state := e.state
	e.mu.Unlock()

	if interrupted {
		e.record(rec)
	}
	e.emitUpdate(state)
}

// SetIntervalType switches to t with its full duration. An interval in progress
// is finalized as interrupted first.
func (e *Engine) SetIntervalType(t pomostudy.IntervalType) error {
	if !t.Valid() {
		return fmt.Errorf("invalid interval type: %s", t)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	rec, interrupted := e.interruptLocked()
	e.stopLoopLocked()
	e.state.IntervalType = t
	e.state.RemainingSeconds = e.settings.Seconds(t)
	state := e.state
	e.mu.Unlock()

	if interrupted {
		e.record(rec)
	}
	e.emitUpdate(state)
	return nil
}

// UpdateSettings applies new durations. Without an open session the countdown
// is refreshed to the new duration, otherwise it is only clamped to it.
func (e *Engine) UpdateSettings(s pomostudy.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	e.settings = s
	full := s.Seconds(e.state.IntervalType)
	if e.open == nil || e.state.RemainingSeconds > full {
		e.state.RemainingSeconds = full
	}
	state := e.state
	e.mu.Unlock()

	e.emitUpdate(state)
	return nil
}

// Close stops the tick loop and waits for it to exit. A session still open is
// recorded as interrupted. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	rec, interrupted := e.interruptLocked()
	e.stopLoopLocked()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	if interrupted {
		e.record(rec)
	}
}

func (e *Engine) startLoopLocked() {
	e.runGen++
	gen := e.runGen
	runCtx, stop := context.WithCancel(e.ctx)
	e.stopRun = stop
	ticker := e.newTicker(tickRate)

	e.wg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				e.loopExited(gen)
				return
			case <-ticker.C():
				e.tick(gen)
			}
		}
	})
}

func (e *Engine) stopLoopLocked() {
	if e.stopRun != nil {
		e.stopRun()
		e.stopRun = nil
	}
	e.state.IsRunning = false
}

// loopExited pauses the engine when the parent context goes away underneath a running loop.
func (e *Engine) loopExited(gen uint64) {
	e.mu.Lock()
	if gen != e.runGen || !e.state.IsRunning {
		e.mu.Unlock()
		return
	}
	e.stopLoopLocked()
	e.mu.Unlock()
	e.l.Debug("tick loop stopped by context", "err", e.ctx.Err())
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if gen != e.runGen || !e.state.IsRunning {
		e.mu.Unlock()
		return
	}
	if e.state.RemainingSeconds > 0 {
		e.state.RemainingSeconds--
	}
	if e.state.RemainingSeconds > 0 {
		state := e.state
		e.mu.Unlock()
		e.emitUpdate(state)
		return
	}

	c, hasRecord := e.completeLocked()
	state := e.state
	hooks := append([]func(context.Context, Completion){}, e.onComplete...)
	e.mu.Unlock()

	if hasRecord {
		e.record(c.Record)
	}
	e.emitUpdate(state)
	for _, fn := range hooks {
		fn(e.ctx, c)
	}
}

func (e *Engine) completeLocked() (Completion, bool) {
	finished := e.state.IntervalType
	var rec pomostudy.SessionRecord
	hasRecord := e.open != nil
	if hasRecord {
		rec = *e.open
		rec.EndTime = e.now()
		rec.Completed = true
		e.open = nil
	}

	if finished == pomostudy.WorkInterval {
		e.state.CompletedWorkIntervals++
	}
	next := NextInterval(finished, e.state.CompletedWorkIntervals, e.settings.SessionsBeforeLongBreak)
	e.stopLoopLocked()
	e.state.IntervalType = next
	e.state.RemainingSeconds = e.settings.Seconds(next)

	return Completion{
		Record:       rec,
		Next:         next,
		Notification: pomostudy.NotificationFor(finished),
	}, hasRecord
}

func (e *Engine) interruptLocked() (pomostudy.SessionRecord, bool) {
	if e.open == nil {
		return pomostudy.SessionRecord{}, false
	}
	rec := *e.open
	rec.EndTime = e.now()
	rec.Interrupted = true
	e.open = nil
	return rec, true
}

func (e *Engine) record(rec pomostudy.SessionRecord) {
	if e.recorder == nil {
		return
	}
	// records must survive teardown of the owning view
	ctx, cancel := context.WithTimeout(context.WithoutCancel(e.ctx), recordTimeout)
	defer cancel()
	if err := e.recorder.Record(ctx, rec); err != nil {
		e.l.Error("failed to record session", "sessionID", rec.ID, "interval", rec.IntervalType, "err", err)
		return
	}
	e.l.Debug("recorded session", "sessionID", rec.ID, "interval", rec.IntervalType,
		"completed", rec.Completed, "interrupted", rec.Interrupted)
}

func (e *Engine) emitUpdate(state State) {
	e.mu.Lock()
	hooks := append([]func(State){}, e.onUpdate...)
	e.mu.Unlock()
	for _, fn := range hooks {
		fn(state)
	}
}

// NextInterval applies the transition rule for a naturally completed interval.
// completedWork already counts the interval that just finished. A non-positive
// sessionsBeforeLongBreak never yields a long break.
func NextInterval(finished pomostudy.IntervalType, completedWork, sessionsBeforeLongBreak int) pomostudy.IntervalType {
	if finished != pomostudy.WorkInterval {
		return pomostudy.WorkInterval
	}
	if sessionsBeforeLongBreak > 0 && completedWork > 0 && completedWork%sessionsBeforeLongBreak == 0 {
		return pomostudy.LongBreakInterval
	}
	return pomostudy.ShortBreakInterval
}
