package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/metrics"
	"github.com/benjamonnguyen/pomostudy/notify"
	"github.com/benjamonnguyen/pomostudy/timer"
)

var ErrNoTimer = errors.New("no timer in this channel")

type startTimerRequest struct {
	guildID, channelID string
	// settings replaces the timer's settings when set
	settings *pomostudy.Settings
	taskID   string
}

type TimerManager interface {
	HasTimer(channelID string) bool
	State(channelID string) (timer.State, pomostudy.Settings, error)
	StartTimer(context.Context, startTimerRequest) (timer.State, error)
	PauseTimer(channelID string) (timer.State, error)
	ResetTimer(channelID string) (timer.State, error)
	SetIntervalType(channelID string, t pomostudy.IntervalType) (timer.State, error)
	StopTimer(channelID string) (timer.State, error)
	GuildTimerCnt(guildID string) int
	Shutdown()
}

type timerKey struct {
	guildID, channelID string
}

func (k timerKey) String() string {
	return fmt.Sprintf("%s:%s", k.guildID, k.channelID)
}

func (k timerKey) validate() error {
	if k.guildID == "" || k.channelID == "" {
		return fmt.Errorf("timerKey requires guild and channel IDs")
	}
	return nil
}

type timerManager struct {
	parentCtx   context.Context
	recorder    timer.Recorder
	notifierFor func(channelID string) notify.Notifier
	metrics     *metrics.Collector
	opts        []timer.Option
	l           *log.Logger

	cache *timerCache
}

// NewTimerManager hosts one timer.Engine per text channel. Every engine is bound
// to ctx and records finalized sessions to recorder.
func NewTimerManager(
	ctx context.Context,
	recorder timer.Recorder,
	notifierFor func(channelID string) notify.Notifier,
	collector *metrics.Collector,
	logger *log.Logger,
	opts ...timer.Option,
) TimerManager {
	if logger == nil {
		logger = log.Default()
	}
	return &timerManager{
		parentCtx:   ctx,
		recorder:    recorder,
		notifierFor: notifierFor,
		metrics:     collector,
		opts:        opts,
		l:           logger,
		cache: &timerCache{
			engines: make(map[string]*timerEntry),
		},
	}
}

func (m *timerManager) HasTimer(channelID string) bool {
	return m.cache.Get(channelID) != nil
}

func (m *timerManager) GuildTimerCnt(guildID string) int {
	return m.cache.GuildCnt(guildID)
}

func (m *timerManager) State(channelID string) (timer.State, pomostudy.Settings, error) {
	entry := m.cache.Get(channelID)
	if entry == nil {
		return timer.State{}, pomostudy.Settings{}, ErrNoTimer
	}
	return entry.engine.State(), entry.engine.Settings(), nil
}

// StartTimer creates the channel's timer on first use, then starts or resumes it.
func (m *timerManager) StartTimer(_ context.Context, req startTimerRequest) (timer.State, error) {
	key := timerKey{guildID: req.guildID, channelID: req.channelID}
	if err := key.validate(); err != nil {
		return timer.State{}, err
	}

	settings := pomostudy.DefaultSettings()
	if req.settings != nil {
		settings = *req.settings
	}
	if err := settings.Validate(); err != nil {
		return timer.State{}, err
	}

	entry, created := m.cache.GetOrAdd(key, func() *timer.Engine {
		return m.newEngine(key, settings)
	})
	if created {
		if m.metrics != nil {
			m.metrics.ActiveTimers.Inc()
		}
		m.l.Info("created timer", "key", key.String())
	} else if req.settings != nil {
		if err := entry.engine.UpdateSettings(settings); err != nil {
			return timer.State{}, err
		}
	}

	if req.taskID != "" {
		entry.engine.SetTask(req.taskID)
	}
	if err := entry.engine.Start(); err != nil {
		return timer.State{}, fmt.Errorf("failed to start timer: %w", err)
	}
	return entry.engine.State(), nil
}

func (m *timerManager) newEngine(key timerKey, settings pomostudy.Settings) *timer.Engine {
	opts := append([]timer.Option{
		timer.WithOwner(pomostudy.OwnerID(key.channelID)),
		timer.WithLogger(m.l.With("channelID", key.channelID)),
	}, m.opts...)
	e := timer.New(m.parentCtx, settings, m.recorder, opts...)

	if m.notifierFor != nil {
		e.OnComplete(notify.Hook(
			m.notifierFor(key.channelID),
			func() bool { return e.Settings().Notifications },
			m.l,
		))
	}
	e.OnComplete(func(_ context.Context, c timer.Completion) {
		m.l.Info("interval complete", "key", key.String(), "sessionID", c.Record.ID, "next", c.Next)
	})
	return e
}

func (m *timerManager) PauseTimer(channelID string) (timer.State, error) {
	entry := m.cache.Get(channelID)
	if entry == nil {
		return timer.State{}, ErrNoTimer
	}
	entry.engine.Pause()
	return entry.engine.State(), nil
}

func (m *timerManager) ResetTimer(channelID string) (timer.State, error) {
	entry := m.cache.Get(channelID)
	if entry == nil {
		return timer.State{}, ErrNoTimer
	}
	entry.engine.Reset()
	return entry.engine.State(), nil
}

func (m *timerManager) SetIntervalType(channelID string, t pomostudy.IntervalType) (timer.State, error) {
	entry := m.cache.Get(channelID)
	if entry == nil {
		return timer.State{}, ErrNoTimer
	}
	if err := entry.engine.SetIntervalType(t); err != nil {
		return timer.State{}, err
	}
	return entry.engine.State(), nil
}

// StopTimer closes and forgets the channel's timer. An interval in progress is
// recorded as interrupted.
func (m *timerManager) StopTimer(channelID string) (timer.State, error) {
	entry := m.cache.Remove(channelID)
	if entry == nil {
		return timer.State{}, ErrNoTimer
	}
	entry.engine.Close()
	if m.metrics != nil {
		m.metrics.ActiveTimers.Dec()
	}
	m.l.Info("stopped timer", "key", entry.key.String())
	return entry.engine.State(), nil
}

func (m *timerManager) Shutdown() {
	entries := m.cache.RemoveAll()
	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Go(entry.engine.Close)
	}
	wg.Wait()
	if m.metrics != nil {
		m.metrics.ActiveTimers.Sub(float64(len(entries)))
	}
	m.l.Info("closed timers", "cnt", len(entries))
}

// Cache

type timerEntry struct {
	key    timerKey
	engine *timer.Engine
}

type timerCache struct {
	mu      sync.RWMutex
	engines map[string]*timerEntry
}

func (c *timerCache) Get(channelID string) *timerEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engines[channelID]
}

// GetOrAdd returns the entry for key, creating it with newEngine if missing.
func (c *timerCache) GetOrAdd(key timerKey, newEngine func() *timer.Engine) (*timerEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.engines[key.channelID]; ok {
		return entry, false
	}
	entry := &timerEntry{key: key, engine: newEngine()}
	c.engines[key.channelID] = entry
	return entry, true
}

func (c *timerCache) Remove(channelID string) *timerEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.engines[channelID]
	delete(c.engines, channelID)
	return entry
}

func (c *timerCache) RemoveAll() []*timerEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]*timerEntry, 0, len(c.engines))
	for id, entry := range c.engines {
		entries = append(entries, entry)
		delete(c.engines, id)
	}
	return entries
}

func (c *timerCache) GuildCnt(guildID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var cnt int
	for _, entry := range c.engines {
		if entry.key.guildID == guildID {
			cnt++
		}
	}
	return cnt
}
