// Package history keeps the append-only log of finalized pomodoro sessions.
package history

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
)

var (
	ErrDuplicate    = errors.New("session already recorded")
	ErrNotFinalized = errors.New("session is not finalized")
)

// Repo persists records. It exposes no update or delete on purpose.
type Repo interface {
	InsertSession(context.Context, pomostudy.SessionRecord) (pomostudy.ExistingSessionRecord, error)
	ListSessions(context.Context) ([]pomostudy.ExistingSessionRecord, error)
}

// Recorder caches the full history in memory on top of an optional Repo.
type Recorder struct {
	repo Repo
	tx   transactor.Transactor
	l    *log.Logger

	mu       sync.RWMutex
	records  []pomostudy.SessionRecord
	ids      map[pomostudy.SessionID]struct{}
	onRecord []func(pomostudy.SessionRecord)
}

// NewRecorder persists through repo inside tx. Both may be nil for an in-memory history.
func NewRecorder(repo Repo, tx transactor.Transactor, l *log.Logger) *Recorder {
	if l == nil {
		l = log.Default()
	}
	return &Recorder{
		repo: repo,
		tx:   tx,
		l:    l,
		ids:  make(map[pomostudy.SessionID]struct{}),
	}
}

func NewMemoryRecorder() *Recorder {
	return NewRecorder(nil, nil, nil)
}

// OnRecord registers an observer called after each successful append.
func (r *Recorder) OnRecord(fn func(pomostudy.SessionRecord)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRecord = append(r.onRecord, fn)
}

// Restore loads persisted history; should be called once before Record.
func (r *Recorder) Restore(ctx context.Context) error {
	if r.repo == nil {
		return nil
	}

	existing, err := r.repo.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range existing {
		if _, ok := r.ids[e.ID]; ok {
			continue
		}
		r.ids[e.ID] = struct{}{}
		r.records = append(r.records, e.SessionRecord)
	}
	r.l.Info("restored session history", "cnt", len(existing))
	return nil
}

// Record appends a finalized record. Existing entries are never modified; a
// correction is a new record.
func (r *Recorder) Record(ctx context.Context, rec pomostudy.SessionRecord) error {
	if !rec.IsFinalized() {
		return fmt.Errorf("%w: id=%q completed=%t interrupted=%t", ErrNotFinalized, rec.ID, rec.Completed, rec.Interrupted)
	}

	r.mu.Lock()
	if _, ok := r.ids[rec.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.ID)
	}
	// reserve the id so a concurrent Record of the same session fails fast
	r.ids[rec.ID] = struct{}{}
	r.mu.Unlock()

	if err := r.persist(ctx, rec); err != nil {
		r.mu.Lock()
		delete(r.ids, rec.ID)
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	observers := append([]func(pomostudy.SessionRecord){}, r.onRecord...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(rec)
	}
	return nil
}

func (r *Recorder) persist(ctx context.Context, rec pomostudy.SessionRecord) error {
	if r.repo == nil {
		return nil
	}
	insert := func(ctx context.Context) error {
		if _, err := r.repo.InsertSession(ctx, rec); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	}
	if r.tx == nil {
		return insert(ctx)
	}
	return r.tx.WithinTransaction(ctx, insert)
}

// Query yields records matching pred in append order. Each iteration works on
// the history as it was when the iteration began, so the sequence is finite
// and can be ranged over again.
func (r *Recorder) Query(pred Predicate) iter.Seq[pomostudy.SessionRecord] {
	if pred == nil {
		pred = All
	}
	return func(yield func(pomostudy.SessionRecord) bool) {
		r.mu.RLock()
		snapshot := r.records[:len(r.records):len(r.records)]
		r.mu.RUnlock()

		for _, rec := range snapshot {
			if !pred(rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
