package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
)

const (
	SelectAllSessions = "SELECT id, owner_id, task_id, interval_type, planned_duration_minutes, start_time, end_time, completed, interrupted, recorded_at FROM sessions"
	InsertSession     = "INSERT INTO sessions (id, owner_id, task_id, interval_type, planned_duration_minutes, start_time, end_time, completed, interrupted, recorded_at) VALUES "
)

type sessionEntity struct {
	ID                     string
	OwnerID                string
	TaskID                 string
	IntervalType           uint8
	PlannedDurationMinutes int
	StartTime              int64
	EndTime                int64
	Completed              bool
	Interrupted            bool
	RecordedAt             int64
}

// sessionRepo stores finalized session records. Rows are only ever inserted.
type sessionRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
	now      func() time.Time
}

func NewSessionRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *sessionRepo {
	if logger == nil {
		logger = log.Default()
	}
	return &sessionRepo{
		dbGetter: dbGetter,
		l:        logger,
		now:      time.Now,
	}
}

func (r *sessionRepo) InsertSession(ctx context.Context, session pomostudy.SessionRecord) (pomostudy.ExistingSessionRecord, error) {
	if session.ID == "" {
		return pomostudy.ExistingSessionRecord{}, fmt.Errorf("provide required field 'ID'")
	}

	existing := pomostudy.ExistingSessionRecord{
		SessionRecord: session,
		RecordedAt:    r.now(),
	}
	e := mapToSessionEntity(existing)

	args := []any{
		e.ID,
		e.OwnerID,
		e.TaskID,
		e.IntervalType,
		e.PlannedDurationMinutes,
		e.StartTime,
		e.EndTime,
		e.Completed,
		e.Interrupted,
		e.RecordedAt,
	}
	query := InsertSession + generateParameters(len(args))
	r.l.Debug("creating session", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return pomostudy.ExistingSessionRecord{}, err
	}

	return existing, nil
}

func (r *sessionRepo) GetSession(ctx context.Context, id pomostudy.SessionID) (pomostudy.ExistingSessionRecord, error) {
	if id == "" {
		return pomostudy.ExistingSessionRecord{}, fmt.Errorf("provide id")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAllSessions), id,
	)
	return extractSession(row)
}

// ListSessions returns every record in insertion order.
func (r *sessionRepo) ListSessions(ctx context.Context) ([]pomostudy.ExistingSessionRecord, error) {
	query := SelectAllSessions + " ORDER BY rowid"
	r.l.Debug("listing sessions", "query", query)
	return r.query(ctx, query)
}

// ListSessionsBetween returns records with a start time in [from, to).
func (r *sessionRepo) ListSessionsBetween(ctx context.Context, from, to time.Time) ([]pomostudy.ExistingSessionRecord, error) {
	query := SelectAllSessions + " WHERE start_time >= ? AND start_time < ? ORDER BY rowid"
	args := []any{from.UnixMilli(), to.UnixMilli()}
	r.l.Debug("listing sessions between", "query", query, "args", args)
	return r.query(ctx, query, args...)
}

func (r *sessionRepo) query(ctx context.Context, query string, args ...any) ([]pomostudy.ExistingSessionRecord, error) {
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var sessions []pomostudy.ExistingSessionRecord
	for rows.Next() {
		s, err := extractSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func extractSession(s scannable) (pomostudy.ExistingSessionRecord, error) {
	var e sessionEntity
	if err := s.Scan(&e.ID, &e.OwnerID, &e.TaskID, &e.IntervalType, &e.PlannedDurationMinutes, &e.StartTime, &e.EndTime, &e.Completed, &e.Interrupted, &e.RecordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomostudy.ExistingSessionRecord{}, ErrNotFound
		}
		return pomostudy.ExistingSessionRecord{}, err
	}

	return mapToExistingSessionRecord(e), nil
}

func mapToSessionEntity(s pomostudy.ExistingSessionRecord) sessionEntity {
	return sessionEntity{
		ID:                     string(s.ID),
		OwnerID:                string(s.OwnerID),
		TaskID:                 s.TaskID,
		IntervalType:           uint8(s.IntervalType),
		PlannedDurationMinutes: s.PlannedDurationMinutes,
		StartTime:              s.StartTime.UnixMilli(),
		EndTime:                s.EndTime.UnixMilli(),
		Completed:              s.Completed,
		Interrupted:            s.Interrupted,
		RecordedAt:             s.RecordedAt.UnixMilli(),
	}
}

func mapToExistingSessionRecord(e sessionEntity) pomostudy.ExistingSessionRecord {
	return pomostudy.ExistingSessionRecord{
		SessionRecord: pomostudy.SessionRecord{
			ID:                     pomostudy.SessionID(e.ID),
			OwnerID:                pomostudy.OwnerID(e.OwnerID),
			TaskID:                 e.TaskID,
			StartTime:              time.UnixMilli(e.StartTime),
			EndTime:                time.UnixMilli(e.EndTime),
			IntervalType:           pomostudy.IntervalType(e.IntervalType),
			PlannedDurationMinutes: e.PlannedDurationMinutes,
			Completed:              e.Completed,
			Interrupted:            e.Interrupted,
		},
		RecordedAt: time.UnixMilli(e.RecordedAt),
	}
}
