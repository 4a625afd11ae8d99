// Package runlog records one row per priority run in soha.run_log: when it
// started, how it ended and what every scorer reported.
package runlog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/markusj1201/SoHa-Priorities/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Run statuses.
const (
	StatusRunning        = "running"
	StatusComplete       = "complete"
	StatusFailed         = "failed"
	StatusRegistryFailed = "registry_failed"
)

// advisoryLockID serializes schema creation across concurrent runs.
const advisoryLockID = 7406231

// ScorerSummary is the persisted form of one scorer outcome.
type ScorerSummary struct {
	Scorer    string `json:"scorer"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	Items     int    `json:"items"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

// Entry is a row of soha.run_log.
type Entry struct {
	RunID        uuid.UUID       `json:"run_id"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RegistrySize int             `json:"registry_size"`
	RowsWritten  int             `json:"rows_written"`
	Error        string          `json:"error,omitempty"`
	Outcomes     []ScorerSummary `json:"outcomes,omitempty"`
}

// Result is passed to Complete.
type Result struct {
	RegistrySize int
	RowsWritten  int
	Outcomes     []ScorerSummary
}

// Recorder is what the pipeline needs from a run log.
type Recorder interface {
	Start(ctx context.Context, runID uuid.UUID, at time.Time) error
	Complete(ctx context.Context, runID uuid.UUID, res Result) error
	Fail(ctx context.Context, runID uuid.UUID, status, msg string, res Result) error
}

// Log is the Postgres-backed Recorder.
type Log struct {
	pool db.Pool
	now  func() time.Time
}

// New creates a Log backed by pool.
func New(pool db.Pool) *Log {
	return &Log{pool: pool, now: time.Now}
}

// Migrate creates the run_log table when missing.
func (l *Log) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "runlog"))
	if _, err := l.pool.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		return eris.Wrap(err, "runlog: acquire advisory lock")
	}
	defer func() {
		if _, err := l.pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			log.Warn("runlog: failed to release advisory lock", zap.Error(err))
		}
	}()
	if _, err := l.pool.Exec(ctx, schemaSQL); err != nil {
		return eris.Wrap(err, "runlog: apply schema")
	}
	return nil
}

// Start records a running entry.
func (l *Log) Start(ctx context.Context, runID uuid.UUID, at time.Time) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO soha.run_log (run_id, status, started_at) VALUES ($1, $2, $3)`,
		runID, StatusRunning, at,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: start run %s", runID)
	}
	return nil
}

// Complete marks a run as complete.
func (l *Log) Complete(ctx context.Context, runID uuid.UUID, res Result) error {
	return l.finish(ctx, runID, StatusComplete, nil, res)
}

// Fail marks a run as failed with status (failed or registry_failed).
func (l *Log) Fail(ctx context.Context, runID uuid.UUID, status, msg string, res Result) error {
	return l.finish(ctx, runID, status, &msg, res)
}

func (l *Log) finish(ctx context.Context, runID uuid.UUID, status string, msg *string, res Result) error {
	var outcomes []byte
	if len(res.Outcomes) > 0 {
		var err error
		outcomes, err = json.Marshal(res.Outcomes)
		if err != nil {
			return eris.Wrap(err, "runlog: marshal outcomes")
		}
	}
	_, err := l.pool.Exec(ctx,
		`UPDATE soha.run_log
		 SET status = $1, completed_at = $2, registry_size = $3, rows_written = $4, error = $5, outcomes = $6
		 WHERE run_id = $7`,
		status, l.now(), res.RegistrySize, res.RowsWritten, msg, outcomes, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: %s run %s", status, runID)
	}
	return nil
}

// LastSuccess returns the start time of the most recent complete run, or
// nil when there is none.
func (l *Log) LastSuccess(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT started_at FROM soha.run_log
		 WHERE status = 'complete'
		 ORDER BY started_at DESC LIMIT 1`,
	).Scan(&t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "runlog: last success")
	}
	return &t, nil
}

// List returns up to limit entries, most recent first.
func (l *Log) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.pool.Query(ctx,
		`SELECT run_id, status, started_at, completed_at, registry_size, rows_written, error, outcomes
		 FROM soha.run_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var errStr *string
		var outcomes []byte
		if err := rows.Scan(&e.RunID, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RegistrySize, &e.RowsWritten, &errStr, &outcomes); err != nil {
			return nil, eris.Wrap(err, "runlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		if outcomes != nil {
			_ = json.Unmarshal(outcomes, &e.Outcomes)
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "runlog: iterate")
}

// Nop discards every record.
type Nop struct{}

// Start implements Recorder.
func (Nop) Start(context.Context, uuid.UUID, time.Time) error { return nil }

// Complete implements Recorder.
func (Nop) Complete(context.Context, uuid.UUID, Result) error { return nil }

// Fail implements Recorder.
func (Nop) Fail(context.Context, uuid.UUID, string, string, Result) error { return nil }

// Open connects to dsn and returns a migrated Log with its close func.
func Open(ctx context.Context, dsn string) (*Log, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, eris.Wrap(err, "runlog: connect")
	}
	l := New(pool)
	if err := l.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return l, pool.Close, nil
}
