// Package audit records ingest runs so readers can tell which source files
// a table was built from.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itbi-consulta/internal/db"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const runsTable = "ingest_runs"

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one ingest pipeline execution.
type Run struct {
	ID         string    `json:"id"`
	Dataset    string    `json:"dataset"`
	Table      string    `json:"table"`
	Signature  string    `json:"signature"`
	Encoding   string    `json:"encoding,omitempty"`
	Batches    int       `json:"batches"`
	Rows       int       `json:"rows"`
	Dropped    int       `json:"dropped"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Tracker manages the ingest_runs table.
type Tracker struct {
	db      *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

// NewTracker creates a new ingest run tracker
func NewTracker(conn *sql.DB, dialect db.Dialect) *Tracker {
	return &Tracker{db: conn, dialect: dialect, now: time.Now}
}

// EnsureSchema creates the runs table if needed.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	text := t.dialect.TypeName(db.Text)
	integer := t.dialect.TypeName(db.Integer)

	_, err := t.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id      %s PRIMARY KEY,
			dataset     %s NOT NULL,
			table_name  %s NOT NULL,
			signature   %s NOT NULL,
			encoding    %s NOT NULL DEFAULT '',
			batches     %s NOT NULL DEFAULT 0,
			rows_written %s NOT NULL DEFAULT 0,
			rows_dropped %s NOT NULL DEFAULT 0,
			status      %s NOT NULL,
			error       %s NOT NULL DEFAULT '',
			started_at  %s NOT NULL,
			finished_at %s NOT NULL DEFAULT ''
		)`, runsTable, text, text, text, text, text, integer, integer, integer, text, text, text, text))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", runsTable, err)
	}
	return nil
}

// Start records a run as running and returns it with its id and start time.
func (t *Tracker) Start(ctx context.Context, run Run) (Run, error) {
	run.ID = uuid.NewString()
	run.Status = StatusRunning
	run.StartedAt = t.now().UTC()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, dataset, table_name, signature, status, started_at)
		VALUES (%s)`, runsTable, db.Placeholders(t.dialect, 1, 6))
	_, err := t.db.ExecContext(ctx, query, run.ID, run.Dataset, run.Table, run.Signature,
		run.Status, run.StartedAt.Format(timeLayout))
	if err != nil {
		return run, fmt.Errorf("failed to record run start: %w", err)
	}
	return run, nil
}

// Finish stores the outcome of a run. A nil runErr marks it succeeded.
func (t *Tracker) Finish(ctx context.Context, run Run, runErr error) (Run, error) {
	run.FinishedAt = t.now().UTC()
	run.Status = StatusSucceeded
	run.Error = ""
	if runErr != nil {
		run.Status = StatusFailed
		run.Error = runErr.Error()
	}

	p := t.dialect.Placeholder
	query := fmt.Sprintf(`UPDATE %s SET encoding = %s, batches = %s, rows_written = %s, rows_dropped = %s,
		status = %s, error = %s, finished_at = %s WHERE run_id = %s`,
		runsTable, p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8))
	_, err := t.db.ExecContext(ctx, query, run.Encoding, run.Batches, run.Rows, run.Dropped,
		run.Status, run.Error, run.FinishedAt.Format(timeLayout), run.ID)
	if err != nil {
		return run, fmt.Errorf("failed to record run finish: %w", err)
	}
	return run, nil
}

const selectRun = `SELECT run_id, dataset, table_name, signature, encoding, batches, rows_written,
	rows_dropped, status, error, started_at, finished_at FROM ` + runsTable

func scanRun(sc interface{ Scan(...any) error }) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	err := sc.Scan(&r.ID, &r.Dataset, &r.Table, &r.Signature, &r.Encoding, &r.Batches, &r.Rows,
		&r.Dropped, &r.Status, &r.Error, &started, &finished)
	if err != nil {
		return r, err
	}
	r.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		r.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return r, nil
}

// LatestSucceeded returns the most recent successful run that built table,
// or nil when there is none.
func (t *Tracker) LatestSucceeded(ctx context.Context, table string) (*Run, error) {
	query := fmt.Sprintf("%s WHERE table_name = %s AND status = %s ORDER BY started_at DESC LIMIT 1",
		selectRun, t.dialect.Placeholder(1), t.dialect.Placeholder(2))
	return t.latest(ctx, table, query, table, StatusSucceeded)
}

// Latest returns the most recent run on table whatever its status, or nil
// when there is none.
func (t *Tracker) Latest(ctx context.Context, table string) (*Run, error) {
	query := fmt.Sprintf("%s WHERE table_name = %s ORDER BY started_at DESC LIMIT 1",
		selectRun, t.dialect.Placeholder(1))
	return t.latest(ctx, table, query, table)
}

func (t *Tracker) latest(ctx context.Context, table, query string, args ...any) (*Run, error) {
	run, err := scanRun(t.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run of %s: %w", table, err)
	}
	return &run, nil
}

// History returns the most recent runs, newest first.
func (t *Tracker) History(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("%s ORDER BY started_at DESC LIMIT %d", selectRun, limit)

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read run history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
