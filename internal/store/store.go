package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Artzzx/buildlore/internal/model"
)

// Run statuses in the ledger.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunRecord is one pipeline invocation in the run ledger. The ledger is
// operational history only; the knowledge base never reads from it.
type RunRecord struct {
	ID              string           `json:"id"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      *time.Time       `json:"finished_at,omitempty"`
	Status          string           `json:"status"`
	DryRun          bool             `json:"dry_run"`
	PatchVersion    string           `json:"patch_version"`
	BuildsProcessed int              `json:"builds_processed"`
	BuildsFailed    int              `json:"builds_failed"`
	SourcesAccepted int              `json:"sources_accepted"`
	SourcesRejected int              `json:"sources_rejected"`
	LowConfidence   int              `json:"low_confidence"`
	DurationMS      int64            `json:"duration_ms"`
	Report          *model.RunReport `json:"report,omitempty"`
}

// Ledger records pipeline runs in a local SQLite database.
type Ledger struct {
	db *sql.DB
}

// Open opens the ledger at path, creating parent directories and configuring
// WAL mode.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, eris.Wrapf(err, "ledger: create dir %s", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "ledger: exec %s", pragma)
		}
	}
	return &Ledger{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	started_at       DATETIME NOT NULL,
	finished_at      DATETIME,
	status           TEXT NOT NULL DEFAULT 'running',
	dry_run          INTEGER NOT NULL DEFAULT 0,
	patch_version    TEXT NOT NULL DEFAULT '',
	builds_processed INTEGER NOT NULL DEFAULT 0,
	builds_failed    INTEGER NOT NULL DEFAULT 0,
	sources_accepted INTEGER NOT NULL DEFAULT 0,
	sources_rejected INTEGER NOT NULL DEFAULT 0,
	low_confidence   INTEGER NOT NULL DEFAULT 0,
	duration_ms      INTEGER NOT NULL DEFAULT 0,
	report           TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate applies the schema. Safe to call on every open.
func (l *Ledger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "ledger: migrate")
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// CreateRun inserts a new run in the running state and returns it.
func (l *Ledger) CreateRun(ctx context.Context, dryRun bool, patchVersion string) (*RunRecord, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, status, dry_run, patch_version) VALUES (?, ?, ?, ?, ?)`,
		id, now, RunStatusRunning, dryRun, patchVersion,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: insert run")
	}

	return &RunRecord{
		ID:           id,
		StartedAt:    now,
		Status:       RunStatusRunning,
		DryRun:       dryRun,
		PatchVersion: patchVersion,
	}, nil
}

// FinishRun closes out a run with its final status and report. Counters are
// lifted from the report so list queries never parse JSON.
func (l *Ledger) FinishRun(ctx context.Context, id, status string, report *model.RunReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "ledger: marshal report")
	}

	res, err := l.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, status = ?, builds_processed = ?, builds_failed = ?,
		     sources_accepted = ?, sources_rejected = ?, low_confidence = ?,
		     duration_ms = ?, report = ?
		 WHERE id = ?`,
		time.Now().UTC(), status,
		report.BuildsProcessed, len(report.BuildsFailed),
		report.SourcesAccepted, len(report.SourcesRejected),
		len(report.LowConfidenceBuilds), int64(report.DurationSeconds*1000),
		string(reportJSON), id,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: finish run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "ledger: rows affected")
	}
	if n == 0 {
		return eris.Errorf("ledger: run not found: %s", id)
	}
	return nil
}

// GetRun returns one run by id, or nil when absent.
func (l *Ledger) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, status, dry_run, patch_version,
		        builds_processed, builds_failed, sources_accepted, sources_rejected,
		        low_confidence, duration_ms, report
		 FROM runs WHERE id = ?`,
		id,
	)
	rec, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ledger: get run %s", id)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, status, dry_run, patch_version,
		        builds_processed, builds_failed, sources_accepted, sources_rejected,
		        low_confidence, duration_ms, report
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: list runs")
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "ledger: scan run")
		}
		runs = append(runs, *rec)
	}
	return runs, eris.Wrap(rows.Err(), "ledger: list runs iterate")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*RunRecord, error) {
	var rec RunRecord
	var finished sql.NullTime
	var reportJSON sql.NullString

	err := s.Scan(&rec.ID, &rec.StartedAt, &finished, &rec.Status,
		&rec.DryRun, &rec.PatchVersion,
		&rec.BuildsProcessed, &rec.BuildsFailed,
		&rec.SourcesAccepted, &rec.SourcesRejected,
		&rec.LowConfidence, &rec.DurationMS, &reportJSON)
	if err != nil {
		return nil, err
	}

	if finished.Valid {
		t := finished.Time
		rec.FinishedAt = &t
	}
	if reportJSON.Valid && reportJSON.String != "" {
		var report model.RunReport
		if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
			return nil, eris.Wrap(err, "unmarshal report")
		}
		rec.Report = &report
	}
	return &rec, nil
}
