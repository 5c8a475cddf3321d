// Package audit keeps the history of cleanup runs in a SQLite database:
// one row per run, one row per target and one row per verdict.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/glorpus-work/reposweep/pkg/fsutil"
	"github.com/glorpus-work/reposweep/pkg/orchestrator"
)

// DefaultBusyTimeout is how long a writer waits for the database lock.
const DefaultBusyTimeout = 5 * time.Second

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite backed run history.
type Store struct {
	db        *sql.DB
	closeOnce sync.Once
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	DryRun       bool
	Repositories int
	Kept         int
	Deleted      int
	Failed       int
}

// VerdictRecord is one stored verdict. Status is empty for kept components.
type VerdictRecord struct {
	Repository  string
	ComponentID string
	Name        string
	Version     string
	WillDelete  bool
	Reason      string
	Pattern     string
	Status      orchestrator.DeletionStatus
	Error       string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if err := fsutil.EnsureFileDir(path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, DefaultBusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		dry_run INTEGER NOT NULL,
		repositories INTEGER NOT NULL,
		kept INTEGER NOT NULL,
		deleted INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS targets (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		repository TEXT NOT NULL,
		format TEXT NOT NULL,
		error TEXT NOT NULL,
		vetoed INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		PRIMARY KEY (run_id, repository)
	);

	CREATE TABLE IF NOT EXISTS verdicts (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		repository TEXT NOT NULL,
		component_id TEXT NOT NULL,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		will_delete INTEGER NOT NULL,
		reason TEXT NOT NULL,
		pattern TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a finished run in a single transaction.
func (s *Store) RecordRun(ctx context.Context, run *orchestrator.Run) (err error) {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run must have an id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sum := summarize(run)
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, dry_run, repositories, kept, deleted, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), boolToInt(run.DryRun),
		sum.Repositories, sum.Kept, sum.Deleted, sum.Failed,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	seq := 0
	for _, res := range run.Results {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO targets (run_id, repository, format, error, vetoed, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, res.Repository, string(res.Format), res.Error, res.Vetoed, res.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("failed to insert target %s: %w", res.Repository, err)
		}

		for _, rec := range verdictRecords(res) {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO verdicts (run_id, seq, repository, component_id, name, version, will_delete, reason, pattern, status, error)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, seq, rec.Repository, rec.ComponentID, rec.Name, rec.Version, boolToInt(rec.WillDelete),
				rec.Reason, rec.Pattern, string(rec.Status), rec.Error,
			); err != nil {
				return fmt.Errorf("failed to insert verdict: %w", err)
			}
			seq++
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, dry_run, repositories, kept, deleted, failed
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished int64
		if err := rows.Scan(&r.ID, &started, &finished, &r.DryRun, &r.Repositories, &r.Kept, &r.Deleted, &r.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started).UTC()
		r.FinishedAt = time.Unix(0, finished).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunVerdicts returns the verdicts of a run in recorded order.
func (s *Store) RunVerdicts(ctx context.Context, runID string) ([]VerdictRecord, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT repository, component_id, name, version, will_delete, reason, pattern, status, error
		FROM verdicts
		WHERE run_id = ?
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var out []VerdictRecord
	for rows.Next() {
		var r VerdictRecord
		var status string
		if err := rows.Scan(&r.Repository, &r.ComponentID, &r.Name, &r.Version, &r.WillDelete,
			&r.Reason, &r.Pattern, &status, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		r.Status = orchestrator.DeletionStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune removes runs that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.db.Close() })
	return err
}

func summarize(run *orchestrator.Run) RunSummary {
	sum := RunSummary{Repositories: len(run.Results)}
	for _, res := range run.Results {
		if res.Evaluation != nil {
			sum.Kept += len(res.Evaluation.Kept)
		}
		sum.Deleted += res.Count(orchestrator.StatusDeleted) + res.Count(orchestrator.StatusPlanned)
		sum.Failed += res.Count(orchestrator.StatusFailed)
		if res.Error != "" {
			sum.Failed++
		}
	}
	return sum
}

func verdictRecords(res *orchestrator.TargetResult) []VerdictRecord {
	if res.Evaluation == nil {
		return nil
	}
	out := make([]VerdictRecord, 0, len(res.Evaluation.Kept)+len(res.Evaluation.Deleted))
	for _, v := range res.Evaluation.Kept {
		out = append(out, VerdictRecord{
			Repository:  res.Repository,
			ComponentID: v.Component.ID,
			Name:        v.Component.Name,
			Version:     v.Component.Version,
			Reason:      v.Reason,
			Pattern:     v.MatchedPattern,
		})
	}
	for i, v := range res.Evaluation.Deleted {
		rec := VerdictRecord{
			Repository:  res.Repository,
			ComponentID: v.Component.ID,
			Name:        v.Component.Name,
			Version:     v.Component.Version,
			WillDelete:  true,
			Reason:      v.Reason,
			Pattern:     v.MatchedPattern,
		}
		if i < len(res.Deletions) {
			rec.Status = res.Deletions[i].Status
			rec.Error = res.Deletions[i].Error
		}
		out = append(out, rec)
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
