// package repositories provides the persistence layer for sync run history.
package repositories

import (
	"database/sql"
	"fmt"
	"time"
)

// SyncRun is one recorded sync pass.
type SyncRun struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	AddedCount   int
	RemovedCount int
	SkippedCount int
	Notified     bool
	Detail       string // JSON-encoded outcome titles
}

// SyncRunRepository stores run records in SQLite.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a repository using the given database.
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new run record.
func (r *SyncRunRepository) Create(run *SyncRun) error {
	_, err := r.db.Exec(`
		INSERT INTO sync_runs (id, started_at, finished_at, added_count, removed_count, skipped_count, notified, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt,
		run.AddedCount, run.RemovedCount, run.SkippedCount,
		run.Notified, run.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (r *SyncRunRepository) List(limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, added_count, removed_count, skipped_count, notified, detail
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt,
			&run.AddedCount, &run.RemovedCount, &run.SkippedCount,
			&run.Notified, &run.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Latest returns the most recent run, or nil when none exist.
func (r *SyncRunRepository) Latest() (*SyncRun, error) {
	runs, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
