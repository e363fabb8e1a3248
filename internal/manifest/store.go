package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BeginRun inserts a running build record with a fresh UUID.
func (s *Store) BeginRun(ctx context.Context, archiveURL string, seed int64, numClasses int) (*Run, error) {
	now := time.Now().UTC()
	run := &Run{
		ID:         uuid.NewString(),
		ArchiveURL: archiveURL,
		Seed:       seed,
		NumClasses: numClasses,
		Status:     RunRunning,
		StartedAt:  now,
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, archive_url, seed, num_classes, status, started_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ArchiveURL, run.Seed, run.NumClasses, run.Status, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun marks a run complete, or failed when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := RunComplete
	var message any
	if runErr != nil {
		status = RunFailed
		message = runErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, message, time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return requireRow(res, "run", runID)
}

// interruptedMessage marks runs that never reached FinishRun.
const interruptedMessage = "interrupted before completion"

// AbandonRunning marks runs still recorded as running, and their pending
// split records, as failed. It must only be called while holding the build
// lock, when no other build can be live. It returns the number of runs
// closed.
func (s *Store) AbandonRunning(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE split_records SET status = ?, error_message = ?, updated_at = ?
        WHERE status = ? AND run_id IN (SELECT id FROM runs WHERE status = ?)`,
		SplitFailed, interruptedMessage, now, SplitPending, RunRunning,
	); err != nil {
		return 0, fmt.Errorf("abandon split records: %w", err)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		RunFailed, interruptedMessage, now, RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon runs: %w", err)
	}
	return res.RowsAffected()
}

// RecordSplit inserts a split record and returns it with its assigned ID.
func (s *Store) RecordSplit(ctx context.Context, rec SplitRecord) (*SplitRecord, error) {
	if strings.TrimSpace(rec.RunID) == "" || strings.TrimSpace(rec.Split) == "" {
		return nil, errors.New("record split: run id and split name are required")
	}
	if rec.Status == "" {
		rec.Status = SplitPending
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO split_records (
            run_id, split, directory, requested, planned, planned_bytes,
            downloaded, shortfall_classes, status, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Split, rec.Directory, rec.Requested, rec.Planned, rec.PlannedBytes,
		rec.Downloaded, rec.ShortfallClasses, rec.Status, nullableString(rec.ErrorMessage), timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert split record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return &rec, nil
}

// UpdateSplit records progress or the final outcome of a split.
func (s *Store) UpdateSplit(ctx context.Context, id int64, status SplitStatus, downloaded int, splitErr error) error {
	var message any
	if splitErr != nil {
		message = splitErr.Error()
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE split_records SET status = ?, downloaded = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, downloaded, message, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("update split record: %w", err)
	}
	return requireRow(res, "split record", fmt.Sprint(id))
}

// GetRun loads a run by ID. It returns nil when the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, archive_url, seed, num_classes, status, error_message, started_at, finished_at
        FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListRuns returns the most recent runs first, up to limit (all when limit <= 0).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, archive_url, seed, num_classes, status, error_message, started_at, finished_at
        FROM runs ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// SplitsForRun returns the split records of one run in insertion order.
func (s *Store) SplitsForRun(ctx context.Context, runID string) ([]SplitRecord, error) {
	return s.querySplits(ctx, splitColumns+` FROM split_records WHERE run_id = ? ORDER BY id`, runID)
}

// LatestSplits returns the newest record for every split name, ordered by name.
func (s *Store) LatestSplits(ctx context.Context) ([]SplitRecord, error) {
	return s.querySplits(ctx, splitColumns+` FROM split_records
        WHERE id IN (SELECT MAX(id) FROM split_records GROUP BY split)
        ORDER BY split`)
}

// LatestDownload returns the newest record for split that actually moved
// files (complete or failed), skipping "skipped" records. It returns nil when
// there is none.
func (s *Store) LatestDownload(ctx context.Context, split string) (*SplitRecord, error) {
	recs, err := s.querySplits(ctx, splitColumns+` FROM split_records
        WHERE split = ? AND status != ? ORDER BY id DESC LIMIT 1`, split, SplitSkipped)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

const splitColumns = `SELECT id, run_id, split, directory, requested, planned, planned_bytes,
        downloaded, shortfall_classes, status, error_message, created_at, updated_at`

func (s *Store) querySplits(ctx context.Context, query string, args ...any) ([]SplitRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query split records: %w", err)
	}
	defer rows.Close()

	var recs []SplitRecord
	for rows.Next() {
		var (
			rec       SplitRecord
			status    string
			errMsg    sql.NullString
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.Split, &rec.Directory, &rec.Requested, &rec.Planned, &rec.PlannedBytes,
			&rec.Downloaded, &rec.ShortfallClasses, &status, &errMsg, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan split record: %w", err)
		}
		rec.Status = SplitStatus(status)
		rec.ErrorMessage = errMsg.String
		rec.CreatedAt = parseTime(createdAt)
		rec.UpdatedAt = parseTime(updatedAt)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		status     string
		errMsg     sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := row.Scan(&run.ID, &run.ArchiveURL, &run.Seed, &run.NumClasses, &status, &errMsg, &startedAt, &finishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	run.ErrorMessage = errMsg.String
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
