package queue

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"intervue/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store manages job persistence backed by SQLite. Jobs move
// pending -> processing -> completed, with failed holding retries that ran
// out of budget. Processing jobs carry a lease; expired leases are reclaimed
// so a crashed consumer never strands work.
type Store struct {
	db   *sql.DB
	path string

	retryBase time.Duration
	retryMax  time.Duration
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:        db,
		path:      dbPath,
		retryBase: time.Duration(cfg.Workflow.RetryBaseSeconds) * time.Second,
		retryMax:  time.Duration(cfg.Workflow.RetryMaxSeconds) * time.Second,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Enqueue records a new pending job for the session. Duplicate jobs for the
// same session are allowed; processing is idempotent by overwrite.
func (s *Store) Enqueue(ctx context.Context, userID, sessionID string) (*Job, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("enqueue: user id and session id required")
	}
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (user_id, session_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		userID, sessionID, StatusPending,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("enqueue job id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Claim atomically takes the oldest runnable pending job, marks it
// processing, and grants a lease. It returns nil when no job is runnable.
func (s *Store) Claim(ctx context.Context, lease time.Duration) (*Job, error) {
	now := time.Now().UTC()
	var job *Job
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin claim tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx,
			`SELECT id FROM jobs
             WHERE status = ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
             ORDER BY created_at, id
             LIMIT 1`,
			StatusPending, now.Format(time.RFC3339Nano),
		)
		var id int64
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				job = nil
				return tx.Commit()
			}
			return fmt.Errorf("select runnable job: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE jobs
             SET status = ?, attempts = attempts + 1, lease_expires_at = ?, updated_at = ?
             WHERE id = ?`,
			StatusProcessing,
			now.Add(lease).Format(time.RFC3339Nano),
			now.Format(time.RFC3339Nano),
			id,
		); err != nil {
			return fmt.Errorf("mark job processing: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit claim: %w", err)
		}
		claimed, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		job = claimed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// MarkCompleted records terminal success for a job.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = NULL, lease_expires_at = NULL, updated_at = ?
         WHERE id = ?`,
		StatusCompleted, now, id,
	); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	return nil
}

// MarkFailed records terminal failure for a job.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, lease_expires_at = NULL, updated_at = ?
         WHERE id = ?`,
		StatusFailed, strings.TrimSpace(message), now, id,
	); err != nil {
		return fmt.Errorf("mark job failed: %w", err)
	}
	return nil
}

// Requeue returns a job to pending with an exponential backoff delay derived
// from its attempt count: base, base*2, base*4, capped at the configured
// maximum.
func (s *Store) Requeue(ctx context.Context, id int64, message string) (*Job, error) {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("requeue: job %d not found", id)
	}

	now := time.Now().UTC()
	delay := s.backoffDelay(job.Attempts)
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, next_attempt_at = ?, lease_expires_at = NULL, updated_at = ?
         WHERE id = ?`,
		StatusPending,
		strings.TrimSpace(message),
		now.Add(delay).Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return nil, fmt.Errorf("requeue job: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *Store) backoffDelay(attempts int) time.Duration {
	base := s.retryBase
	if base <= 0 {
		base = 30 * time.Second
	}
	maxDelay := s.retryMax
	if maxDelay <= 0 {
		maxDelay = 10 * time.Minute
	}
	delay := base
	for i := 1; i < attempts; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// ReclaimExpired returns processing jobs whose lease has lapsed back to
// pending so another consumer can pick them up. Redelivery is at least once;
// the processing stage tolerates duplicates by overwriting results.
func (s *Store) ReclaimExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, lease_expires_at = NULL, next_attempt_at = NULL, updated_at = ?
         WHERE status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at < ?`,
		StatusPending, now, StatusProcessing, now,
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim expired jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to pending for reprocessing. With no
// ids, every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if len(ids) == 0 {
		res, err := s.execWithRetry(ctx,
			`UPDATE jobs
             SET status = ?, error_message = NULL, next_attempt_at = NULL, attempts = 0, updated_at = ?
             WHERE status = ?`,
			StatusPending, now, StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed jobs: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, now, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = NULL, next_attempt_at = NULL, attempts = 0, updated_at = ?
         WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected jobs: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted removes completed jobs and returns how many were deleted.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed jobs: %w", err)
	}
	return res.RowsAffected()
}

// GetByID returns a job by id, or nil when it does not exist.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, selectJobColumns+` WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered to the given statuses, newest first. With no
// statuses, every job is returned.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := selectJobColumns
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
		query += ` WHERE status IN (` + placeholders + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Stats returns the number of jobs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health reports whether the store can serve queries.
func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("queue store not open")
	}
	return s.db.PingContext(ctx)
}

const selectJobColumns = `SELECT id, user_id, session_id, status, attempts,
    error_message, next_attempt_at, lease_expires_at, created_at, updated_at
    FROM jobs`

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job            Job
		status         string
		errorMessage   sql.NullString
		nextAttemptAt  sql.NullString
		leaseExpiresAt sql.NullString
		createdAt      string
		updatedAt      string
	)
	if err := scanner.Scan(
		&job.ID, &job.UserID, &job.SessionID, &status, &job.Attempts,
		&errorMessage, &nextAttemptAt, &leaseExpiresAt, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.ErrorMessage = errorMessage.String
	var err error
	if nextAttemptAt.Valid {
		if job.NextAttemptAt, err = parseTimeString(nextAttemptAt.String); err != nil {
			return nil, err
		}
	}
	if leaseExpiresAt.Valid {
		if job.LeaseExpiresAt, err = parseTimeString(leaseExpiresAt.String); err != nil {
			return nil, err
		}
	}
	if job.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, err
	}
	if job.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, err
	}
	return &job, nil
}

func parseTimeString(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02 15:04:05", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts, nil
}
