package sessions

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
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

// Store manages session row persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the session database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "sessions.db")
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

	store := &Store{db: db, path: dbPath}
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

// Insert persists a new session row.
func (s *Store) Insert(ctx context.Context, session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Status == "" {
		session.Status = StatusInProgress
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            id, user_id, job_title, job_description_ref, resume_ref,
            mapping_ref, log_ref, feedback_ref, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.JobTitle,
		nullableString(session.JobDescriptionRef),
		nullableString(session.ResumeRef),
		nullableString(session.MappingRef),
		nullableString(session.LogRef),
		nullableString(session.FeedbackRef),
		session.Status,
		session.CreatedAt.Format(time.RFC3339Nano),
		session.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID fetches a session by identifier. Returns nil when the session does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListByUser returns a user's sessions ordered by creation time.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var result []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, session)
	}
	return result, rows.Err()
}

// UpdateMappingRef moves the session's mapping-document pointer to a new snapshot.
func (s *Store) UpdateMappingRef(ctx context.Context, id, mappingRef string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET mapping_ref = ?, updated_at = ? WHERE id = ?`,
		mappingRef,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update mapping ref: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Finalize writes the terminal outcome for a session. The guard clause only
// matches in_progress rows, so a session that already reached a terminal
// status keeps it: repeated finalize calls are no-ops that report the stored
// row. Terminal log/feedback refs are overwritten only when the row is
// actually transitioned.
func (s *Store) Finalize(ctx context.Context, id, logRef, feedbackRef string, status Status) (*Session, error) {
	if !status.IsTerminal() {
		return nil, fmt.Errorf("finalize requires a terminal status, got %q", status)
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET log_ref = ?, feedback_ref = ?, status = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		nullableString(logRef),
		nullableString(feedbackRef),
		status,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

// OverwriteResults replaces the log/feedback refs of a terminal session and
// records success. Reprocessing is idempotent-by-overwrite: duplicate
// delivery of a completed session swaps in the newest documents, and a retry
// of a failed session recovers it to completed.
func (s *Store) OverwriteResults(ctx context.Context, id, logRef, feedbackRef string) (*Session, error) {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions
         SET log_ref = ?, feedback_ref = ?, status = ?, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		nullableString(logRef),
		nullableString(feedbackRef),
		StatusCompleted,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("overwrite session results: %w", err)
	}
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

const sessionColumns = "id, user_id, job_title, job_description_ref, resume_ref, mapping_ref, log_ref, feedback_ref, status, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id          string
		userID      string
		jobTitle    string
		jdRef       sql.NullString
		resumeRef   sql.NullString
		mappingRef  sql.NullString
		logRef      sql.NullString
		feedbackRef sql.NullString
		statusStr   string
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&userID,
		&jobTitle,
		&jdRef,
		&resumeRef,
		&mappingRef,
		&logRef,
		&feedbackRef,
		&statusStr,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	session := &Session{
		ID:                id,
		UserID:            userID,
		JobTitle:          jobTitle,
		JobDescriptionRef: jdRef.String,
		ResumeRef:         resumeRef.String,
		MappingRef:        mappingRef.String,
		LogRef:            logRef.String,
		FeedbackRef:       feedbackRef.String,
		Status:            Status(statusStr),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		session.UpdatedAt = updated
	}
	return session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
