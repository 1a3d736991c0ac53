package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"intervue/internal/logging"
	"intervue/internal/objectstore"
	"intervue/internal/services"
)

// QuestionSource produces the fully-populated question mapping for a new
// session. Implemented by the questions generator.
type QuestionSource interface {
	Generate(ctx context.Context, userID, sessionID, resume, jobTitle, jobDescription string) ([]QuestionMappingEntry, error)
}

// Manager owns session creation, lookups, and terminal writeback.
type Manager struct {
	store   *Store
	objects objectstore.Store
	source  QuestionSource
	logger  *slog.Logger
}

// NewManager wires the session manager with its collaborators.
func NewManager(store *Store, objects objectstore.Store, source QuestionSource, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		objects: objects,
		source:  source,
		logger:  logging.NewComponentLogger(logger, "sessions"),
	}
}

// Create builds a new in_progress session with its question mapping fully
// populated. Question generation runs before anything is persisted, so a
// generation failure leaves no partial session visible.
func (m *Manager) Create(ctx context.Context, userID, jobTitle, jobDescription, resume string) (*Session, []QuestionMappingEntry, error) {
	userID = strings.TrimSpace(userID)
	jobTitle = strings.TrimSpace(jobTitle)
	if userID == "" {
		return nil, nil, services.Wrap(services.ErrValidation, "sessions", "create", "user id required", nil)
	}
	if jobTitle == "" {
		return nil, nil, services.Wrap(services.ErrValidation, "sessions", "create", "job title required", nil)
	}

	sessionID := uuid.NewString()
	entries, err := m.source.Generate(ctx, userID, sessionID, resume, jobTitle, jobDescription)
	if err != nil {
		return nil, nil, fmt.Errorf("generate questions: %w", err)
	}

	resumeRef, err := m.objects.PutBlob(ctx, ResumeKey(userID, sessionID), []byte(resume))
	if err != nil {
		return nil, nil, fmt.Errorf("store resume: %w", err)
	}
	jdRef, err := m.objects.PutBlob(ctx, JobDescriptionKey(userID, sessionID), []byte(jobDescription))
	if err != nil {
		return nil, nil, fmt.Errorf("store job description: %w", err)
	}
	mappingRef, err := m.objects.PutDocument(ctx, MappingKey(userID, sessionID), entries)
	if err != nil {
		return nil, nil, fmt.Errorf("store question mapping: %w", err)
	}

	session := &Session{
		ID:                sessionID,
		UserID:            userID,
		JobTitle:          jobTitle,
		JobDescriptionRef: jdRef,
		ResumeRef:         resumeRef,
		MappingRef:        mappingRef,
		Status:            StatusInProgress,
	}
	if err := m.store.Insert(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info("session created",
		logging.String(logging.FieldEventType, "session_created"),
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldUserID, userID),
		logging.String("job_title", jobTitle),
		logging.Int("questions", len(entries)),
	)
	return session, entries, nil
}

// Get fetches a session, mapping a missing row to ErrNotFound.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	session, err := m.store.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, services.Wrap(services.ErrNotFound, "sessions", "get", fmt.Sprintf("session %q", sessionID), nil)
	}
	return session, nil
}

// ListByUser returns the user's sessions ordered by creation.
func (m *Manager) ListByUser(ctx context.Context, userID string) ([]*Session, error) {
	return m.store.ListByUser(ctx, userID)
}

// Finalize performs the idempotent terminal writeback. Calling it with empty
// refs and StatusFailed is the guaranteed cleanup path for any processing
// attempt, so it never layers validation beyond the terminal-status check.
func (m *Manager) Finalize(ctx context.Context, session *Session, logRef, feedbackRef string, status Status) (*Session, error) {
	if session == nil {
		return nil, services.Wrap(services.ErrValidation, "sessions", "finalize", "session required", nil)
	}
	updated, err := m.store.Finalize(ctx, session.ID, logRef, feedbackRef, status)
	if err != nil {
		return nil, fmt.Errorf("finalize session %s: %w", session.ID, err)
	}
	if updated.Status != status {
		m.logger.Info("finalize skipped; session already terminal",
			logging.String(logging.FieldEventType, "finalize_noop"),
			logging.String(logging.FieldSessionID, session.ID),
			logging.String("requested_status", string(status)),
			logging.String("stored_status", string(updated.Status)),
		)
	} else {
		m.logger.Info("session finalized",
			logging.String(logging.FieldEventType, "session_finalized"),
			logging.String(logging.FieldSessionID, session.ID),
			logging.String("status", string(status)),
		)
	}
	return updated, nil
}

// OverwriteResults swaps in fresh log/feedback documents for a terminal
// session and records success (duplicate delivery or retry of a failure).
func (m *Manager) OverwriteResults(ctx context.Context, session *Session, logRef, feedbackRef string) (*Session, error) {
	if session == nil {
		return nil, services.Wrap(services.ErrValidation, "sessions", "overwrite results", "session required", nil)
	}
	return m.store.OverwriteResults(ctx, session.ID, logRef, feedbackRef)
}

// UpdateMappingRef moves the session's mapping pointer to a new snapshot.
func (m *Manager) UpdateMappingRef(ctx context.Context, sessionID, mappingRef string) error {
	return m.store.UpdateMappingRef(ctx, sessionID, mappingRef)
}
