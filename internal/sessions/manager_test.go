package sessions_test

import (
	"context"
	"errors"
	"testing"

	"intervue/internal/logging"
	"intervue/internal/objectstore"
	"intervue/internal/services"
	"intervue/internal/sessions"
	"intervue/internal/testsupport"
)

type stubSource struct {
	entries []sessions.QuestionMappingEntry
	err     error
}

func (s *stubSource) Generate(ctx context.Context, userID, sessionID, resume, jobTitle, jobDescription string) ([]sessions.QuestionMappingEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func newManager(t *testing.T, source sessions.QuestionSource) (*sessions.Manager, objectstore.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	objects := objectstore.NewMemory()
	return sessions.NewManager(store, objects, source, logging.NewNop()), objects
}

func TestCreatePersistsSessionAndMapping(t *testing.T) {
	source := &stubSource{entries: []sessions.QuestionMappingEntry{
		{QuestionID: "q-1", Question: "Tell me about yourself."},
		{QuestionID: "q-2", Question: "Describe a hard bug you fixed."},
	}}
	manager, objects := newManager(t, source)
	ctx := t.Context()

	session, entries, err := manager.Create(ctx, "user-1", "Backend Engineer", "Build services.", "resume text")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if session.Status != sessions.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", session.Status)
	}
	if session.MappingRef == "" || session.ResumeRef == "" || session.JobDescriptionRef == "" {
		t.Fatalf("expected input refs populated, got %+v", session)
	}

	var stored []sessions.QuestionMappingEntry
	if err := objects.GetDocument(ctx, session.MappingRef, &stored); err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if len(stored) != 2 || stored[0].QuestionID != "q-1" {
		t.Fatalf("unexpected mapping %+v", stored)
	}

	resume, err := objects.GetBlob(ctx, session.ResumeRef)
	if err != nil {
		t.Fatalf("load resume: %v", err)
	}
	if string(resume) != "resume text" {
		t.Fatalf("unexpected resume %q", resume)
	}

	loaded, err := manager.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.ID != session.ID {
		t.Fatalf("expected %s, got %s", session.ID, loaded.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	manager, _ := newManager(t, &stubSource{})

	tests := []struct {
		name     string
		userID   string
		jobTitle string
	}{
		{name: "missing user", userID: "", jobTitle: "Engineer"},
		{name: "missing job title", userID: "user-1", jobTitle: "  "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := manager.Create(t.Context(), tc.userID, tc.jobTitle, "", "")
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateGenerationFailureLeavesNoSession(t *testing.T) {
	source := &stubSource{err: errors.New("engine unavailable")}
	manager, _ := newManager(t, source)
	ctx := t.Context()

	if _, _, err := manager.Create(ctx, "user-1", "Backend Engineer", "", ""); err == nil {
		t.Fatal("expected generation error")
	}

	listed, err := manager.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no sessions, got %d", len(listed))
	}
}

func TestGetMissingSession(t *testing.T) {
	manager, _ := newManager(t, &stubSource{})

	_, err := manager.Get(t.Context(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestFinalizeReportsStoredOutcomeOnRepeat(t *testing.T) {
	source := &stubSource{entries: []sessions.QuestionMappingEntry{{QuestionID: "q-1", Question: "Q"}}}
	manager, _ := newManager(t, source)
	ctx := t.Context()

	session, _, err := manager.Create(ctx, "user-1", "Backend Engineer", "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completed, err := manager.Finalize(ctx, session, "log-ref", "feedback-ref", sessions.StatusCompleted)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if completed.Status != sessions.StatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}

	repeat, err := manager.Finalize(ctx, session, "", "", sessions.StatusFailed)
	if err != nil {
		t.Fatalf("repeat finalize: %v", err)
	}
	if repeat.Status != sessions.StatusCompleted {
		t.Fatalf("expected completed to stick, got %s", repeat.Status)
	}
}
