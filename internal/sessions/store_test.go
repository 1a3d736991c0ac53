package sessions_test

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"intervue/internal/sessions"
	"intervue/internal/testsupport"
)

func insertSession(t *testing.T, store *sessions.Store, session *sessions.Session) *sessions.Session {
	t.Helper()
	if err := store.Insert(t.Context(), session); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return session
}

func TestInsertAndGetByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	ctx := t.Context()

	session := insertSession(t, store, &sessions.Session{
		ID:         "session-1",
		UserID:     "user-1",
		JobTitle:   "Platform Engineer",
		MappingRef: "mapping-ref",
	})

	loaded, err := store.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected session")
	}
	if loaded.UserID != "user-1" || loaded.JobTitle != "Platform Engineer" {
		t.Fatalf("unexpected session %+v", loaded)
	}
	if loaded.Status != sessions.StatusInProgress {
		t.Fatalf("expected in_progress default, got %s", loaded.Status)
	}
	if loaded.MappingRef != "mapping-ref" {
		t.Fatalf("expected mapping ref, got %q", loaded.MappingRef)
	}
	if loaded.LogRef != "" || loaded.FeedbackRef != "" {
		t.Fatalf("expected empty result refs, got %+v", loaded)
	}

	missing, err := store.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing session, got %+v", missing)
	}
}

func TestListByUserOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	ctx := t.Context()

	base := time.Now().UTC().Add(-time.Hour)
	insertSession(t, store, &sessions.Session{
		ID: "second", UserID: "user-1", JobTitle: "B", CreatedAt: base.Add(time.Minute),
	})
	insertSession(t, store, &sessions.Session{
		ID: "first", UserID: "user-1", JobTitle: "A", CreatedAt: base,
	})
	insertSession(t, store, &sessions.Session{
		ID: "other", UserID: "user-2", JobTitle: "C", CreatedAt: base,
	})

	listed, err := store.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(listed))
	}
	if listed[0].ID != "first" || listed[1].ID != "second" {
		t.Fatalf("unexpected order: %s, %s", listed[0].ID, listed[1].ID)
	}
}

func TestUpdateMappingRefMissingSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)

	err := store.UpdateMappingRef(t.Context(), "nope", "ref")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestFinalizeTransitionsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	ctx := t.Context()

	session := insertSession(t, store, &sessions.Session{
		ID: "session-1", UserID: "user-1", JobTitle: "SRE",
	})

	updated, err := store.Finalize(ctx, session.ID, "log-ref", "feedback-ref", sessions.StatusCompleted)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if updated.Status != sessions.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.LogRef != "log-ref" || updated.FeedbackRef != "feedback-ref" {
		t.Fatalf("expected result refs, got %+v", updated)
	}

	// A later failure report must not demote the stored outcome.
	again, err := store.Finalize(ctx, session.ID, "", "", sessions.StatusFailed)
	if err != nil {
		t.Fatalf("second finalize: %v", err)
	}
	if again.Status != sessions.StatusCompleted {
		t.Fatalf("expected completed to stick, got %s", again.Status)
	}
	if again.LogRef != "log-ref" {
		t.Fatalf("expected refs preserved, got %+v", again)
	}
}

func TestFinalizeRejectsNonTerminalStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)

	if _, err := store.Finalize(t.Context(), "session-1", "", "", sessions.StatusInProgress); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestOverwriteResultsRecoversFailedSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	ctx := t.Context()

	session := insertSession(t, store, &sessions.Session{
		ID: "session-1", UserID: "user-1", JobTitle: "SRE",
	})
	if _, err := store.Finalize(ctx, session.ID, "", "", sessions.StatusFailed); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	recovered, err := store.OverwriteResults(ctx, session.ID, "log-ref", "feedback-ref")
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if recovered.Status != sessions.StatusCompleted {
		t.Fatalf("expected completed, got %s", recovered.Status)
	}
	if recovered.LogRef != "log-ref" || recovered.FeedbackRef != "feedback-ref" {
		t.Fatalf("expected fresh refs, got %+v", recovered)
	}
}

func TestOverwriteResultsLeavesInProgressUntouched(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenSessions(t, cfg)
	ctx := t.Context()

	session := insertSession(t, store, &sessions.Session{
		ID: "session-1", UserID: "user-1", JobTitle: "SRE", MappingRef: "mapping-ref",
	})

	result, err := store.OverwriteResults(ctx, session.ID, "log-ref", "feedback-ref")
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if result.Status != sessions.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", result.Status)
	}
	if result.LogRef != "" || result.FeedbackRef != "" {
		t.Fatalf("expected refs untouched, got %+v", result)
	}
}
