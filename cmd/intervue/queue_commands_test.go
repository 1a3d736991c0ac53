package main

import (
	"strings"
	"testing"

	"intervue/internal/config"
	"intervue/internal/queue"
)

func openTestQueue(t *testing.T, env *cliTestEnv) *queue.Store {
	t.Helper()
	cfg, _, _, err := config.Load(env.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open queue: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t, "queue")
	store := openTestQueue(t, env)
	ctx := t.Context()

	if _, err := store.Enqueue(ctx, "user-a", "session-a"); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	jobB, err := store.Enqueue(ctx, "user-b", "session-b")
	if err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if err := store.MarkFailed(ctx, jobB.ID, "engine unavailable"); err != nil {
		t.Fatalf("fail b: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "session-a")
	requireContains(t, out, "session-b")
	requireContains(t, out, "engine unavailable")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list failed: %v", err)
	}
	requireContains(t, out, "session-b")
	if strings.Contains(out, "session-a") {
		t.Fatalf("failed filter returned pending job: %q", out)
	}
}

func TestQueueRetryAndClear(t *testing.T) {
	env := setupCLITestEnv(t, "queue")
	store := openTestQueue(t, env)
	ctx := t.Context()

	job, err := store.Enqueue(ctx, "user-a", "session-a")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := store.MarkFailed(ctx, job.ID, "engine unavailable"); err != nil {
		t.Fatalf("fail: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Retried 1 failed jobs")

	updated, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	if err := store.MarkCompleted(ctx, job.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 completed jobs")
}
