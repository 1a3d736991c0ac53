package main

import (
	"strings"
	"testing"

	"intervue/internal/questions"
)

func startSession(t *testing.T, env *cliTestEnv, userID string) string {
	t.Helper()
	out, _, err := runCLI(t, []string{
		"start",
		"--user", userID,
		"--job-title", "Backend Engineer",
		"--job-description", "Build and operate Go services.",
	}, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "started")

	// First line reads "Session <id> started for ...".
	fields := strings.Fields(strings.SplitN(out, "\n", 2)[0])
	if len(fields) < 2 {
		t.Fatalf("unexpected start output: %q", out)
	}
	return fields[1]
}

func TestStartAnswerProcessFlow(t *testing.T) {
	env := setupCLITestEnv(t, "inline")
	sessionID := startSession(t, env, "cli-user")

	audio := writeAudioFile(t, env.baseDir, "answer.wav")
	introID := questions.QuestionID("cli-user", sessionID, 1)
	out, _, err := runCLI(t, []string{
		"answer", sessionID,
		"--question", introID,
		"--audio", audio,
	}, env.configPath)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	requireContains(t, out, "Answer stored")
	requireContains(t, out, "Audio key: ")
	requireContains(t, out, introID)

	out, _, err = runCLI(t, []string{"process", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "evaluated")

	out, _, err = runCLI(t, []string{"sessions", "show", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("sessions show: %v", err)
	}
	requireContains(t, out, "completed")
	requireContains(t, out, "Final Assessment")
	requireContains(t, out, "Overall score")

	out, _, err = runCLI(t, []string{"sessions", "list", "--user", "cli-user"}, env.configPath)
	if err != nil {
		t.Fatalf("sessions list: %v", err)
	}
	requireContains(t, out, sessionID)
	requireContains(t, out, "completed")
}

func TestBatchAnswerUpload(t *testing.T) {
	env := setupCLITestEnv(t, "inline")
	sessionID := startSession(t, env, "cli-user")

	introID := questions.QuestionID("cli-user", sessionID, 1)
	generatedID := questions.QuestionID("cli-user", sessionID, 2)
	first := writeAudioFile(t, env.baseDir, "first.wav")
	second := writeAudioFile(t, env.baseDir, "second.wav")

	out, _, err := runCLI(t, []string{
		"answer", sessionID,
		"--file", introID + "=" + first,
		"--file", generatedID + "=" + second,
	}, env.configPath)
	if err != nil {
		t.Fatalf("batch answer: %v", err)
	}
	requireContains(t, out, "Stored 2 answers")
	requireContains(t, out, introID)
	requireContains(t, out, generatedID)

	out, _, err = runCLI(t, []string{"sessions", "show", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("sessions show: %v", err)
	}
	requireContains(t, out, "yes")
}

func TestAnswerRejectsMixedFlags(t *testing.T) {
	env := setupCLITestEnv(t, "inline")
	sessionID := startSession(t, env, "cli-user")

	audio := writeAudioFile(t, env.baseDir, "answer.wav")
	_, _, err := runCLI(t, []string{
		"answer", sessionID,
		"--question", "q",
		"--audio", audio,
		"--file", "q=" + audio,
	}, env.configPath)
	if err == nil {
		t.Fatal("expected mixed flag error")
	}
}

func TestProcessQueueModeAcknowledges(t *testing.T) {
	env := setupCLITestEnv(t, "queue")
	sessionID := startSession(t, env, "cli-user")

	out, _, err := runCLI(t, []string{"process", sessionID}, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "queued for evaluation")

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
}
