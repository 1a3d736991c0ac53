package workflow

import (
	"context"
	"testing"
	"time"

	"intervue/internal/config"
	"intervue/internal/evalengine"
	"intervue/internal/objectstore"
	"intervue/internal/processor"
	"intervue/internal/questions"
	"intervue/internal/queue"
	"intervue/internal/services"
	"intervue/internal/sessions"
	"intervue/internal/testsupport"
	"intervue/internal/transcribe"
)

type scriptedEngine struct {
	evalErr error
}

func (s *scriptedEngine) GenerateQuestions(ctx context.Context, resume, jobTitle, jobDescription string, count int) ([]string, error) {
	return evalengine.NewMock().GenerateQuestions(ctx, resume, jobTitle, jobDescription, count)
}

func (s *scriptedEngine) Evaluate(ctx context.Context, jobTitle string, records []evalengine.AnswerRecord) (*evalengine.Evaluation, error) {
	if s.evalErr != nil {
		return nil, s.evalErr
	}
	return evalengine.NewMock().Evaluate(ctx, jobTitle, records)
}

type noopNotifier struct{}

func (noopNotifier) NotifyInterviewCompleted(context.Context, string, float64, []string, []string) error {
	return nil
}
func (noopNotifier) NotifyInterviewFailed(context.Context, string, error) error { return nil }
func (noopNotifier) TestNotification(context.Context) error                     { return nil }

type fixture struct {
	cfg      *config.Config
	manager  *sessions.Manager
	jobs     *queue.Store
	engine   *scriptedEngine
	consumer *Consumer
	session  *sessions.Session
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()

	opts = append([]testsupport.ConfigOption{testsupport.WithMaxQuestions(1)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenSessions(t, cfg)
	jobs := testsupport.MustOpenQueue(t, cfg)
	objects := objectstore.NewMemory()
	engine := &scriptedEngine{}
	source := questions.NewGenerator(engine, cfg.Interview.MaxQuestions, nil)
	manager := sessions.NewManager(store, objects, source, nil)
	proc := processor.New(manager, objects, transcribe.NewMock(), engine, noopNotifier{}, nil)

	session, mapping, err := manager.Create(t.Context(), "user-12345678", "Engineer", "jd", "resume")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Answer the intro so the pipeline exercises transcription.
	audioRef, err := objects.PutBlob(t.Context(), sessions.AnswerAudioKey(session.UserID, session.ID, mapping[0].QuestionID), []byte("audio"))
	if err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	mapping[0].AnswerAudio = audioRef
	mappingRef, err := objects.PutDocument(t.Context(), sessions.MappingKey(session.UserID, session.ID), mapping)
	if err != nil {
		t.Fatalf("PutDocument: %v", err)
	}
	if err := manager.UpdateMappingRef(t.Context(), session.ID, mappingRef); err != nil {
		t.Fatalf("UpdateMappingRef: %v", err)
	}

	return &fixture{
		cfg:      cfg,
		manager:  manager,
		jobs:     jobs,
		engine:   engine,
		consumer: NewConsumer(cfg, jobs, proc, nil),
		session:  session,
	}
}

func TestProcessOnceCompletesJob(t *testing.T) {
	f := newFixture(t)
	enqueued, err := f.jobs.Enqueue(t.Context(), f.session.UserID, f.session.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	ran, err := f.consumer.ProcessOnce(t.Context())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if ran == nil || ran.ID != enqueued.ID {
		t.Fatalf("ran = %+v, want job %d", ran, enqueued.ID)
	}

	job, err := f.jobs.GetByID(t.Context(), enqueued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusCompleted {
		t.Errorf("job status = %s, want completed", job.Status)
	}

	session, err := f.manager.Get(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.Status != sessions.StatusCompleted {
		t.Errorf("session status = %s, want completed", session.Status)
	}
}

func TestProcessOnceEmptyQueue(t *testing.T) {
	f := newFixture(t)

	ran, err := f.consumer.ProcessOnce(t.Context())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if ran != nil {
		t.Fatalf("ran = %+v, want none", ran)
	}
}

func TestTransientFailureRequeuesWithBackoff(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxAttempts(3))
	f.engine.evalErr = services.Wrap(services.ErrTransient, "evalengine", "evaluate", "model offline", nil)

	enqueued, err := f.jobs.Enqueue(t.Context(), f.session.UserID, f.session.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := f.consumer.ProcessOnce(t.Context()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}

	job, err := f.jobs.GetByID(t.Context(), enqueued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("job status = %s, want pending", job.Status)
	}
	if job.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", job.Attempts)
	}
	if job.ErrorMessage == "" {
		t.Error("requeued job lost its error message")
	}
	if !job.NextAttemptAt.After(time.Now().UTC()) {
		t.Errorf("next attempt %v not deferred", job.NextAttemptAt)
	}
}

func TestExhaustedAttemptsFailJob(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxAttempts(1))
	f.engine.evalErr = services.Wrap(services.ErrTransient, "evalengine", "evaluate", "model offline", nil)

	enqueued, err := f.jobs.Enqueue(t.Context(), f.session.UserID, f.session.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := f.consumer.ProcessOnce(t.Context()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}

	job, err := f.jobs.GetByID(t.Context(), enqueued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusFailed {
		t.Fatalf("job status = %s, want failed", job.Status)
	}

	session, err := f.manager.Get(t.Context(), f.session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.Status != sessions.StatusFailed {
		t.Errorf("session status = %s, want failed", session.Status)
	}
}

func TestFatalFailureSkipsRetry(t *testing.T) {
	f := newFixture(t, testsupport.WithMaxAttempts(3))
	f.engine.evalErr = services.Wrap(services.ErrFatalResponse, "evalengine", "evaluate", "unparseable payload", nil)

	enqueued, err := f.jobs.Enqueue(t.Context(), f.session.UserID, f.session.ID)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := f.consumer.ProcessOnce(t.Context()); err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}

	job, err := f.jobs.GetByID(t.Context(), enqueued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.Status != queue.StatusFailed {
		t.Fatalf("job status = %s, want failed without retry", job.Status)
	}
	if job.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", job.Attempts)
	}
}

func TestStartStop(t *testing.T) {
	f := newFixture(t)
	if err := f.consumer.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.consumer.Start(t.Context()); err == nil {
		t.Error("second Start should fail while running")
	}
	f.consumer.Stop()
	// Stop is idempotent.
	f.consumer.Stop()

	if err := f.consumer.Start(t.Context()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	f.consumer.Stop()
}
