// Package interview is the trigger-side facade: it starts sessions, accepts
// answer uploads, hands sessions off for evaluation, and serves session
// listings and details. Transport layers and the CLI call this package and
// nothing below it.
package interview

import (
	"context"
	"log/slog"

	"intervue/internal/answers"
	"intervue/internal/dispatch"
	"intervue/internal/evalengine"
	"intervue/internal/logging"
	"intervue/internal/objectstore"
	"intervue/internal/processor"
	"intervue/internal/sessions"
)

// Service exposes the interview operations.
type Service struct {
	manager    *sessions.Manager
	ingestor   *answers.Ingestor
	dispatcher *dispatch.Dispatcher
	objects    objectstore.Store
	logger     *slog.Logger
}

// NewService constructs the facade.
func NewService(
	manager *sessions.Manager,
	ingestor *answers.Ingestor,
	dispatcher *dispatch.Dispatcher,
	objects objectstore.Store,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		manager:    manager,
		ingestor:   ingestor,
		dispatcher: dispatcher,
		objects:    objects,
		logger:     logging.NewComponentLogger(logger, "interview"),
	}
}

// Start creates a session with a generated question set.
func (s *Service) Start(ctx context.Context, userID, jobTitle, jobDescription, resume string) (*StartResult, error) {
	session, mapping, err := s.manager.Create(ctx, userID, jobTitle, jobDescription, resume)
	if err != nil {
		return nil, err
	}
	return &StartResult{
		SessionID: session.ID,
		UserID:    session.UserID,
		JobTitle:  session.JobTitle,
		Questions: toQuestions(mapping),
	}, nil
}

// UploadAnswer attaches one answer recording to a question and returns the
// stored audio key.
func (s *Service) UploadAnswer(ctx context.Context, sessionID, questionID string, audio []byte) (string, error) {
	return s.ingestor.UploadAnswer(ctx, sessionID, questionID, audio)
}

// UploadAnswers attaches a batch of answer recordings in one call and
// returns the stored audio key per question.
func (s *Service) UploadAnswers(ctx context.Context, sessionID string, uploads []answers.Upload) (map[string]string, error) {
	return s.ingestor.UploadBatch(ctx, sessionID, uploads)
}

// Process hands the session off for evaluation and reports the
// acknowledgement.
func (s *Service) Process(ctx context.Context, sessionID string) (*ProcessResult, error) {
	session, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ack, err := s.dispatcher.Dispatch(ctx, session.UserID, session.ID)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{SessionID: session.ID, Status: ack}, nil
}

// ListSessions returns the user's sessions oldest first.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]Summary, error) {
	rows, err := s.manager.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, len(rows))
	for i, row := range rows {
		summaries[i] = toSummary(row)
	}
	return summaries, nil
}

// SessionDetails returns the session joined with its stored documents. The
// log and feedback sections stay empty until processing has persisted them.
func (s *Service) SessionDetails(ctx context.Context, sessionID string) (*Details, error) {
	session, err := s.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	details := &Details{Summary: toSummary(session)}

	if session.MappingRef != "" {
		var mapping []sessions.QuestionMappingEntry
		if err := s.objects.GetDocument(ctx, session.MappingRef, &mapping); err != nil {
			return nil, err
		}
		details.Questions = toQuestions(mapping)
	}
	if session.LogRef != "" {
		var log []processor.InterviewLogEntry
		if err := s.objects.GetDocument(ctx, session.LogRef, &log); err != nil {
			return nil, err
		}
		details.Log = log
	}
	if session.FeedbackRef != "" {
		var feedback evalengine.FinalAssessment
		if err := s.objects.GetDocument(ctx, session.FeedbackRef, &feedback); err != nil {
			return nil, err
		}
		details.Feedback = &feedback
	}
	return details, nil
}

func toQuestions(mapping []sessions.QuestionMappingEntry) []Question {
	questions := make([]Question, len(mapping))
	for i, entry := range mapping {
		questions[i] = Question{
			QuestionID: entry.QuestionID,
			Question:   entry.Question,
			Answered:   entry.AnswerAudio != "",
		}
	}
	return questions
}

func toSummary(session *sessions.Session) Summary {
	return Summary{
		SessionID: session.ID,
		JobTitle:  session.JobTitle,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}
