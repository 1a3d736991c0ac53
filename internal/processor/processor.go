package processor

import (
	"context"
	"fmt"
	"log/slog"

	"intervue/internal/evalengine"
	"intervue/internal/logging"
	"intervue/internal/notifications"
	"intervue/internal/objectstore"
	"intervue/internal/services"
	"intervue/internal/sessions"
	"intervue/internal/transcribe"
)

// Pipeline stages, logged as the session moves through processing.
const (
	StageStarted      = "STARTED"
	StageTranscribing = "TRANSCRIBING"
	StageEvaluating   = "EVALUATING"
	StagePersisting   = "PERSISTING"
	StageDone         = "DONE"
	StageFailed       = "FAILED"
)

// Defaults applied during the merge step when the evaluation response does
// not cover a question.
const (
	skippedFeedback = "No response provided."
	missingFeedback = "No feedback available."
)

// InterviewLogEntry is one question's full processing record: the question,
// where its audio lives, what was said, and how it scored.
type InterviewLogEntry struct {
	QuestionID       string  `json:"question_id"`
	Question         string  `json:"question"`
	AudioKey         string  `json:"audio_key,omitempty"`
	Transcription    string  `json:"transcription"`
	Score            float64 `json:"score"`
	Feedback         string  `json:"feedback"`
	FollowUpQuestion string  `json:"follow_up_question,omitempty"`
}

// Processor runs the full evaluation pipeline for one session: transcribe
// every answered question, score the whole set in a single engine call, merge,
// persist the terminal documents, and notify.
type Processor struct {
	manager     *sessions.Manager
	objects     objectstore.Store
	transcriber transcribe.Transcriber
	engine      evalengine.Engine
	notifier    notifications.Service
	logger      *slog.Logger
}

// New constructs a processor.
func New(
	manager *sessions.Manager,
	objects objectstore.Store,
	transcriber transcribe.Transcriber,
	engine evalengine.Engine,
	notifier notifications.Service,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		manager:     manager,
		objects:     objects,
		transcriber: transcriber,
		engine:      engine,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "processor"),
	}
}

// Process evaluates one session end to end.
//
// Once the session row is loaded, any failure finalizes the session as
// failed before the error is returned, so no delivered job leaves a session
// stuck in progress. The one exception is a session that does not exist:
// there is nothing to finalize, and the job fails on its own.
//
// Reprocessing an already-terminal session overwrites its result documents,
// which makes duplicate delivery and operator retries safe.
func (p *Processor) Process(ctx context.Context, userID, sessionID string) (err error) {
	logger := p.logger.With(
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldUserID, userID),
	)
	p.logStage(logger, StageStarted)

	session, err := p.manager.Get(ctx, sessionID)
	if err != nil {
		logger.Error("session lookup failed; nothing to finalize", logging.Error(err))
		return err
	}
	wasTerminal := session.Status.IsTerminal()

	defer func() {
		if err == nil {
			return
		}
		p.logStage(logger, StageFailed)
		logger.Error("processing failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.FailureKind(err)))
		if _, finalizeErr := p.manager.Finalize(ctx, session, "", "", sessions.StatusFailed); finalizeErr != nil {
			logger.Error("finalize after failure", logging.Error(finalizeErr))
		}
		if notifyErr := p.notifier.NotifyInterviewFailed(ctx, session.JobTitle, err); notifyErr != nil {
			logger.Warn("failure notification not delivered", logging.Error(notifyErr))
		}
	}()

	var mapping []sessions.QuestionMappingEntry
	if err = p.objects.GetDocument(ctx, session.MappingRef, &mapping); err != nil {
		return fmt.Errorf("load question mapping: %w", err)
	}
	if len(mapping) == 0 {
		err = services.Wrap(services.ErrFatalResponse, "processor", "load_mapping", "question mapping is empty", nil)
		return err
	}

	p.logStage(logger, StageTranscribing)
	entries, records, transcribeErr := p.transcribeAnswers(ctx, logger, mapping)
	if transcribeErr != nil {
		err = transcribeErr
		return err
	}

	p.logStage(logger, StageEvaluating)
	evaluation, evalErr := p.engine.Evaluate(ctx, session.JobTitle, records)
	if evalErr != nil {
		err = evalErr
		return err
	}
	mergeEvaluation(entries, evaluation)

	p.logStage(logger, StagePersisting)
	logRef, putErr := p.objects.PutDocument(ctx, sessions.InterviewLogKey(userID, sessionID), entries)
	if putErr != nil {
		err = fmt.Errorf("persist interview log: %w", putErr)
		return err
	}
	feedbackRef, putErr := p.objects.PutDocument(ctx, sessions.FeedbackKey(userID, sessionID), evaluation.FinalAssessment)
	if putErr != nil {
		err = fmt.Errorf("persist feedback: %w", putErr)
		return err
	}

	if wasTerminal {
		if _, err = p.manager.OverwriteResults(ctx, session, logRef, feedbackRef); err != nil {
			return err
		}
	} else {
		if _, err = p.manager.Finalize(ctx, session, logRef, feedbackRef, sessions.StatusCompleted); err != nil {
			return err
		}
	}

	p.logStage(logger, StageDone)
	final := evaluation.FinalAssessment
	if notifyErr := p.notifier.NotifyInterviewCompleted(ctx, session.JobTitle,
		final.OverallScore, final.KeyStrengths, final.AreasForGrowth); notifyErr != nil {
		logger.Warn("completion notification not delivered", logging.Error(notifyErr))
	}
	return nil
}

func (p *Processor) transcribeAnswers(
	ctx context.Context,
	logger *slog.Logger,
	mapping []sessions.QuestionMappingEntry,
) ([]InterviewLogEntry, []evalengine.AnswerRecord, error) {
	entries := make([]InterviewLogEntry, 0, len(mapping))
	records := make([]evalengine.AnswerRecord, 0, len(mapping))

	for _, question := range mapping {
		entry := InterviewLogEntry{
			QuestionID: question.QuestionID,
			Question:   question.Question,
			AudioKey:   question.AnswerAudio,
		}
		if question.AnswerAudio == "" {
			logger.Info("question skipped; no answer audio",
				logging.String("question_id", question.QuestionID))
			entry.Feedback = skippedFeedback
		} else {
			text, err := p.transcriber.Transcribe(ctx, question.AnswerAudio)
			if err != nil {
				return nil, nil, fmt.Errorf("transcribe question %s: %w", question.QuestionID, err)
			}
			entry.Transcription = text
		}
		entries = append(entries, entry)
		records = append(records, evalengine.AnswerRecord{
			QuestionID:    entry.QuestionID,
			Question:      entry.Question,
			Transcription: entry.Transcription,
		})
	}
	return entries, records, nil
}

// mergeEvaluation folds per-question verdicts into the log entries. The merge
// never fails: a question the engine did not cover keeps score zero and gets
// placeholder feedback, and skipped questions keep their skip feedback.
func mergeEvaluation(entries []InterviewLogEntry, evaluation *evalengine.Evaluation) {
	for i := range entries {
		verdict, ok := evaluation.QuestionEvaluations[entries[i].QuestionID]
		if !ok {
			if entries[i].Feedback == "" {
				entries[i].Feedback = missingFeedback
			}
			continue
		}
		entries[i].Score = verdict.Score
		if verdict.Feedback != "" {
			entries[i].Feedback = verdict.Feedback
		} else if entries[i].Feedback == "" {
			entries[i].Feedback = missingFeedback
		}
		entries[i].FollowUpQuestion = verdict.FollowUpQuestion
	}
}

func (p *Processor) logStage(logger *slog.Logger, stage string) {
	logger.Info("pipeline stage",
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldEventType, "stage_transition"))
}
