// Package questions produces the question set for a new interview session:
// a fixed introduction followed by generated questions tailored to the
// candidate's resume and the job posting.
package questions

import (
	"context"
	"fmt"
	"log/slog"

	"intervue/internal/evalengine"
	"intervue/internal/logging"
	"intervue/internal/sessions"
)

// IntroQuestion opens every session. It is never generated by the model so
// the first entry of every mapping is stable across sessions.
const IntroQuestion = "Hello and welcome! It's great to have you here today. I'm Alex, and I'm looking forward to our conversation. To start things off, could you please introduce yourself and share a bit about your career journey? Feel free to include any experiences or achievements that you believe would be important for us to know as we begin the interview."

// fallbackQuestions fill out the set when the engine returns fewer questions
// than requested, so every session carries exactly maxQuestions + 1 entries.
var fallbackQuestions = []string{
	"What interests you most about this role, and why do you believe you would be a strong fit?",
	"Tell me about a challenging problem you worked on recently. What made it difficult and how did you approach it?",
	"Describe a time you received critical feedback. How did you respond, and what changed afterward?",
	"Where do you want to grow over the next few years, and how does this role fit into that path?",
}

// Generator builds session question sets through the evaluation engine.
type Generator struct {
	engine       evalengine.Engine
	maxQuestions int
	logger       *slog.Logger
}

// NewGenerator constructs a generator that asks the engine for maxQuestions
// tailored questions per session.
func NewGenerator(engine evalengine.Engine, maxQuestions int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		engine:       engine,
		maxQuestions: maxQuestions,
		logger:       logging.NewComponentLogger(logger, "questions"),
	}
}

// Generate returns the full ordered question set for a session: the fixed
// introduction followed by exactly maxQuestions generated questions, each
// with a deterministic question id. An over-long engine response is
// truncated and a short one is padded with fallback questions. A failure
// here leaves no session behind, so callers must invoke it before
// persisting anything.
func (g *Generator) Generate(ctx context.Context, userID, sessionID, resume, jobTitle, jobDescription string) ([]sessions.QuestionMappingEntry, error) {
	generated, err := g.engine.GenerateQuestions(ctx, resume, jobTitle, jobDescription, g.maxQuestions)
	if err != nil {
		return nil, err
	}
	if len(generated) > g.maxQuestions {
		generated = generated[:g.maxQuestions]
	}
	if len(generated) < g.maxQuestions {
		g.logger.Warn("engine returned a short question set",
			logging.String(logging.FieldSessionID, sessionID),
			logging.Int("generated", len(generated)),
			logging.Int("requested", g.maxQuestions))
		for n := 0; len(generated) < g.maxQuestions; n++ {
			generated = append(generated, fallbackQuestions[n%len(fallbackQuestions)])
		}
	}

	all := append([]string{IntroQuestion}, generated...)
	entries := make([]sessions.QuestionMappingEntry, len(all))
	for i, question := range all {
		entries[i] = sessions.QuestionMappingEntry{
			QuestionID: QuestionID(userID, sessionID, i+1),
			Question:   question,
		}
	}
	g.logger.Info("question set generated",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String(logging.FieldUserID, userID),
		logging.Int("question_count", len(entries)))
	return entries, nil
}

// QuestionID derives the stable identifier for the counter-th question of a
// session: the first eight characters of the user and session ids joined with
// a 1-based ordinal.
func QuestionID(userID, sessionID string, counter int) string {
	return fmt.Sprintf("%s-%s-%d", prefix(userID), prefix(sessionID), counter)
}

func prefix(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
