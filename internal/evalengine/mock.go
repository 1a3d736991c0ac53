package evalengine

import (
	"context"
	"fmt"

	"intervue/internal/services"
)

// MockEngine returns deterministic canned payloads for local development and
// tests. No network calls are made.
type MockEngine struct{}

// NewMock constructs a mock engine.
func NewMock() *MockEngine {
	return &MockEngine{}
}

var mockQuestionPool = []string{
	"Can you elaborate on a project where you had to migrate infrastructure to a cloud provider and how you ensured the transition was seamless?",
	"Describe a scenario where you worked collaboratively with a cross-functional team to obtain data-driven insights that drove business growth.",
	"How do you stay up-to-date with the latest trends and advancements in your field?",
	"Have you had the opportunity to lead and mentor a team? How did you ensure their professional growth?",
	"Can you discuss a time when you had to solve a complex problem under a tight deadline? How did you approach it?",
	"Describe a situation where you had to implement observability and monitoring in a project. What tools did you use?",
	"Can you share an example where you had to adapt quickly to a new technology or tool in a project?",
	"How do you evaluate the success and performance of your projects?",
	"Can you discuss a challenging interpersonal issue you faced in a team setting and how you resolved it?",
	"How do you balance innovation with maintaining operational efficiency in your projects?",
	"What strategies do you use to foster a continuous learning environment within a team?",
	"Describe a time when you implemented a strategy that resulted in significant business impact.",
}

// GenerateQuestions returns count questions from a fixed pool, cycling when
// count exceeds the pool size.
func (m *MockEngine) GenerateQuestions(ctx context.Context, resume, jobTitle, jobDescription string, count int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "generate_questions", "question count must be positive", nil)
	}
	questions := make([]string, count)
	for i := range questions {
		questions[i] = mockQuestionPool[i%len(mockQuestionPool)]
	}
	return questions, nil
}

// Evaluate produces a canned evaluation covering every supplied record.
// Answered records score 7, skipped records score 0.
func (m *MockEngine) Evaluate(ctx context.Context, jobTitle string, records []AnswerRecord) (*Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, services.Wrap(services.ErrValidation, "evalengine", "evaluate", "no answer records supplied", nil)
	}
	evaluations := make(map[string]QuestionEvaluation, len(records))
	answered := 0
	for _, record := range records {
		if record.Transcription == "" {
			evaluations[record.QuestionID] = QuestionEvaluation{
				Score:    0,
				Feedback: "No response provided.",
			}
			continue
		}
		answered++
		evaluations[record.QuestionID] = QuestionEvaluation{
			Score:            7,
			Feedback:         "The candidate gave a structured answer with relevant detail, though the response could be strengthened with a concrete example and measurable outcomes.",
			FollowUpQuestion: fmt.Sprintf("Could you walk through a specific example that illustrates your answer to: %s", record.Question),
		}
	}
	overall := 0.0
	if answered > 0 {
		overall = 7
	}
	return &Evaluation{
		QuestionEvaluations: evaluations,
		FinalAssessment: FinalAssessment{
			OverallScore:   overall,
			KeyStrengths:   []string{"Clear communication", "Structured reasoning"},
			AreasForGrowth: []string{"Provide concrete examples", "Quantify impact"},
			SkillAssessment: SkillAssessment{
				Technical:      overall,
				ProblemSolving: overall,
				Communication:  overall,
				Leadership:     overall,
				Adaptability:   overall,
				BehavioralFit:  overall,
				Confidence:     overall,
			},
		},
	}, nil
}
