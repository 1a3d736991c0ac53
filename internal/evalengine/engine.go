package evalengine

import "context"

// AnswerRecord is one transcribed answer handed to the engine for scoring.
// Records are passed in question order; skipped questions carry an empty
// transcription.
type AnswerRecord struct {
	QuestionID    string `json:"question_id"`
	Question      string `json:"question"`
	Transcription string `json:"transcription"`
}

// QuestionEvaluation is the engine's verdict for a single question.
type QuestionEvaluation struct {
	Score            float64 `json:"score"`
	Feedback         string  `json:"feedback"`
	FollowUpQuestion string  `json:"follow_up_question"`
}

// SkillAssessment scores the seven fixed interview dimensions.
type SkillAssessment struct {
	Technical      float64 `json:"technical"`
	ProblemSolving float64 `json:"problem_solving"`
	Communication  float64 `json:"communication"`
	Leadership     float64 `json:"leadership"`
	Adaptability   float64 `json:"adaptability"`
	BehavioralFit  float64 `json:"behavioral_fit"`
	Confidence     float64 `json:"confidence"`
}

// FinalAssessment is the aggregate interview-level verdict, produced once per
// session and never recomputed incrementally.
type FinalAssessment struct {
	OverallScore    float64         `json:"overall_score"`
	KeyStrengths    []string        `json:"key_strengths"`
	AreasForGrowth  []string        `json:"areas_for_growth"`
	SkillAssessment SkillAssessment `json:"skill_assessment"`
}

// Evaluation is the engine's response to one batched evaluate call.
type Evaluation struct {
	QuestionEvaluations map[string]QuestionEvaluation `json:"question_evaluations"`
	FinalAssessment     FinalAssessment               `json:"final_assessment"`
}

// Engine scores an entire ordered answer set in one call and generates the
// candidate question set for new sessions. Implementations are selected once
// at startup; callers never branch between live and mock behavior inline.
type Engine interface {
	// GenerateQuestions returns exactly count candidate questions for the
	// supplied resume and job posting.
	GenerateQuestions(ctx context.Context, resume, jobTitle, jobDescription string, count int) ([]string, error)
	// Evaluate scores the full ordered answer set in a single call.
	Evaluate(ctx context.Context, jobTitle string, records []AnswerRecord) (*Evaluation, error)
}
