package interview

import (
	"time"

	"intervue/internal/evalengine"
	"intervue/internal/processor"
	"intervue/internal/sessions"
)

// Question is one entry of the session's question set as shown to callers.
type Question struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answered   bool   `json:"answered"`
}

// StartResult is the response to starting a session.
type StartResult struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	JobTitle  string     `json:"job_title"`
	Questions []Question `json:"questions"`
}

// ProcessResult acknowledges a process request. Status is "processing" when
// the session was queued and "processed" when it was evaluated inline.
type ProcessResult struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// Summary is one row of a session listing.
type Summary struct {
	SessionID string          `json:"session_id"`
	JobTitle  string          `json:"job_title"`
	Status    sessions.Status `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Details is the full view of a session. Log and Feedback stay empty until
// the session reaches a terminal status with results persisted.
type Details struct {
	Summary
	Questions []Question                    `json:"questions"`
	Log       []processor.InterviewLogEntry `json:"log,omitempty"`
	Feedback  *evalengine.FinalAssessment   `json:"feedback,omitempty"`
}
