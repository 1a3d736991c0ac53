package sessions

import (
	"strings"
	"time"
)

// Status represents the lifecycle of an interview session. Transitions are
// monotonic toward a terminal value: once completed or failed a session never
// returns to in_progress.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var statusSet = map[Status]struct{}{
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status permits no further processing.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Session is one mock-interview attempt by one user against one job posting.
// The document references point into the object store; MappingRef is mutable
// while answers arrive, LogRef and FeedbackRef are set only at terminal
// writeback.
type Session struct {
	ID                string
	UserID            string
	JobTitle          string
	JobDescriptionRef string
	ResumeRef         string
	MappingRef        string
	LogRef            string
	FeedbackRef       string
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// QuestionMappingEntry is one row of the session's question mapping document:
// the authoritative input to processing. AnswerAudio is empty until the user
// uploads an answer for the question.
type QuestionMappingEntry struct {
	QuestionID  string `json:"question_id"`
	Question    string `json:"question"`
	AnswerAudio string `json:"answer_audio"`
}
