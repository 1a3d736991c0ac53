package sessions

import (
	"fmt"

	"github.com/google/uuid"
)

// Object-store keys for per-session artifacts. Mapping, log, and feedback
// documents get a fresh object per write so a reference always denotes an
// immutable snapshot; only the session row's pointer moves.

func sessionPrefix(userID, sessionID string) string {
	return fmt.Sprintf("users/%s/sessions/%s", userID, sessionID)
}

// MappingKey returns a new object key for a question-mapping snapshot.
func MappingKey(userID, sessionID string) string {
	return fmt.Sprintf("%s/mapping-%s.json", sessionPrefix(userID, sessionID), uuid.NewString())
}

// AnswerAudioKey returns the blob key for one question's answer audio.
func AnswerAudioKey(userID, sessionID, questionID string) string {
	return fmt.Sprintf("%s/audio/%s", sessionPrefix(userID, sessionID), questionID)
}

// ResumeKey returns the blob key for the session's resume.
func ResumeKey(userID, sessionID string) string {
	return fmt.Sprintf("%s/data/resume.txt", sessionPrefix(userID, sessionID))
}

// JobDescriptionKey returns the blob key for the session's job description.
func JobDescriptionKey(userID, sessionID string) string {
	return fmt.Sprintf("%s/data/job_description.txt", sessionPrefix(userID, sessionID))
}

// InterviewLogKey returns a new object key for a merged interview log.
func InterviewLogKey(userID, sessionID string) string {
	return fmt.Sprintf("%s/log-%s.json", sessionPrefix(userID, sessionID), uuid.NewString())
}

// FeedbackKey returns a new object key for a final assessment document.
func FeedbackKey(userID, sessionID string) string {
	return fmt.Sprintf("%s/feedback-%s.json", sessionPrefix(userID, sessionID), uuid.NewString())
}
