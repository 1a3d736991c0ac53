package queue

import "time"

// Status represents the lifecycle of a processing job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// AllStatuses lists every job status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
}

// Job is one unit of interview processing work. A job carries only the
// identifiers needed to locate the session; all interview state lives in the
// session store and object store.
type Job struct {
	ID             int64
	UserID         string
	SessionID      string
	Status         Status
	Attempts       int
	ErrorMessage   string
	NextAttemptAt  time.Time
	LeaseExpiresAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
