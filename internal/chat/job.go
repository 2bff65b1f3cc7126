package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one asynchronous legacy chat reply.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	Prompt   string `gorm:"type:text;not null"`
	Provider string `gorm:"type:varchar(32);not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);uniqueIndex:uniq_job_idempo" json:"idempotency_key"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	Reply *string `gorm:"type:text"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "chat_jobs" }

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == JobSucceeded || j.Status == JobFailed
}
