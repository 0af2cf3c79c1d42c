package models

import "time"

// RenderJob represents an asynchronous subtitle burn-in job
type RenderJob struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Request     RenderRequest `json:"request"`
	OutputKey   string        `json:"output_key,omitempty"`
	OutputURL   string        `json:"output_url,omitempty"`
	ErrorMsg    string        `json:"error_msg,omitempty"`
	WorkerID    string        `json:"worker_id,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// JobStatus constants
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// IsTerminal reports whether the job will not change status again
func (j *RenderJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
