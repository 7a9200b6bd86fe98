package models

import "time"

// JobKind names the work a background job performs.
type JobKind string

// Job kinds.
const (
	JobReport   JobKind = "report"
	JobRefine   JobKind = "refine"
	JobAnalysis JobKind = "analysis"
)

// JobStatus is the lifecycle state of a job. Pending means queued behind the
// worker semaphore; a job leaves pending only by running or being canceled.
type JobStatus string

// Job statuses.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is the observable state of one background run.
type Job struct {
	ID         string     `json:"id"`
	Kind       JobKind    `json:"kind"`
	Status     JobStatus  `json:"status"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
	Message    string     `json:"message,omitempty"`
	Params     Params     `json:"params"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j *Job) Finished() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
