package api

import "fmt"

// JobOutcome names the result of an action addressed at one job.
type JobOutcome string

const (
	JobCreated   JobOutcome = "created"
	JobRequeued  JobOutcome = "requeued"
	JobCompleted JobOutcome = "completed"
	JobAccepted  JobOutcome = "accepted"
	JobNotFound  JobOutcome = "not_found"
)

// JobActionResult reports what happened to the addressed job. Job is the
// created, re-queued, or completed job and is nil for JobNotFound and
// JobAccepted.
type JobActionResult struct {
	ID      int64      `json:"id"`
	Outcome JobOutcome `json:"outcome"`
	Notice  string     `json:"notice"`
	Job     *Job       `json:"job,omitempty"`
}

// Found reports whether the addressed job existed.
func (r JobActionResult) Found() bool {
	return r.Outcome != JobNotFound
}

func jobNotFoundNotice(id int64) string {
	return fmt.Sprintf("Job #%d not found.", id)
}

func notFoundResult(id int64) JobActionResult {
	return JobActionResult{ID: id, Outcome: JobNotFound, Notice: jobNotFoundNotice(id)}
}
