package jobs

import (
	"strings"
	"time"

	"stylesync/internal/album"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued Status = "queued"
	StatusDone   Status = "done"
)

var allStatuses = []Status{
	StatusQueued,
	StatusDone,
}

// Slider bounds applied at creation.
const (
	SliderMin     = 0
	SliderMax     = 100
	SliderDefault = 50
)

// Job is one requested generation run against an album.
type Job struct {
	ID              int64          `json:"id"`
	Album           string         `json:"album"`
	FileType        album.FileType `json:"file_type"`
	Outreach        string         `json:"outreach"`
	StyleIntensity  int            `json:"style_intensity"`
	ColorVariation  int            `json:"color_variation"`
	LayoutVariation int            `json:"layout_variation"`
	Notes           string         `json:"notes"`
	Status          Status         `json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	OutputPath      *string        `json:"output_path"`
}

// IsDone reports whether the job reached its terminal state.
func (j Job) IsDone() bool {
	return j.Status == StatusDone
}

// CreateRequest carries the caller-supplied fields of a new job.
type CreateRequest struct {
	Album           string
	Outreach        string
	StyleIntensity  int
	ColorVariation  int
	LayoutVariation int
	Notes           string
}

// CompletionEvent reports that the generation pipeline finished a job.
// OutputPath is nil when the run produced no output.
type CompletionEvent struct {
	JobID      int64
	OutputPath *string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Partition splits jobs into queued (anything not done) and done, preserving order.
func Partition(list []Job) (queued []Job, done []Job) {
	queued = []Job{}
	done = []Job{}
	for _, job := range list {
		if job.IsDone() {
			done = append(done, job)
			continue
		}
		queued = append(queued, job)
	}
	return queued, done
}

func clamp(v int) int {
	return max(SliderMin, min(SliderMax, v))
}
