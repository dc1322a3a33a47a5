package jobs

import (
	"errors"
	"time"

	"github.com/jackzampolin/docgen/internal/types"
)

// Status represents the current state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Progress checkpoints of the pipeline, in percent.
const (
	ProgressStarted     = 10
	ProgressConnected   = 20
	ProgressOutlined    = 30
	ProgressChaptersEnd = 80
	ProgressAssembled   = 85
	ProgressCompiling   = 90
	ProgressCompiled    = 95
	ProgressDone        = 100
)

var (
	// ErrNotFound is returned for unknown job ids.
	ErrNotFound = errors.New("job not found")

	// ErrDispatcherClosed is returned when a job is created after shutdown.
	ErrDispatcherClosed = errors.New("dispatcher closed")
)

// Job is a point-in-time snapshot of a generation job. Snapshots are
// copies; mutating one has no effect on the manager.
type Job struct {
	ID        string                `json:"id"`
	Request   types.DocumentRequest `json:"request"`
	Status    Status                `json:"status"`
	Progress  float64               `json:"progress"`
	StartTime time.Time             `json:"startTime"`
	EndTime   *time.Time            `json:"endTime,omitempty"`
	Result    *Result               `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// Result is attached to completed jobs only.
type Result struct {
	// Document is the assembled LaTeX source.
	Document     string `json:"latexContent"`
	PDFPath      string `json:"pdfPath,omitempty"`
	PDFGenerated bool   `json:"pdfGenerated"`
	CompileError string `json:"compileError,omitempty"`
	PageCount    int    `json:"pageCount,omitempty"`

	// Degraded paths taken while producing Document.
	FallbackOutline  bool     `json:"fallbackOutline,omitempty"`
	FallbackChapters []int    `json:"fallbackChapters,omitempty"`
	ValidationIssues []string `json:"validationIssues,omitempty"`
}

// Stats counts jobs by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Elapsed returns the job's run time: to EndTime when finished, else to now.
func (j *Job) Elapsed(now time.Time) time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime)
	}
	return now.Sub(j.StartTime)
}

// clone returns a deep copy.
func (j *Job) clone() *Job {
	c := *j
	if j.EndTime != nil {
		t := *j.EndTime
		c.EndTime = &t
	}
	if j.Result != nil {
		r := *j.Result
		r.FallbackChapters = append([]int(nil), j.Result.FallbackChapters...)
		r.ValidationIssues = append([]string(nil), j.Result.ValidationIssues...)
		c.Result = &r
	}
	return &c
}
