package endpoints

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/svcctx"
	"github.com/jackzampolin/docgen/internal/types"
)

// JobStatusResponse is the polling view of a job. It carries sizes and
// flags instead of the document itself.
type JobStatusResponse struct {
	Success     bool                  `json:"success"`
	JobID       string                `json:"jobId"`
	Status      jobs.Status           `json:"status"`
	Progress    float64               `json:"progress"`
	StartTime   time.Time             `json:"startTime"`
	EndTime     *time.Time            `json:"endTime,omitempty"`
	ElapsedTime string                `json:"elapsedTime"`
	Request     types.DocumentRequest `json:"request"`
	Error       string                `json:"error,omitempty"`
	HasResult   bool                  `json:"hasResult"`
	ResultSize  int                   `json:"resultSize"`

	PDFAvailable     bool     `json:"pdfAvailable"`
	PageCount        int      `json:"pageCount,omitempty"`
	CompileError     string   `json:"compileError,omitempty"`
	FallbackOutline  bool     `json:"fallbackOutline,omitempty"`
	FallbackChapters []int    `json:"fallbackChapters,omitempty"`
	ValidationIssues []string `json:"validationIssues,omitempty"`
}

// newJobStatusResponse builds the polling view of job as of now.
func newJobStatusResponse(job *jobs.Job, now time.Time) JobStatusResponse {
	resp := JobStatusResponse{
		Success:     true,
		JobID:       job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		StartTime:   job.StartTime,
		EndTime:     job.EndTime,
		ElapsedTime: formatElapsed(job.Elapsed(now)),
		Request:     job.Request,
		Error:       job.Error,
	}
	if res := job.Result; res != nil {
		resp.HasResult = true
		resp.ResultSize = len(res.Document)
		resp.PDFAvailable = res.PDFGenerated && res.PDFPath != ""
		resp.PageCount = res.PageCount
		resp.CompileError = res.CompileError
		resp.FallbackOutline = res.FallbackOutline
		resp.FallbackChapters = res.FallbackChapters
		resp.ValidationIssues = res.ValidationIssues
	}
	return resp
}

// formatElapsed renders d as whole minutes, e.g. "1 minute", "3 minutes".
func formatElapsed(d time.Duration) string {
	m := int(math.Round(d.Minutes()))
	if m == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}

// lookupJob resolves the {id} path value, writing the error response itself.
func lookupJob(w http.ResponseWriter, r *http.Request) (*jobs.Job, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Job ID is required")
		return nil, false
	}

	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return nil, false
	}

	job, err := jm.Get(id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeErrorMessage(w, http.StatusNotFound, "Job not found", "No job found with ID: "+id)
			return nil, false
		}
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return nil, false
	}
	return job, true
}

// GetJobEndpoint handles GET /api/jobs/{id}.
type GetJobEndpoint struct{}

func (e *GetJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}", e.handler
}

func (e *GetJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Get job status
//	@Description	Poll a generation job's status and progress
//	@Tags			jobs
//	@Produce		json
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{object}	JobStatusResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/jobs/{id} [get]
func (e *GetJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newJobStatusResponse(job, time.Now()))
}

func (e *GetJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a job's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp JobStatusResponse
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ListJobsResponse is the response for listing jobs.
type ListJobsResponse struct {
	Jobs []JobStatusResponse `json:"jobs"`
}

// ListJobsEndpoint handles GET /api/jobs.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs", e.handler
}

func (e *ListJobsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List jobs
//	@Description	List all jobs, oldest first, optionally filtered by status
//	@Tags			jobs
//	@Produce		json
//	@Param			status	query		string	false	"Filter by status"
//	@Success		200		{object}	ListJobsResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/jobs [get]
func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	filter := jobs.Status(r.URL.Query().Get("status"))
	now := time.Now()
	resp := ListJobsResponse{Jobs: make([]JobStatusResponse, 0)}
	for _, job := range jm.List() {
		if filter != "" && job.Status != filter {
			continue
		}
		resp.Jobs = append(resp.Jobs, newJobStatusResponse(job, now))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			path := "/api/jobs"
			if status != "" {
				path += "?status=" + status
			}
			var resp ListJobsResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, processing, completed, failed)")
	return cmd
}

// JobStatsEndpoint handles GET /api/jobs/stats.
type JobStatsEndpoint struct{}

func (e *JobStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/stats", e.handler
}

func (e *JobStatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Job statistics
//	@Description	Count jobs by status
//	@Tags			jobs
//	@Produce		json
//	@Success		200	{object}	jobs.Stats
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/jobs/stats [get]
func (e *JobStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}
	writeJSON(w, http.StatusOK, jm.Stats())
}

func (e *JobStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count jobs by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp jobs.Stats
			if err := client.Get(cmd.Context(), "/api/jobs/stats", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteJobEndpoint handles DELETE /api/jobs/{id}.
type DeleteJobEndpoint struct{}

func (e *DeleteJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "DELETE", "/api/jobs/{id}", e.handler
}

func (e *DeleteJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Delete job
//	@Description	Remove a job from the registry. A running pipeline is not interrupted.
//	@Tags			jobs
//	@Param			id	path	string	true	"Job ID"
//	@Success		204
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/jobs/{id} [delete]
func (e *DeleteJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	if err := jm.Delete(id); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			writeErrorMessage(w, http.StatusNotFound, "Job not found", "No job found with ID: "+id)
			return
		}
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *DeleteJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			if err := client.Delete(cmd.Context(), "/api/jobs/"+args[0]); err != nil {
				return err
			}
			fmt.Println("Job deleted successfully")
			return nil
		},
	}
}
