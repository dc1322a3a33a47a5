package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/svcctx"
	"github.com/jackzampolin/docgen/internal/types"
)

// maxRequestBody caps document request payloads.
const maxRequestBody = 64 << 10

// CreateDocumentResponse is returned when a generation job is accepted.
type CreateDocumentResponse struct {
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	JobID         string                `json:"jobId"`
	EstimatedTime int                   `json:"estimatedTime"` // minutes
	Status        jobs.Status           `json:"status"`
	Progress      float64               `json:"progress"`
	Data          types.DocumentRequest `json:"data"`
}

// CreateDocumentEndpoint handles POST /api/documents.
type CreateDocumentEndpoint struct{}

func (e *CreateDocumentEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/documents", e.handler
}

func (e *CreateDocumentEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Start document generation
//	@Description	Validate the request and start a background generation job
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		types.DocumentRequest	true	"Document request"
//	@Success		202		{object}	CreateDocumentResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/documents [post]
func (e *CreateDocumentEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jm := svcctx.JobManagerFrom(r.Context())
	if jm == nil {
		writeError(w, http.StatusServiceUnavailable, "job manager not initialized")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	req, err := types.ValidateRequestJSON(raw, svcctx.LimitsFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := jm.Create(req)
	if err != nil {
		writeErrorMessage(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	w.Header().Set("Location", "/api/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, CreateDocumentResponse{
		Success:       true,
		Message:       "Document generation started successfully",
		JobID:         job.ID,
		EstimatedTime: req.EstimatedMinutes(),
		Status:        job.Status,
		Progress:      job.Progress,
		Data:          req,
	})
}

func (e *CreateDocumentEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		req  types.DocumentRequest
		lvl  string
		wait bool
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start generating a document",
		Long: `Start a document generation job on the server.

With --wait the command polls the job until it completes or fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())

			req.Complexity = types.Complexity(lvl)
			var resp CreateDocumentResponse
			if err := client.Post(ctx, "/api/documents", req, &resp); err != nil {
				return err
			}
			if !wait {
				return api.Output(resp)
			}

			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				var status JobStatusResponse
				if err := client.Get(ctx, "/api/jobs/"+resp.JobID, &status); err != nil {
					return err
				}
				if status.Status == jobs.StatusCompleted || status.Status == jobs.StatusFailed {
					if err := api.Output(status); err != nil {
						return err
					}
					if status.Status == jobs.StatusFailed {
						return fmt.Errorf("job %s failed: %s", status.JobID, status.Error)
					}
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().StringVar(&req.Topic, "topic", "", "Document topic (required)")
	cmd.Flags().StringVar(&lvl, "complexity", string(types.ComplexityBeginner), "beginner, intermediate or advanced")
	cmd.Flags().IntVar(&req.Chapters, "chapters", types.DefaultLimits().DefaultChapters, "Number of chapters")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job finishes")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}
