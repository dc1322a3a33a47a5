package endpoints

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/types"
)

// NotReadyResponse is returned when a download is requested before the job completed.
type NotReadyResponse struct {
	Error    string      `json:"error"`
	Message  string      `json:"message"`
	Status   jobs.Status `json:"status"`
	Progress float64     `json:"progress"`
}

// DocumentExport is the json download format.
type DocumentExport struct {
	Job          ExportedJob `json:"job"`
	LatexContent string      `json:"latexContent"`
	GeneratedAt  time.Time   `json:"generatedAt"`
}

// ExportedJob is the job metadata included in a DocumentExport.
type ExportedJob struct {
	ID        string                `json:"id"`
	Status    jobs.Status           `json:"status"`
	Progress  float64               `json:"progress"`
	StartTime time.Time             `json:"startTime"`
	EndTime   *time.Time            `json:"endTime,omitempty"`
	Request   types.DocumentRequest `json:"request"`
}

// requireCompleted writes the not-ready response unless job completed.
func requireCompleted(w http.ResponseWriter, job *jobs.Job) bool {
	if job.Status == jobs.StatusCompleted && job.Result != nil {
		return true
	}
	writeJSON(w, http.StatusBadRequest, NotReadyResponse{
		Error:    "Document not ready",
		Message:  fmt.Sprintf("Job status: %s. Document generation must be completed before download.", job.Status),
		Status:   job.Status,
		Progress: job.Progress,
	})
	return false
}

func attachment(w http.ResponseWriter, contentType, filename string, size int) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(size))
}

// DownloadEndpoint handles GET /api/jobs/{id}/download.
type DownloadEndpoint struct{}

func (e *DownloadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/download", e.handler
}

func (e *DownloadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download document source
//	@Description	Download the LaTeX source, or a JSON export with job metadata
//	@Tags			jobs
//	@Produce		application/x-latex
//	@Produce		json
//	@Param			id		path		string	true	"Job ID"
//	@Param			format	query		string	false	"latex (default), tex or json"
//	@Success		200		{file}		file
//	@Failure		400		{object}	NotReadyResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/api/jobs/{id}/download [get]
func (e *DownloadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "latex"
	}
	if format != "latex" && format != "tex" && format != "json" {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid format", "Supported formats: latex, tex, json")
		return
	}

	if !requireCompleted(w, job) {
		return
	}

	stem := job.Request.FileStem()
	if format == "json" {
		data, err := json.MarshalIndent(DocumentExport{
			Job: ExportedJob{
				ID:        job.ID,
				Status:    job.Status,
				Progress:  job.Progress,
				StartTime: job.StartTime,
				EndTime:   job.EndTime,
				Request:   job.Request,
			},
			LatexContent: job.Result.Document,
			GeneratedAt:  time.Now().UTC(),
		}, "", "  ")
		if err != nil {
			writeErrorMessage(w, http.StatusInternalServerError, "Internal server error", err.Error())
			return
		}
		attachment(w, "application/json", stem+".json", len(data))
		w.Write(data)
		return
	}

	doc := job.Result.Document
	attachment(w, "application/x-latex", stem+".tex", len(doc))
	w.Write([]byte(doc))
}

func (e *DownloadEndpoint) Command(getServerURL func() string) *cobra.Command {
	var format, outDir string
	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a completed document's source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, filename, err := client.Download(cmd.Context(), "/api/jobs/"+args[0]+"/download?format="+format)
			if err != nil {
				return err
			}
			return saveDownload(outDir, filename, args[0]+"."+format, data)
		},
	}
	cmd.Flags().StringVar(&format, "format", "latex", "latex, tex or json")
	cmd.Flags().StringVar(&outDir, "dir", ".", "Directory to write the file to")
	return cmd
}

// PDFEndpoint handles GET /api/jobs/{id}/pdf.
type PDFEndpoint struct{}

func (e *PDFEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/pdf", e.handler
}

func (e *PDFEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download PDF
//	@Description	Download the compiled PDF of a completed job
//	@Tags			jobs
//	@Produce		application/pdf
//	@Param			id	path		string	true	"Job ID"
//	@Success		200	{file}		file
//	@Failure		400	{object}	NotReadyResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/jobs/{id}/pdf [get]
func (e *PDFEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	job, ok := lookupJob(w, r)
	if !ok {
		return
	}
	if !requireCompleted(w, job) {
		return
	}

	if !job.Result.PDFGenerated || job.Result.PDFPath == "" {
		writeErrorMessage(w, http.StatusNotFound, "PDF not available", "PDF not available for this job")
		return
	}

	data, err := os.ReadFile(job.Result.PDFPath)
	if err != nil {
		writeErrorMessage(w, http.StatusNotFound, "PDF not available", "PDF file not found on disk")
		return
	}

	attachment(w, "application/pdf", job.Request.FileStem()+".pdf", len(data))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

func (e *PDFEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Download a completed document's PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			data, filename, err := client.Download(cmd.Context(), "/api/jobs/"+args[0]+"/pdf")
			if err != nil {
				return err
			}
			return saveDownload(outDir, filename, args[0]+".pdf", data)
		},
	}
	cmd.Flags().StringVar(&outDir, "dir", ".", "Directory to write the file to")
	return cmd
}

// saveDownload writes data under dir using the server's filename, or
// fallback when none was sent.
func saveDownload(dir, filename, fallback string, data []byte) error {
	if filename == "" {
		filename = fallback
	}
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", path, len(data))
	return nil
}
