package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/latex"
	"github.com/jackzampolin/docgen/internal/server/endpoints"
	"github.com/jackzampolin/docgen/internal/testutil"
	"github.com/jackzampolin/docgen/internal/types"
)

// TestServer_DocumentLifecycle drives a document from request to download
// through the HTTP API against the mock backend.
func TestServer_DocumentLifecycle(t *testing.T) {
	srv, cfg := newTestServer(t)
	startTestServer(t, srv, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := api.NewClient(cfg.URL())

	var created endpoints.CreateDocumentResponse
	err := client.Post(ctx, "/api/documents", types.DocumentRequest{
		Topic:      "Graph Theory",
		Complexity: types.ComplexityBeginner,
		Chapters:   3,
	}, &created)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if created.JobID == "" || created.EstimatedTime != 9 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	var status endpoints.JobStatusResponse
	for {
		if err := client.Get(ctx, "/api/jobs/"+created.JobID, &status); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if status.Status.Terminal() {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("job did not finish, last status %s at %v%%", status.Status, status.Progress)
		case <-time.After(20 * time.Millisecond):
		}
	}

	t.Run("completed without pdf", func(t *testing.T) {
		if status.Status != jobs.StatusCompleted {
			t.Fatalf("Status = %s (error %q), want completed", status.Status, status.Error)
		}
		if status.Progress != 100 || !status.HasResult {
			t.Errorf("Progress = %v HasResult = %v", status.Progress, status.HasResult)
		}
		if status.PDFAvailable || status.CompileError == "" {
			t.Errorf("PDFAvailable = %v CompileError = %q", status.PDFAvailable, status.CompileError)
		}
	})

	t.Run("source written to home", func(t *testing.T) {
		path := filepath.Join(cfg.HomeDir, "documents", created.JobID, latex.SourceFile)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s: %v", path, err)
		}
	})

	t.Run("download", func(t *testing.T) {
		data, filename, err := client.Download(ctx, "/api/jobs/"+created.JobID+"/download")
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if filename != "Graph_Theory_beginner.tex" {
			t.Errorf("filename = %q", filename)
		}
		if !strings.Contains(string(data), "Graph Theory: A Beginner Guide") {
			t.Error("document is missing its title")
		}
	})

	t.Run("pdf unavailable", func(t *testing.T) {
		_, _, err := client.Download(ctx, "/api/jobs/"+created.JobID+"/pdf")
		if err == nil {
			t.Fatal("Download() should fail without a PDF")
		}
		if !strings.Contains(err.Error(), "(404)") || !strings.Contains(err.Error(), "PDF not available for this job") {
			t.Errorf("Download() error = %v, want 404", err)
		}
	})

	t.Run("stats", func(t *testing.T) {
		var stats jobs.Stats
		if err := client.Get(ctx, "/api/jobs/stats", &stats); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if stats.Total != 1 || stats.Completed != 1 {
			t.Errorf("Stats = %+v", stats)
		}
	})

	t.Run("invalid request", func(t *testing.T) {
		err := client.Post(ctx, "/api/documents", map[string]any{
			"topic": "Go", "complexity": "beginner", "chapters": 20,
		}, nil)
		if err == nil || !strings.Contains(err.Error(), "invalid chapter count") {
			t.Errorf("Post() error = %v, want chapter count error", err)
		}
	})

	t.Run("status counts", func(t *testing.T) {
		st, err := testutil.GetStatus(cfg.URL())
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if st.Jobs.Completed != 1 {
			t.Errorf("Jobs.Completed = %d, want 1", st.Jobs.Completed)
		}
	})
}
