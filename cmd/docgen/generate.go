package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docgen/internal/api"
	"github.com/jackzampolin/docgen/internal/jobs"
	"github.com/jackzampolin/docgen/internal/server"
	"github.com/jackzampolin/docgen/internal/types"
)

var (
	genTopic      string
	genComplexity string
	genChapters   int
	genOutDir     string
)

// GenerateResult summarizes an in-process run.
type GenerateResult struct {
	JobID            string   `json:"jobId" yaml:"jobId"`
	Status           string   `json:"status" yaml:"status"`
	Elapsed          string   `json:"elapsed" yaml:"elapsed"`
	TexPath          string   `json:"texPath,omitempty" yaml:"texPath,omitempty"`
	PDFPath          string   `json:"pdfPath,omitempty" yaml:"pdfPath,omitempty"`
	PageCount        int      `json:"pageCount,omitempty" yaml:"pageCount,omitempty"`
	CompileError     string   `json:"compileError,omitempty" yaml:"compileError,omitempty"`
	FallbackOutline  bool     `json:"fallbackOutline,omitempty" yaml:"fallbackOutline,omitempty"`
	FallbackChapters []int    `json:"fallbackChapters,omitempty" yaml:"fallbackChapters,omitempty"`
	ValidationIssues []string `json:"validationIssues,omitempty" yaml:"validationIssues,omitempty"`
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a document without running the server",
	Long: `Run one generation job in-process and write the results locally.

The same configuration as 'docgen serve' applies: inference backend,
prompt overrides and LaTeX settings. The .tex source is always written;
the .pdf only when the LaTeX engine succeeds.

Examples:
  docgen generate --topic "Graph Theory"
  docgen generate --topic "Rust ownership" --complexity advanced --chapters 8 --out ./docs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		h, err := getHome()
		if err != nil {
			return err
		}
		cm, err := getConfigManager(h, logger)
		if err != nil {
			return err
		}

		limits := cm.Get().Limits()
		chapters := genChapters
		if chapters == 0 {
			chapters = limits.DefaultChapters
		}
		req := types.DocumentRequest{
			Topic:      strings.TrimSpace(genTopic),
			Complexity: types.Complexity(strings.ToLower(genComplexity)),
			Chapters:   chapters,
		}
		if err := req.Validate(limits); err != nil {
			return err
		}

		svc := server.BuildServices(server.ServicesConfig{
			ConfigManager: cm,
			Home:          h,
			Logger:        logger,
		})
		defer svc.JobManager.Close()

		if name, _, err := svc.Registry.Active(); err == nil {
			logger.Info("using inference backend", "backend", name, "model", svc.Registry.Model())
		}

		job, err := svc.JobManager.Create(req)
		if err != nil {
			return err
		}
		logger.Info("job created", "job_id", job.ID, "estimated_minutes", req.EstimatedMinutes())

		job, err = waitWithProgress(ctx, logger, svc.JobManager, job.ID)
		if err != nil {
			return err
		}
		if job.Status == jobs.StatusFailed {
			return fmt.Errorf("generation failed: %s", job.Error)
		}

		res, err := writeArtifacts(job, genOutDir)
		if err != nil {
			return err
		}
		return api.Output(res)
	},
}

// waitWithProgress blocks until the job is terminal, logging progress changes.
func waitWithProgress(ctx context.Context, logger *slog.Logger, jm *jobs.Manager, id string) (*jobs.Job, error) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		last := -1.0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if j, err := jm.Get(id); err == nil && j.Progress != last {
					last = j.Progress
					logger.Info("progress", "job_id", id, "status", j.Status, "progress", j.Progress)
				}
			}
		}
	}()
	defer close(done)
	return jm.Wait(ctx, id)
}

// writeArtifacts copies the job's source and PDF into dir.
func writeArtifacts(job *jobs.Job, dir string) (GenerateResult, error) {
	res := GenerateResult{
		JobID:  job.ID,
		Status: string(job.Status),
	}
	if job.EndTime != nil {
		res.Elapsed = job.EndTime.Sub(job.StartTime).Round(time.Second).String()
	}
	r := job.Result
	if r == nil {
		return res, fmt.Errorf("job %s completed without a result", job.ID)
	}
	res.CompileError = r.CompileError
	res.PageCount = r.PageCount
	res.FallbackOutline = r.FallbackOutline
	res.FallbackChapters = r.FallbackChapters
	res.ValidationIssues = r.ValidationIssues

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}
	stem := job.Request.FileStem()

	res.TexPath = filepath.Join(dir, stem+".tex")
	if err := os.WriteFile(res.TexPath, []byte(r.Document), 0o644); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", res.TexPath, err)
	}

	if r.PDFGenerated && r.PDFPath != "" {
		data, err := os.ReadFile(r.PDFPath)
		if err != nil {
			return res, fmt.Errorf("failed to read compiled PDF: %w", err)
		}
		res.PDFPath = filepath.Join(dir, stem+".pdf")
		if err := os.WriteFile(res.PDFPath, data, 0o644); err != nil {
			return res, fmt.Errorf("failed to write %s: %w", res.PDFPath, err)
		}
	}
	return res, nil
}

func init() {
	generateCmd.Flags().StringVar(&genTopic, "topic", "", "Document topic (required)")
	generateCmd.Flags().StringVar(&genComplexity, "complexity", string(types.ComplexityIntermediate), "beginner, intermediate or advanced")
	generateCmd.Flags().IntVar(&genChapters, "chapters", 0, "Number of chapters (default: generation.default_chapters)")
	generateCmd.Flags().StringVar(&genOutDir, "out", ".", "Directory to write the .tex and .pdf to")
	_ = generateCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(generateCmd)
}
