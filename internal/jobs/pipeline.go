package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/jackzampolin/docgen/internal/generation"
	"github.com/jackzampolin/docgen/internal/latex"
)

// ErrBackendUnreachable fails a job whose inference backend does not answer
// the connectivity probe.
var ErrBackendUnreachable = errors.New("failed to connect to inference service")

// run drives one job from pending to a terminal status.
func (m *Manager) run(ctx context.Context, rec *record) {
	// ID and Request never change after Create, so they are read unlocked.
	logger := m.logger.With("job_id", rec.job.ID)

	defer close(rec.done)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			m.fail(rec, logger, fmt.Errorf("internal error: %v", r))
		}
	}()

	start := time.Now()
	result, err := m.execute(ctx, rec, logger)
	if err != nil {
		m.fail(rec, logger, err)
		return
	}

	end := m.now()
	m.update(rec, func(j *Job) {
		j.Progress = ProgressDone
		j.Status = StatusCompleted
		j.EndTime = &end
		j.Result = result
	})

	if result.PDFGenerated {
		logger.Info("document generation completed",
			"pdf", result.PDFPath,
			"pages", result.PageCount,
			"duration", time.Since(start))
	} else {
		logger.Warn("document generated but PDF compilation failed",
			"error", result.CompileError,
			"duration", time.Since(start))
	}
}

// execute runs the pipeline steps and returns the job result. Any error
// fails the job.
func (m *Manager) execute(ctx context.Context, rec *record, logger *slog.Logger) (*Result, error) {
	req := rec.job.Request
	id := rec.job.ID

	m.update(rec, func(j *Job) {
		j.Status = StatusProcessing
	})
	m.setProgress(rec, ProgressStarted)
	logger.Info("starting document generation")

	if m.generator == nil {
		return nil, errors.New("no generator configured")
	}
	if !m.generator.CheckConnectivity(ctx) {
		return nil, ErrBackendUnreachable
	}
	m.setProgress(rec, ProgressConnected)

	outline := m.generator.RequestOutline(ctx, req.Topic, req.Complexity, req.Chapters)
	titles := outline.Titles
	if len(titles) == 0 {
		return nil, errors.New("outline contained no chapters")
	}
	m.setProgress(rec, ProgressOutlined)
	logger.Info("outline ready", "chapters", len(titles), "fallback", outline.Fallback)

	result := &Result{FallbackOutline: outline.Fallback}
	chapters := make([]string, 0, len(titles))
	completed := make([]string, 0, len(titles))
	n := len(titles)

	for i, title := range titles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		index := i + 1

		ch := m.generator.RequestChapterContent(ctx, generation.ChapterSpec{
			Topic:      req.Topic,
			Title:      title,
			Complexity: req.Complexity,
			Index:      index,
			Total:      n,
			Prior:      append([]string(nil), completed...),
			Outline:    titles,
		})
		if ch.Fallback {
			result.FallbackChapters = append(result.FallbackChapters, index)
		}
		chapters = append(chapters, ch.Content)
		completed = append(completed, title)

		m.setProgress(rec, ProgressOutlined+float64(index)/float64(n)*(ProgressChaptersEnd-ProgressOutlined))
		logger.Info("chapter completed", "chapter", index, "of", n, "title", title, "fallback", ch.Fallback)

		if index < n && m.pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.pause):
			}
		}
	}

	m.setProgress(rec, ProgressAssembled)
	if m.assembler == nil {
		return nil, errors.New("no assembler configured")
	}
	doc := m.assembler.Assemble(req, chapters)
	result.Document = doc

	if v := m.assembler.Validate(doc); !v.Valid {
		result.ValidationIssues = v.Issues
		logger.Warn("document validation reported issues", "issues", v.Issues)
	}

	m.setProgress(rec, ProgressCompiling)
	compiled := latex.CompileResult{Error: "no compiler configured"}
	if m.compiler != nil {
		compiled = m.compiler.Compile(ctx, doc, id)
	}
	result.PDFGenerated = compiled.Success
	result.PDFPath = compiled.PDFPath
	result.CompileError = compiled.Error
	result.PageCount = compiled.PageCount

	m.setProgress(rec, ProgressCompiled)
	return result, nil
}

// fail marks the job failed. No partial result is kept.
func (m *Manager) fail(rec *record, logger *slog.Logger, err error) {
	end := m.now()
	m.update(rec, func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.EndTime = &end
		j.Result = nil
	})
	logger.Error("document generation failed", "error", err)
}
