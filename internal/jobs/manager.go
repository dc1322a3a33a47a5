// Package jobs runs document generation jobs and keeps their state in
// memory for the lifetime of the process.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/docgen/internal/generation"
	"github.com/jackzampolin/docgen/internal/latex"
	"github.com/jackzampolin/docgen/internal/types"
)

// Generator produces outline titles and chapter content. It never fails;
// degraded output is reported in the result types.
type Generator interface {
	CheckConnectivity(ctx context.Context) bool
	RequestOutline(ctx context.Context, topic string, complexity types.Complexity, n int) generation.OutlineResult
	RequestChapterContent(ctx context.Context, spec generation.ChapterSpec) generation.ChapterResult
}

// Assembler turns ordered chapters into a full document and checks it.
type Assembler interface {
	Assemble(req types.DocumentRequest, chapters []string) string
	Validate(doc string) latex.ValidationResult
}

// Compiler produces a PDF from a document. Failure is reported in the result.
type Compiler interface {
	Compile(ctx context.Context, doc, correlationID string) latex.CompileResult
}

// DefaultChapterPause is the pause between consecutive chapter requests.
const DefaultChapterPause = 100 * time.Millisecond

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Generator  Generator
	Assembler  Assembler
	Compiler   Compiler
	Dispatcher Dispatcher // nil uses a GoDispatcher
	Logger     *slog.Logger

	// ChapterPause is slept between chapters (not after the last).
	// Zero uses DefaultChapterPause; negative disables the pause.
	ChapterPause time.Duration

	// Clock returns the current time. Nil uses time.Now.
	Clock func() time.Time
}

// Manager owns the job registry and runs a pipeline per job.
type Manager struct {
	generator  Generator
	assembler  Assembler
	compiler   Compiler
	dispatcher Dispatcher
	logger     *slog.Logger
	pause      time.Duration
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	jobs map[string]*record
}

// record is the mutable registry entry behind a Job snapshot.
// Only the pipeline that owns the record writes to job.
type record struct {
	job  Job
	done chan struct{}
}

// NewManager creates a job manager with its own empty registry.
func NewManager(cfg ManagerConfig) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewGoDispatcher(logger)
	}
	pause := cfg.ChapterPause
	if pause == 0 {
		pause = DefaultChapterPause
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		generator:  cfg.Generator,
		assembler:  cfg.Assembler,
		compiler:   cfg.Compiler,
		dispatcher: dispatcher,
		logger:     logger,
		pause:      pause,
		now:        now,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*record),
	}
}

// Create registers a pending job for req and schedules its pipeline.
// It returns without waiting for any generation work. The request is
// assumed to be valid.
func (m *Manager) Create(req types.DocumentRequest) (*Job, error) {
	rec := &record{
		job: Job{
			ID:        uuid.New().String(),
			Request:   req,
			Status:    StatusPending,
			Progress:  0,
			StartTime: m.now(),
		},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.jobs[rec.job.ID] = rec
	snapshot := rec.job.clone()
	m.mu.Unlock()

	if err := m.dispatcher.Dispatch(func() { m.run(m.ctx, rec) }); err != nil {
		m.mu.Lock()
		delete(m.jobs, rec.job.ID)
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to schedule job: %w", err)
	}

	m.logger.Info("job created",
		"job_id", snapshot.ID,
		"topic", req.Topic,
		"complexity", req.Complexity,
		"chapters", req.Chapters)
	return snapshot, nil
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.job.clone(), nil
}

// List returns snapshots of all jobs, oldest first.
func (m *Manager) List() []*Job {
	m.mu.RLock()
	out := make([]*Job, 0, len(m.jobs))
	for _, rec := range m.jobs {
		out = append(out, rec.job.clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Delete removes a job from the registry. A running pipeline keeps going
// but its updates are discarded.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.jobs, id)
	m.logger.Info("job deleted", "job_id", id)
	return nil
}

// Stats counts jobs by status.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Stats
	for _, rec := range m.jobs {
		s.Total++
		switch rec.job.Status {
		case StatusPending:
			s.Pending++
		case StatusProcessing:
			s.Processing++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Wait blocks until the job reaches a terminal status or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (*Job, error) {
	m.mu.RLock()
	rec, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	select {
	case <-rec.done:
		return m.Get(id)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DispatcherStatus reports the dispatcher's state.
func (m *Manager) DispatcherStatus() PoolStatus {
	return m.dispatcher.Status()
}

// Close cancels running pipelines and waits for them to stop.
func (m *Manager) Close() {
	m.cancel()
	m.dispatcher.Close()
}

// update applies fn to the job under the registry lock. A deleted job's
// record is no longer reachable, so its updates are invisible.
func (m *Manager) update(rec *record, fn func(j *Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&rec.job)
}

// setProgress raises progress; it never moves backwards.
func (m *Manager) setProgress(rec *record, p float64) {
	m.update(rec, func(j *Job) {
		if p > j.Progress {
			j.Progress = p
		}
	})
}
