package jobs

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task is one pipeline run handed to a Dispatcher.
type Task func()

// Dispatcher runs pipeline tasks detached from the caller.
// Dispatch must never block on task execution.
type Dispatcher interface {
	// Dispatch schedules task. It returns ErrDispatcherClosed after Close.
	Dispatch(task Task) error

	// Close stops accepting tasks and waits for accepted ones to finish.
	Close()

	// Status returns current dispatcher status.
	Status() PoolStatus
}

// PoolStatus reports a dispatcher's current state.
type PoolStatus struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"` // 0 means one goroutine per task
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
}

// GoDispatcher runs every task on its own goroutine.
type GoDispatcher struct {
	logger   *slog.Logger
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	inFlight atomic.Int32
}

// NewGoDispatcher creates a goroutine-per-task dispatcher.
func NewGoDispatcher(logger *slog.Logger) *GoDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoDispatcher{logger: logger.With("dispatcher", "goroutine")}
}

// Dispatch starts task on a new goroutine.
func (d *GoDispatcher) Dispatch(task Task) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.wg.Add(1)
	d.inFlight.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.inFlight.Add(-1)
		task()
	}()
	return nil
}

// Close waits for running tasks.
func (d *GoDispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
	d.logger.Debug("dispatcher closed")
}

// Status returns current dispatcher status.
func (d *GoDispatcher) Status() PoolStatus {
	return PoolStatus{
		Name:     "goroutine",
		InFlight: int(d.inFlight.Load()),
	}
}

var _ Dispatcher = (*GoDispatcher)(nil)
