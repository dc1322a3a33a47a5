package jobs

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// WorkerPool runs tasks on a fixed number of workers.
// All workers share a single FIFO queue. The queue is unbounded, so
// Dispatch never blocks: jobs wait as pending until a worker is free.
type WorkerPool struct {
	name        string
	logger      *slog.Logger
	workerCount int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Task
	closed bool

	wg       sync.WaitGroup
	inFlight atomic.Int32
}

// WorkerPoolConfig configures a new worker pool.
type WorkerPoolConfig struct {
	Name        string
	Logger      *slog.Logger
	WorkerCount int // Number of worker goroutines (default: 1)
}

// NewWorkerPool creates a worker pool and starts its workers.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "pipeline"
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
	}

	p := &WorkerPool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
	}
	p.cond = sync.NewCond(&p.mu)

	p.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go p.worker(i)
	}
	p.logger.Info("worker pool started")
	return p
}

// worker runs tasks from the shared queue until the pool is closed and drained.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for {
		task, ok := p.next()
		if !ok {
			p.logger.Debug("worker stopped", "worker_id", id)
			return
		}
		p.inFlight.Add(1)
		task()
		p.inFlight.Add(-1)
	}
}

func (p *WorkerPool) next() (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}
	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return task, true
}

// Dispatch adds a task to the queue.
func (p *WorkerPool) Dispatch(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrDispatcherClosed
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	p.logger.Debug("pool accepted task", "queue_len", len(p.queue))
	return nil
}

// Close stops accepting tasks, lets workers drain the queue and waits.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
	p.logger.Info("pool stopped")
}

// Name returns the pool name.
func (p *WorkerPool) Name() string {
	return p.name
}

// Status returns current pool status.
func (p *WorkerPool) Status() PoolStatus {
	p.mu.Lock()
	depth := len(p.queue)
	p.mu.Unlock()
	return PoolStatus{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: depth,
	}
}

// Verify interface compliance
var _ Dispatcher = (*WorkerPool)(nil)
