package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/jackzampolin/leaf/internal/raster"
)

// Pool runs render tasks on a fixed number of worker goroutines pulling
// from a shared priority queue. Rasterization blocks the worker, never
// the caller: Submit only enqueues.
type Pool struct {
	name        string
	logger      *slog.Logger
	workerCount int
	rasterizer  raster.Rasterizer

	queue *PriorityQueue

	// In-flight tracking
	inFlight atomic.Int32
}

// PoolConfig configures a new render pool.
type PoolConfig struct {
	Name        string
	Logger      *slog.Logger
	Rasterizer  raster.Rasterizer
	WorkerCount int // number of worker goroutines (default: runtime.NumCPU())
	QueueSize   int // queue capacity (default: 1024)
}

// NewPool creates a new render pool.
func NewPool(cfg PoolConfig) *Pool {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	name := cfg.Name
	if name == "" {
		name = "render"
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	maxQueue := cfg.QueueSize
	if maxQueue <= 0 {
		maxQueue = 1024
	}

	return &Pool{
		name:        name,
		logger:      logger.With("pool", name, "workers", workerCount),
		workerCount: workerCount,
		rasterizer:  cfg.Rasterizer,
		queue:       NewPriorityQueue(maxQueue),
	}
}

// Start begins the pool's processing. Blocks until ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("render pool starting")

	for i := 0; i < p.workerCount; i++ {
		go p.worker(ctx, i)
	}

	<-ctx.Done()
	p.logger.Info("render pool stopping")
}

// worker renders tasks from the shared queue until ctx is cancelled.
func (p *Pool) worker(ctx context.Context, id int) {
	for {
		task := p.queue.Pop(ctx.Done())
		if task == nil {
			return
		}

		p.inFlight.Add(1)
		img, err := p.rasterizer.Render(ctx, task.Doc, task.Page, task.Scale)
		p.inFlight.Add(-1)

		if err != nil {
			p.logger.Debug("render failed",
				"worker_id", id, "doc", task.Doc.ID(), "page", task.Page, "error", err)
		} else {
			p.logger.Debug("render completed",
				"worker_id", id, "doc", task.Doc.ID(), "page", task.Page, "scale", task.Scale)
		}

		select {
		case task.Reply <- Result{Task: task, Image: img, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// Submit adds a task to the pool's queue.
// Returns ErrQueueFull if the queue is at capacity.
func (p *Pool) Submit(task *Task) error {
	if err := p.queue.Push(task); err != nil {
		if errors.Is(err, ErrQueueFull) {
			p.logger.Warn("render queue full", "doc", task.Doc.ID(), "page", task.Page)
			return fmt.Errorf("%w: %s", ErrQueueFull, p.name)
		}
		return err
	}
	return nil
}

// Status reports the pool's current state.
func (p *Pool) Status() Status {
	return Status{
		Name:       p.name,
		Workers:    p.workerCount,
		InFlight:   int(p.inFlight.Load()),
		QueueDepth: p.queue.Len(),
	}
}

// Status reports a pool's current state.
type Status struct {
	Name       string `json:"name"`
	Workers    int    `json:"workers"`
	InFlight   int    `json:"in_flight"`
	QueueDepth int    `json:"queue_depth"`
}
