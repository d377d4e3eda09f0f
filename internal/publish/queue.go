package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zfogg/brandcast/internal/logger"
	"github.com/zfogg/brandcast/internal/metrics"
	"go.uber.org/zap"
)

// ErrQueueFull means every worker is busy and the buffer is full
var ErrQueueFull = errors.New("publish queue is full")

// Processor runs one publish job
type Processor interface {
	Process(ctx context.Context, jobID string) error
}

// QueueConfig sizes the worker pool
type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

// Queue is a bounded worker pool in front of Service.Process. Job state
// lives in the database; the queue only holds IDs and drops duplicates
// already waiting or running.
type Queue struct {
	processor Processor
	jobs      chan string
	workers   int
	timeout   time.Duration

	inflight    map[string]struct{}
	inflightMux sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool

	// For testing: signals every processed job ID
	jobDone chan string
}

// NewQueue creates a queue; call Start to launch workers
func NewQueue(processor Processor, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		processor: processor,
		jobs:      make(chan string, cfg.Size),
		workers:   cfg.Workers,
		timeout:   cfg.JobTimeout,
		inflight:  make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers
func (q *Queue) Start() {
	logger.Log.Info("Starting publish queue", zap.Int("workers", q.workers), zap.Int("size", cap(q.jobs)))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops accepting jobs and waits for running ones to finish
func (q *Queue) Stop() {
	q.inflightMux.Lock()
	if q.stopped {
		q.inflightMux.Unlock()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.inflightMux.Unlock()

	q.wg.Wait()
	q.cancel()
	logger.Log.Info("Publish queue stopped")
}

// Submit queues a job without blocking. Submitting a job already queued
// or running is a no-op.
func (q *Queue) Submit(jobID string) error {
	q.inflightMux.Lock()
	defer q.inflightMux.Unlock()

	if q.stopped {
		return fmt.Errorf("publish queue stopped")
	}
	if _, ok := q.inflight[jobID]; ok {
		return nil
	}

	select {
	case q.jobs <- jobID:
		q.inflight[jobID] = struct{}{}
		metrics.Get().PublishQueueDepth.Set(float64(len(q.jobs)))
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns how many jobs are waiting for a worker
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	logger.Log.Debug("Publish worker started", zap.Int("worker_id", workerID))

	for jobID := range q.jobs {
		metrics.Get().PublishQueueDepth.Set(float64(len(q.jobs)))
		q.run(jobID)

		q.inflightMux.Lock()
		delete(q.inflight, jobID)
		q.inflightMux.Unlock()

		if q.jobDone != nil {
			select {
			case q.jobDone <- jobID:
			default:
			}
		}
	}
}

func (q *Queue) run(jobID string) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Publish worker panicked", logger.WithJobID(jobID), zap.Any("panic", r))
		}
	}()

	err := q.processor.Process(ctx, jobID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotClaimed):
		// someone else got it, or it is not due yet
		logger.Log.Debug("Skipped unclaimable job", logger.WithJobID(jobID))
	default:
		logger.Log.Warn("Publish job did not run", logger.WithJobID(jobID), zap.Error(err))
	}
}
