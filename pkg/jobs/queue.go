package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
var ErrQueueFull = errors.New("queue full")

// ErrNotRunning is returned when enqueueing on a queue that is not started.
var ErrNotRunning = errors.New("queue not running")

// Job is a unit of background work.
type Job struct {
	Kind     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// Config configures the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is doubled for every further attempt.
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue runs jobs on a fixed pool of goroutines. Stop drains what is already
// buffered before returning.
type Queue struct {
	name    string
	handler Handler
	cfg     Config

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
	retries sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewQueue builds a queue that hands every job to handler.
func NewQueue(name string, handler Handler, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice has no effect.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.running = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, cancels pending retries, runs the buffered jobs and waits
// for the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.retries.Wait()
	close(q.jobs)
	q.workers.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue blocks until the job is buffered or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	stamp(&job)
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryEnqueue buffers the job without blocking.
func (q *Queue) TryEnqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	stamp(&job)
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Pending reports the number of buffered jobs.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func stamp(job *Job) {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
}

func (q *Queue) work() {
	defer q.workers.Done()
	for job := range q.jobs {
		if err := q.handler(context.WithoutCancel(q.ctx), job); err != nil {
			q.retry(job, err)
		}
	}
}

func (q *Queue) retry(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.cfg.Logger.Error("job dropped after retries",
			zap.String("queue", q.name), zap.String("kind", job.Kind), zap.Int("attempts", job.Attempt), zap.Error(err))
		return
	}
	delay := q.cfg.RetryDelay << (job.Attempt - 1)
	q.cfg.Logger.Warn("job failed, retrying",
		zap.String("queue", q.name), zap.String("kind", job.Kind), zap.Int("attempt", job.Attempt), zap.Duration("delay", delay), zap.Error(err))

	q.mu.RLock()
	if !q.running {
		q.mu.RUnlock()
		return
	}
	q.retries.Add(1)
	q.mu.RUnlock()

	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.cfg.Logger.Warn("retry abandoned on shutdown", zap.String("queue", q.name), zap.String("kind", job.Kind))
		case <-timer.C:
			if err := q.TryEnqueue(job); err != nil {
				q.cfg.Logger.Error("failed to requeue job", zap.String("queue", q.name), zap.Error(err))
			}
		}
	}()
}
