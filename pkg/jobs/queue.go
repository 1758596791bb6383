package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrRetry asks the queue to run the job again after the retry delay.
var ErrRetry = errors.New("retry job")

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. Errors wrapping ErrRetry are retried; any other error is final.
type Handler func(context.Context, Job) error

// ExhaustedFunc is notified when a job fails for good.
type ExhaustedFunc func(Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	OnExhausted ExhaustedFunc
	Logger      *zap.Logger
}

// Queue is an in-memory job dispatcher backed by a fixed worker pool.
type Queue struct {
	name    string
	handler Handler

	workers     int
	maxRetries  int
	retryDelay  time.Duration
	onExhausted ExhaustedFunc
	logger      *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{
		name:        name,
		handler:     handler,
		workers:     cfg.Workers,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		onExhausted: cfg.OnExhausted,
		logger:      cfg.Logger,
		jobs:        make(chan Job, cfg.BufferSize),
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue pushes a job onto the queue without blocking; a full buffer is an error.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue %s is full", q.name)
	}
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
			}
		}
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if !errors.Is(err, ErrRetry) || job.Attempt > q.maxRetries {
		q.logger.Error("job failed", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))
		if q.onExhausted != nil {
			q.onExhausted(job, err)
		}
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err))

	q.wg.Add(1)
	go func(j Job) {
		defer q.wg.Done()
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("queue", q.name), zap.String("job_id", j.ID), zap.Error(err))
				if q.onExhausted != nil {
					q.onExhausted(j, err)
				}
			}
		}
	}(job)
}
