package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/jobs"
)

const schedulerJobType = "scheduler.run"

type schedulerRunner interface {
	Run(ctx context.Context, scope models.TenantScope, req dto.RunSchedulerRequest) (*dto.RunSchedulerResponse, error)
}

type jobStateCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type schedulerJobPayload struct {
	Scope   models.TenantScope
	Request dto.RunSchedulerRequest
}

// SchedulerJobConfig tunes background scheduler runs.
type SchedulerJobConfig struct {
	Workers    int
	Retention  time.Duration
	RetryDelay time.Duration
}

// SchedulerJobService runs the scheduler in the background and tracks pollable job state.
type SchedulerJobService struct {
	runner    schedulerRunner
	cache     jobStateCache
	queue     *jobs.Queue
	retention time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	jobs    map[string]*dto.SchedulerJob
	cancels map[string]context.CancelFunc
}

// NewSchedulerJobService constructs the service and its worker queue.
func NewSchedulerJobService(runner schedulerRunner, cache jobStateCache, cfg SchedulerJobConfig, logger *zap.Logger) *SchedulerJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	s := &SchedulerJobService{
		runner:    runner,
		cache:     cache,
		retention: cfg.Retention,
		logger:    logger,
		jobs:      make(map[string]*dto.SchedulerJob),
		cancels:   make(map[string]context.CancelFunc),
	}
	s.queue = jobs.NewQueue("scheduler", s.handle, jobs.QueueConfig{
		Workers:     cfg.Workers,
		MaxRetries:  5,
		RetryDelay:  cfg.RetryDelay,
		OnExhausted: s.exhausted,
		Logger:      logger,
	})
	return s
}

// Start launches the workers.
func (s *SchedulerJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the workers and waits for in-flight runs.
func (s *SchedulerJobService) Stop() {
	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.queue.Stop()
}

// Submit enqueues a background run.
func (s *SchedulerJobService) Submit(ctx context.Context, scope models.TenantScope, req dto.RunSchedulerRequest) (*dto.SchedulerJob, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if req.AcademicYearID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required")
	}
	if _, err := narrowScope(scope, req.CampusID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	job := &dto.SchedulerJob{
		ID:         uuid.NewString(),
		SchoolID:   scope.SchoolID,
		Status:     dto.SchedulerJobQueued,
		Request:    req,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	s.mu.Lock()
	s.purgeLocked(now)
	s.jobs[job.ID] = job
	s.mu.Unlock()
	s.persist(ctx, job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: schedulerJobType, Payload: schedulerJobPayload{Scope: scope, Request: req}}); err != nil {
		s.update(job.ID, func(j *dto.SchedulerJob) {
			j.Status = dto.SchedulerJobFailed
			j.Error = err.Error()
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue scheduler run")
	}
	return s.snapshot(job.ID), nil
}

// Get returns the state of a job of the school.
func (s *SchedulerJobService) Get(ctx context.Context, scope models.TenantScope, id string) (*dto.SchedulerJob, error) {
	if job := s.snapshot(id); job != nil {
		if job.SchoolID != scope.SchoolID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduler job not found")
		}
		return job, nil
	}
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduler job not found")
	}
	var cached dto.SchedulerJob
	hit, err := s.cache.Get(ctx, jobCacheKey(id), &cached)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduler job")
	}
	if !hit || cached.SchoolID != scope.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduler job not found")
	}
	return &cached, nil
}

// Cancel stops a queued job immediately or a running job after its current request.
func (s *SchedulerJobService) Cancel(ctx context.Context, scope models.TenantScope, id string) (*dto.SchedulerJob, error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.SchoolID != scope.SchoolID {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduler job not found")
	}
	switch job.Status {
	case dto.SchedulerJobQueued:
		job.Status = dto.SchedulerJobCancelled
		job.UpdatedAt = time.Now().UTC()
	case dto.SchedulerJobRunning:
		if cancel, ok := s.cancels[id]; ok {
			cancel()
		}
	default:
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "scheduler job already finished")
	}
	s.mu.Unlock()

	snapshot := s.snapshot(id)
	s.persist(ctx, snapshot)
	return snapshot, nil
}

func (s *SchedulerJobService) handle(ctx context.Context, queued jobs.Job) error {
	payload, ok := queued.Payload.(schedulerJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", queued.Payload)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	job, ok := s.jobs[queued.ID]
	if !ok || job.Status == dto.SchedulerJobCancelled {
		s.mu.Unlock()
		return nil
	}
	job.Status = dto.SchedulerJobRunning
	job.UpdatedAt = time.Now().UTC()
	s.cancels[queued.ID] = cancel
	s.mu.Unlock()
	s.persist(ctx, s.snapshot(queued.ID))

	result, err := s.runner.Run(runCtx, payload.Scope, payload.Request)

	s.mu.Lock()
	delete(s.cancels, queued.ID)
	s.mu.Unlock()

	if errors.Is(err, appErrors.ErrSchedulerBusy) {
		s.update(queued.ID, func(j *dto.SchedulerJob) { j.Status = dto.SchedulerJobQueued })
		return fmt.Errorf("%v: %w", err, jobs.ErrRetry)
	}
	s.update(queued.ID, func(j *dto.SchedulerJob) {
		switch {
		case err != nil:
			j.Status = dto.SchedulerJobFailed
			j.Error = err.Error()
		case result.Cancelled:
			j.Status = dto.SchedulerJobCancelled
			j.Result = result
		default:
			j.Status = dto.SchedulerJobCompleted
			j.Result = result
		}
	})
	s.logger.Info("scheduler job finished", zap.String("job_id", queued.ID), zap.String("status", string(s.snapshot(queued.ID).Status)))
	return nil
}

func (s *SchedulerJobService) exhausted(queued jobs.Job, err error) {
	s.update(queued.ID, func(j *dto.SchedulerJob) {
		j.Status = dto.SchedulerJobFailed
		j.Error = err.Error()
	})
}

func (s *SchedulerJobService) update(id string, mutate func(*dto.SchedulerJob)) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if ok {
		mutate(job)
		job.UpdatedAt = time.Now().UTC()
	}
	s.mu.Unlock()
	if ok {
		s.persist(context.Background(), s.snapshot(id))
	}
}

func (s *SchedulerJobService) snapshot(id string) *dto.SchedulerJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (s *SchedulerJobService) persist(ctx context.Context, job *dto.SchedulerJob) {
	if job == nil || s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, jobCacheKey(job.ID), job, s.retention); err != nil {
		s.logger.Warn("persist scheduler job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *SchedulerJobService) purgeLocked(now time.Time) {
	for id, job := range s.jobs {
		switch job.Status {
		case dto.SchedulerJobQueued, dto.SchedulerJobRunning:
			continue
		}
		if now.Sub(job.UpdatedAt) > s.retention {
			delete(s.jobs, id)
		}
	}
}

func jobCacheKey(id string) string {
	return "job:" + id
}
