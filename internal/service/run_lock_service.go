package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type lockStore interface {
	Enabled() bool
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ExtendLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// RunLockService guarantees a single active scheduler run per scope key. Redis holds the lock when
// configured; otherwise an in-process map does. A Redis lock is renewed every ttl/3 until released.
type RunLockService struct {
	store   lockStore
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger

	mu    sync.Mutex
	local map[string]string
}

// NewRunLockService constructs the lock service.
func NewRunLockService(store lockStore, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *RunLockService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunLockService{store: store, ttl: ttl, metrics: metrics, logger: logger, local: make(map[string]string)}
}

// RunLockKey renders the lock key of a run.
func RunLockKey(scope models.TenantScope, opts dto.SchedulerOptions) string {
	course := "*"
	if opts.CourseID != nil {
		course = *opts.CourseID
	}
	return fmt.Sprintf("scheduler:lock:%s:%s:%s:%s", scope.SchoolID, scope.CampusKey(), opts.AcademicYearID, course)
}

// Acquire takes the lock for the run or fails with ErrSchedulerBusy. The returned func releases it.
func (s *RunLockService) Acquire(ctx context.Context, scope models.TenantScope, opts dto.SchedulerOptions) (func(), error) {
	key := RunLockKey(scope, opts)
	token := uuid.NewString()

	if s.store != nil && s.store.Enabled() {
		ok, err := s.store.AcquireLock(ctx, key, token, s.ttl)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire scheduler lock")
		}
		if !ok {
			s.metrics.ObserveLockContention()
			return nil, appErrors.ErrSchedulerBusy
		}
		stop := make(chan struct{})
		done := make(chan struct{})
		go s.renew(context.WithoutCancel(ctx), key, token, stop, done)

		var once sync.Once
		return func() {
			once.Do(func() {
				close(stop)
				<-done
				if err := s.store.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
					s.logger.Warn("release scheduler lock failed", zap.String("key", key), zap.Error(err))
				}
			})
		}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.local[key]; held {
		s.metrics.ObserveLockContention()
		return nil, appErrors.ErrSchedulerBusy
	}
	s.local[key] = token
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.local[key] == token {
			delete(s.local, key)
		}
	}, nil
}

func (s *RunLockService) renew(ctx context.Context, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	interval := s.ttl / 3
	if interval <= 0 {
		interval = s.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ok, err := s.store.ExtendLock(ctx, key, token, s.ttl)
			if err != nil {
				s.logger.Warn("extend scheduler lock failed", zap.String("key", key), zap.Error(err))
				continue
			}
			if !ok {
				s.logger.Error("scheduler lock lost before run finished", zap.String("key", key))
				return
			}
		}
	}
}
