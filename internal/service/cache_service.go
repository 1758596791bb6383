package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

// CacheRepository abstracts the JSON key/value store behind shared state.
type CacheRepository interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CacheService keeps state shared between API replicas, such as background scheduler jobs, under one
// key namespace. Without a configured store every read misses and every write is dropped.
type CacheService struct {
	repo       CacheRepository
	namespace  string
	defaultTTL time.Duration
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewCacheService constructs the service. Keys are stored as "<namespace>:<key>".
func NewCacheService(repo CacheRepository, namespace string, defaultTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, namespace: namespace, defaultTTL: defaultTTL, metrics: metrics, logger: logger}
}

func (s *CacheService) active() bool {
	return s != nil && s.repo != nil && s.repo.Enabled()
}

func (s *CacheService) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// Get loads key into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.active() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, s.key(key), dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("cache get failed", zap.String("key", s.key(key)), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the default retention.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.active() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.repo.Set(ctx, s.key(key), value, ttl)
}
