package bootstrap

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/repository"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	"github.com/noah-isme/sma-scheduler-api/pkg/cache"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
	"github.com/noah-isme/sma-scheduler-api/pkg/database"
)

// Container holds the wired repositories and services shared by the API server and the run CLI.
type Container struct {
	DB    *sqlx.DB
	Redis *redis.Client

	Audit       *repository.AuditRepository
	Metrics     *service.MetricsService
	Auth        *service.AuthService
	Requests    *service.ScheduleRequestService
	Enrollments *service.EnrollmentService
	Scheduler   *service.SchedulerService
	Jobs        *service.SchedulerJobService
	Templates   *service.TimetableTemplateService
}

// NewContainer connects to PostgreSQL (and Redis when enabled) and builds every service.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}
	validate := validator.New()

	tx := database.NewTxRunner(db)
	requestRepo := repository.NewScheduleRequestRepository(db)
	scheduleRepo := repository.NewStudentScheduleRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	templateRepo := repository.NewTimetableTemplateRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logger)
	cacheSvc := service.NewCacheService(cacheRepo, "scheduler", cfg.Scheduler.JobRetention, metrics, logger)

	enrollments := service.NewEnrollmentService(tx, scheduleRepo, catalogRepo, metrics, validate, logger)
	locks := service.NewRunLockService(cacheRepo, cfg.Scheduler.LockTTL, metrics, logger)
	scheduler := service.NewSchedulerService(requestRepo, catalogRepo, enrollments, locks, metrics, validate, logger)

	return &Container{
		DB:          db,
		Redis:       redisClient,
		Audit:       repository.NewAuditRepository(db),
		Metrics:     metrics,
		Auth:        service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		Requests:    service.NewScheduleRequestService(requestRepo, catalogRepo, cfg.Scheduler.DefaultPriority, validate, logger),
		Enrollments: enrollments,
		Scheduler:   scheduler,
		Jobs: service.NewSchedulerJobService(scheduler, cacheSvc, service.SchedulerJobConfig{
			Workers:   cfg.Scheduler.JobWorkers,
			Retention: cfg.Scheduler.JobRetention,
		}, logger),
		Templates: service.NewTimetableTemplateService(templateRepo, catalogRepo, tx, validate, logger),
	}, nil
}

// ReadinessChecks returns the dependency probes used by /ready.
func (c *Container) ReadinessChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"postgres": c.DB.PingContext,
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	return checks
}

// Close releases the connections.
func (c *Container) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	_ = c.DB.Close()
}
