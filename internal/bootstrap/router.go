package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-scheduler-api/api/swagger"
	"github.com/noah-isme/sma-scheduler-api/internal/handler"
	"github.com/noah-isme/sma-scheduler-api/internal/middleware"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
	"github.com/noah-isme/sma-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-scheduler-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// NewRouter registers every route of the API.
func NewRouter(cfg *config.Config, c *Container, logr *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, middleware.SchoolHeader))
	r.Use(middleware.Metrics(c.Metrics))

	checks := make(map[string]handler.ReadinessCheck)
	for name, check := range c.ReadinessChecks() {
		checks[name] = check
	}
	ops := handler.NewMetricsHandler(c.Metrics, checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", ops.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(c.Auth), middleware.Tenant())

	readers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	writers := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(c.Audit, logr, action, resource)
	}

	requests := handler.NewScheduleRequestHandler(c.Requests)
	scheduler := handler.NewSchedulerHandler(c.Scheduler, c.Jobs)
	templates := handler.NewTemplateHandler(c.Templates)
	schedules := handler.NewStudentScheduleHandler(c.Enrollments)

	sr := api.Group("/schedule-requests")
	{
		sr.GET("", readers, requests.List)
		sr.POST("", writers, audit(models.AuditActionRequestCreate, "schedule_request"), requests.Create)
		sr.POST("/mass", writers, audit(models.AuditActionRequestMassCreate, "schedule_request"), requests.MassCreate)

		sr.GET("/templates", readers, templates.List)
		sr.POST("/templates", writers, templates.Create)
		sr.POST("/templates/apply", writers, audit(models.AuditActionTemplateApply, "timetable_template"), templates.Apply)
		sr.POST("/templates/from-section", writers, templates.FromSection)

		if cfg.Scheduler.Enabled {
			sr.POST("/scheduler/run", writers, audit(models.AuditActionSchedulerRun, "scheduler"), scheduler.Run)
			sr.POST("/scheduler/jobs", writers, audit(models.AuditActionSchedulerRun, "scheduler_job"), scheduler.SubmitJob)
			sr.GET("/scheduler/jobs/:id", readers, scheduler.GetJob)
			sr.DELETE("/scheduler/jobs/:id", writers, scheduler.CancelJob)
		}

		sr.GET("/:id", readers, requests.Get)
		sr.PUT("/:id", writers, audit(models.AuditActionRequestUpdate, "schedule_request"), requests.Update)
		sr.DELETE("/:id", writers, audit(models.AuditActionRequestDelete, "schedule_request"), requests.Delete)
	}

	ss := api.Group("/student-schedules")
	{
		ss.GET("", readers, schedules.List)
		ss.POST("", writers, audit(models.AuditActionEnroll, "student_schedule"), schedules.Enroll)
		ss.POST("/drop", writers, audit(models.AuditActionDrop, "student_schedule"), schedules.Drop)
		ss.POST("/mass", writers, audit(models.AuditActionEnroll, "student_schedule"), schedules.MassEnroll)
		ss.POST("/mass-drop", writers, audit(models.AuditActionDrop, "student_schedule"), schedules.MassDrop)
	}
	api.POST("/course-periods/:id/recompute-seats", writers, schedules.RecomputeSeats)

	return r
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logr *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logr.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// NewServer builds the HTTP server for the router.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
