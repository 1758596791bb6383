package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type schedulerRequestStore interface {
	ListPending(ctx context.Context, scope models.TenantScope, q models.PendingRequestQuery) ([]models.ScheduleRequest, error)
	MarkFulfilled(ctx context.Context, exec sqlx.ExtContext, id, coursePeriodID string) error
	MarkUnfilled(ctx context.Context, id, reason string) error
}

type schedulerCatalog interface {
	ListCandidateCoursePeriods(ctx context.Context, scope models.TenantScope, courseID, academicYearID string, markingPeriodID *string) ([]models.CoursePeriod, error)
	ListSlotsByCoursePeriods(ctx context.Context, exec sqlx.ExtContext, coursePeriodIDs []string) (map[string][]models.TimetableSlot, error)
	FindStudent(ctx context.Context, scope models.TenantScope, studentID string) (*models.StudentProfile, error)
	ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error)
}

type enroller interface {
	Enroll(ctx context.Context, scope models.TenantScope, req dto.EnrollRequest, hook EnrollHook) (*dto.EnrollResponse, error)
}

type runLocker interface {
	Acquire(ctx context.Context, scope models.TenantScope, opts dto.SchedulerOptions) (func(), error)
}

// SchedulerService assigns pending course requests to course periods.
type SchedulerService struct {
	requests  schedulerRequestStore
	catalog   schedulerCatalog
	enroller  enroller
	locker    runLocker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchedulerService constructs the orchestrator. locker may be nil when the caller serialises runs.
func NewSchedulerService(requests schedulerRequestStore, catalog schedulerCatalog, enroller enroller, locker runLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SchedulerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{requests: requests, catalog: catalog, enroller: enroller, locker: locker, metrics: metrics, validator: validate, logger: logger}
}

// Run processes every pending request of the scope and academic year. Only failing to load the
// pending list fails the run; per-request problems are reported in the response.
func (s *SchedulerService) Run(ctx context.Context, scope models.TenantScope, req dto.RunSchedulerRequest) (*dto.RunSchedulerResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduler payload")
	}
	scope, err := narrowScope(scope, req.CampusID)
	if err != nil {
		return nil, err
	}
	opts := req.Options()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, scope, opts)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	started := time.Now().UTC()
	pending, err := s.requests.ListPending(ctx, scope, models.PendingRequestQuery{
		AcademicYearID:  opts.AcademicYearID,
		CourseID:        opts.CourseID,
		MarkingPeriodID: opts.MarkingPeriodID,
		ByPriority:      opts.UsePriorityOrdering,
	})
	if err != nil {
		s.metrics.ObserveSchedulerRun("failed", time.Since(started))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending schedule requests")
	}

	s.logger.Info("scheduler run started",
		zap.String("school_id", scope.SchoolID),
		zap.String("academic_year_id", opts.AcademicYearID),
		zap.Int("pending", len(pending)))

	result := &dto.RunSchedulerResponse{
		TotalRequests: len(pending),
		Errors:        []dto.SchedulerError{},
		Details:       make([]dto.SchedulerDetail, 0, len(pending)),
		StartedAt:     started,
	}
	run := &schedulerRun{service: s, scope: scope, options: opts, availability: make(map[string][]models.TeacherAvailability)}
	// A started request runs to completion on a detached context; cancellation is checked between requests.
	work := context.WithoutCancel(ctx)

	for _, request := range pending {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		detail, err := run.process(work, request)
		if err != nil {
			s.metrics.ObserveSchedulerRequest("error")
			s.logger.Warn("schedule request left pending",
				zap.String("request_id", request.ID), zap.String("student_id", request.StudentID), zap.Error(err))
			result.Errors = append(result.Errors, dto.SchedulerError{RequestID: request.ID, StudentID: request.StudentID, Message: err.Error()})
			continue
		}
		switch detail.Status {
		case models.ScheduleRequestStatusFulfilled:
			result.Fulfilled++
			s.metrics.ObserveSchedulerRequest("fulfilled")
		case models.ScheduleRequestStatusUnfilled:
			result.Unfilled++
			s.metrics.ObserveSchedulerRequest("unfilled")
		}
		result.Details = append(result.Details, detail)
	}

	result.FinishedAt = time.Now().UTC()
	outcome := "completed"
	if result.Cancelled {
		outcome = "cancelled"
	}
	s.metrics.ObserveSchedulerRun(outcome, result.FinishedAt.Sub(started))
	s.logger.Info("scheduler run finished",
		zap.String("school_id", scope.SchoolID),
		zap.Int("fulfilled", result.Fulfilled),
		zap.Int("unfilled", result.Unfilled),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("cancelled", result.Cancelled))
	return result, nil
}

type schedulerRun struct {
	service      *SchedulerService
	scope        models.TenantScope
	options      dto.SchedulerOptions
	availability map[string][]models.TeacherAvailability
}

// process resolves, filters, ranks and enrolls one request. A returned error means an
// infrastructure failure and the request stays pending.
func (r *schedulerRun) process(ctx context.Context, request models.ScheduleRequest) (dto.SchedulerDetail, error) {
	s := r.service
	detail := dto.SchedulerDetail{
		RequestID: request.ID,
		StudentID: request.StudentID,
		CourseID:  request.CourseID,
		Priority:  request.Priority,
	}

	periods, err := s.catalog.ListCandidateCoursePeriods(ctx, r.scope, request.CourseID, request.AcademicYearID, request.MarkingPeriodID)
	if err != nil {
		return detail, err
	}
	detail.Candidates = len(periods)
	if len(periods) == 0 {
		return r.unfilled(ctx, request, detail, reasonNoCoursePeriods)
	}

	ids := make([]string, len(periods))
	for i, p := range periods {
		ids[i] = p.ID
	}
	slots, err := s.catalog.ListSlotsByCoursePeriods(ctx, nil, ids)
	if err != nil {
		return detail, err
	}
	candidates := make([]candidate, len(periods))
	for i, p := range periods {
		candidates[i] = candidate{period: p, slots: slots[p.ID]}
	}

	input := stageInput{request: request, options: r.options, availability: r.availability}
	if r.options.RespectGenderRestrictions {
		student, err := s.catalog.FindStudent(ctx, r.scope, request.StudentID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return detail, err
		}
		input.student = student
	}
	if r.options.RespectTeacherAvailability {
		if err := r.loadAvailability(ctx, periods); err != nil {
			return detail, err
		}
	}

	remaining, reason := applyStages(candidates, buildStages(input))
	if remaining == nil {
		return r.unfilled(ctx, request, detail, reasonNoMatch+": "+reason)
	}
	rankCandidates(remaining)

	var failures []string
	for _, c := range remaining {
		periodID := c.period.ID
		_, err := s.enroller.Enroll(ctx, r.scope, dto.EnrollRequest{
			StudentID:      request.StudentID,
			CourseID:       request.CourseID,
			CoursePeriodID: periodID,
			AcademicYearID: request.AcademicYearID,
			SchedulerLock:  true,
		}, func(ctx context.Context, exec sqlx.ExtContext, _ *models.StudentSchedule) error {
			return s.requests.MarkFulfilled(ctx, exec, request.ID, periodID)
		})
		if err == nil {
			detail.Status = models.ScheduleRequestStatusFulfilled
			detail.CoursePeriodID = &periodID
			s.logger.Debug("schedule request fulfilled", zap.String("request_id", request.ID), zap.String("course_period_id", periodID))
			return detail, nil
		}
		if appErrors.IsInfrastructure(err) {
			return detail, err
		}
		failures = appendUnique(failures, appErrors.FromError(err).Message)
	}
	return r.unfilled(ctx, request, detail, strings.Join(failures, "; "))
}

func (r *schedulerRun) unfilled(ctx context.Context, request models.ScheduleRequest, detail dto.SchedulerDetail, reason string) (dto.SchedulerDetail, error) {
	if err := r.service.requests.MarkUnfilled(ctx, request.ID, reason); err != nil {
		return detail, err
	}
	detail.Status = models.ScheduleRequestStatusUnfilled
	detail.Reason = reason
	r.service.logger.Debug("schedule request unfilled", zap.String("request_id", request.ID), zap.String("reason", reason))
	return detail, nil
}

func (r *schedulerRun) loadAvailability(ctx context.Context, periods []models.CoursePeriod) error {
	for _, p := range periods {
		if _, ok := r.availability[p.TeacherID]; ok {
			continue
		}
		records, err := r.service.catalog.ListTeacherAvailability(ctx, p.TeacherID)
		if err != nil {
			return err
		}
		if records == nil {
			records = []models.TeacherAvailability{}
		}
		r.availability[p.TeacherID] = records
	}
	return nil
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
