package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/repository"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type scheduleRequestRepository interface {
	List(ctx context.Context, scope models.TenantScope, filter models.ScheduleRequestFilter) ([]models.ScheduleRequest, int, error)
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.ScheduleRequest, error)
	ExistsPending(ctx context.Context, scope models.TenantScope, studentID, courseID, academicYearID, excludeID string) (bool, error)
	Create(ctx context.Context, exec sqlx.ExtContext, request *models.ScheduleRequest) error
	Update(ctx context.Context, request *models.ScheduleRequest, expected models.ScheduleRequestStatus) error
	Delete(ctx context.Context, scope models.TenantScope, id string) error
}

type studentDirectory interface {
	FindStudent(ctx context.Context, scope models.TenantScope, studentID string) (*models.StudentProfile, error)
}

// ScheduleRequestService manages the lifecycle of course requests outside scheduler runs.
type ScheduleRequestService struct {
	repo            scheduleRequestRepository
	students        studentDirectory
	defaultPriority int
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewScheduleRequestService constructs the service.
func NewScheduleRequestService(repo scheduleRequestRepository, students studentDirectory, defaultPriority int, validate *validator.Validate, logger *zap.Logger) *ScheduleRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleRequestService{repo: repo, students: students, defaultPriority: defaultPriority, validator: validate, logger: logger}
}

// List returns requests of an academic year with pagination metadata.
func (s *ScheduleRequestService) List(ctx context.Context, scope models.TenantScope, filter models.ScheduleRequestFilter) ([]models.ScheduleRequest, *models.Pagination, error) {
	if !scope.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if filter.AcademicYearID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	requests, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule requests")
	}
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a single request.
func (s *ScheduleRequestService) Get(ctx context.Context, scope models.TenantScope, id string) (*models.ScheduleRequest, error) {
	request, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule request")
	}
	return request, nil
}

// Create registers a new pending request.
func (s *ScheduleRequestService) Create(ctx context.Context, scope models.TenantScope, req dto.CreateScheduleRequest) (*models.ScheduleRequest, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule request payload")
	}
	target, err := narrowScope(scope, req.CampusID)
	if err != nil {
		return nil, err
	}
	priority := s.defaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}
	request := &models.ScheduleRequest{
		SchoolID:        scope.SchoolID,
		CampusID:        target.CampusID,
		StudentID:       req.StudentID,
		CourseID:        req.CourseID,
		AcademicYearID:  req.AcademicYearID,
		MarkingPeriodID: req.MarkingPeriodID,
		WithTeacherID:   req.WithTeacherID,
		NotTeacherID:    req.NotTeacherID,
		WithPeriodID:    req.WithPeriodID,
		NotPeriodID:     req.NotPeriodID,
		Priority:        priority,
		Status:          models.ScheduleRequestStatusPending,
	}
	if err := s.create(ctx, scope, request); err != nil {
		return nil, err
	}
	s.logger.Debug("schedule request created", zap.String("request_id", request.ID), zap.String("student_id", request.StudentID))
	return request, nil
}

// MassCreate creates one request per student. Rejected students are reported without aborting the batch.
func (s *ScheduleRequestService) MassCreate(ctx context.Context, scope models.TenantScope, req dto.MassCreateScheduleRequest) (*dto.MassCreateScheduleResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mass schedule request payload")
	}
	target, err := narrowScope(scope, req.CampusID)
	if err != nil {
		return nil, err
	}
	priority := s.defaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}

	result := &dto.MassCreateScheduleResponse{Requests: []models.ScheduleRequest{}, Errors: []dto.ItemError{}}
	seen := make(map[string]struct{}, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, dup := seen[studentID]; dup {
			continue
		}
		seen[studentID] = struct{}{}
		if studentID == "" {
			result.Errors = append(result.Errors, dto.ItemError{Code: appErrors.ErrValidation.Code, Message: "student_id is required"})
			continue
		}
		request := &models.ScheduleRequest{
			SchoolID:        scope.SchoolID,
			CampusID:        target.CampusID,
			StudentID:       studentID,
			CourseID:        req.CourseID,
			AcademicYearID:  req.AcademicYearID,
			MarkingPeriodID: req.MarkingPeriodID,
			Priority:        priority,
			Status:          models.ScheduleRequestStatusPending,
		}
		if err := s.create(ctx, scope, request); err != nil {
			if appErrors.IsInfrastructure(err) {
				return nil, err
			}
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.ItemError{StudentID: studentID, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		result.Created++
		result.Requests = append(result.Requests, *request)
	}
	s.logger.Info("schedule requests mass created",
		zap.String("course_id", req.CourseID), zap.Int("created", result.Created), zap.Int("rejected", len(result.Errors)))
	return result, nil
}

func (s *ScheduleRequestService) create(ctx context.Context, scope models.TenantScope, request *models.ScheduleRequest) error {
	if _, err := s.students.FindStudent(ctx, scope, request.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsPending(ctx, scope, request.StudentID, request.CourseID, request.AcademicYearID, "")
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate schedule request")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "a pending request already exists for this student and course")
	}
	if err := s.repo.Create(ctx, nil, request); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule request")
	}
	return nil
}

// Update edits preferences and priority, and performs explicit cancel or reset transitions.
func (s *ScheduleRequestService) Update(ctx context.Context, scope models.TenantScope, id string, req dto.UpdateScheduleRequest) (*models.ScheduleRequest, error) {
	request, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	expected := request.Status
	if req.MarkingPeriodID != nil {
		request.MarkingPeriodID = emptyToNil(req.MarkingPeriodID)
	}
	if req.WithTeacherID != nil {
		request.WithTeacherID = emptyToNil(req.WithTeacherID)
	}
	if req.NotTeacherID != nil {
		request.NotTeacherID = emptyToNil(req.NotTeacherID)
	}
	if req.WithPeriodID != nil {
		request.WithPeriodID = emptyToNil(req.WithPeriodID)
	}
	if req.NotPeriodID != nil {
		request.NotPeriodID = emptyToNil(req.NotPeriodID)
	}
	if req.Priority != nil {
		request.Priority = *req.Priority
	}
	if req.Status != nil && *req.Status != request.Status {
		if err := s.transition(ctx, scope, request, *req.Status); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, request, expected); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "schedule request was changed by another operation, reload and retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule request")
	}
	return request, nil
}

func (s *ScheduleRequestService) transition(ctx context.Context, scope models.TenantScope, request *models.ScheduleRequest, target models.ScheduleRequestStatus) error {
	switch target {
	case models.ScheduleRequestStatusCancelled:
		if request.Status != models.ScheduleRequestStatusPending {
			return appErrors.Clone(appErrors.ErrConflict, "only pending requests can be cancelled")
		}
	case models.ScheduleRequestStatusPending:
		exists, err := s.repo.ExistsPending(ctx, scope, request.StudentID, request.CourseID, request.AcademicYearID, request.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate schedule request")
		}
		if exists {
			return appErrors.Clone(appErrors.ErrConflict, "a pending request already exists for this student and course")
		}
		request.FulfilledCoursePeriodID = nil
		request.UnfilledReason = nil
	case models.ScheduleRequestStatusFulfilled, models.ScheduleRequestStatusUnfilled:
		return appErrors.Clone(appErrors.ErrValidation, "fulfilled and unfilled statuses are set by the scheduler")
	default:
		return appErrors.Clone(appErrors.ErrValidation, "invalid status")
	}
	request.Status = target
	return nil
}

// Delete removes a request.
func (s *ScheduleRequestService) Delete(ctx context.Context, scope models.TenantScope, id string) error {
	if err := s.repo.Delete(ctx, scope, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule request")
	}
	return nil
}

// narrowScope applies a payload campus to the session scope.
func narrowScope(scope models.TenantScope, campusID *string) (models.TenantScope, error) {
	narrowed, ok := scope.Narrow(campusID)
	if !ok {
		return scope, appErrors.Clone(appErrors.ErrForbidden, "campus is outside the session scope")
	}
	return narrowed, nil
}

func emptyToNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}
