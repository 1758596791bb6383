package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/pkg/database"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn database.TxFunc) error
}

type studentScheduleRepository interface {
	List(ctx context.Context, scope models.TenantScope, filter models.StudentScheduleFilter) ([]models.StudentSchedule, error)
	ListActiveByStudent(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, academicYearID string) ([]models.StudentSchedule, error)
	FindActive(ctx context.Context, exec sqlx.ExtContext, studentID, coursePeriodID string) (*models.StudentSchedule, error)
	Create(ctx context.Context, exec sqlx.ExtContext, row *models.StudentSchedule) error
	SetEndDate(ctx context.Context, exec sqlx.ExtContext, id string, endDate time.Time) error
	RecomputeFilledSeats(ctx context.Context, exec sqlx.ExtContext, coursePeriodID string) (int, error)
}

type coursePeriodReader interface {
	FindCoursePeriod(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, id string, forUpdate bool) (*models.CoursePeriod, error)
	FindCoursePeriodsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string]models.CoursePeriod, error)
	ListSlotsByCoursePeriods(ctx context.Context, exec sqlx.ExtContext, coursePeriodIDs []string) (map[string][]models.TimetableSlot, error)
}

// EnrollHook runs inside the enrollment transaction after the seat counter was recomputed.
// Returning an error rolls the enrollment back.
type EnrollHook func(ctx context.Context, exec sqlx.ExtContext, schedule *models.StudentSchedule) error

// EnrollmentService commits student schedule rows while keeping seat counters consistent.
type EnrollmentService struct {
	tx        txRunner
	schedules studentScheduleRepository
	catalog   coursePeriodReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(tx txRunner, schedules studentScheduleRepository, catalog coursePeriodReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		tx:        tx,
		schedules: schedules,
		catalog:   catalog,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Enroll adds the student to the course period. The seat, conflict and duplicate checks, the insert,
// the seat recompute and the optional hook share one transaction.
func (s *EnrollmentService) Enroll(ctx context.Context, scope models.TenantScope, req dto.EnrollRequest, hook EnrollHook) (*dto.EnrollResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	startDate := s.now()
	if req.StartDate != nil {
		startDate = req.StartDate.UTC()
	}

	var result dto.EnrollResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
		period, err := s.lockCoursePeriod(ctx, exec, scope, req.CoursePeriodID)
		if err != nil {
			return err
		}
		if period.CourseID != req.CourseID {
			return appErrors.Clone(appErrors.ErrValidation, "course period does not belong to course")
		}
		if period.Full() {
			return appErrors.Clone(appErrors.ErrCapacity, "course period is full")
		}
		if err := s.checkConflicts(ctx, exec, scope, req.StudentID, req.AcademicYearID, *period); err != nil {
			return err
		}
		if _, err := s.schedules.FindActive(ctx, exec, req.StudentID, period.ID); err == nil {
			return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "student already enrolled in course period")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
		}

		row := &models.StudentSchedule{
			SchoolID:        scope.SchoolID,
			StudentID:       req.StudentID,
			CourseID:        period.CourseID,
			CoursePeriodID:  period.ID,
			AcademicYearID:  req.AcademicYearID,
			MarkingPeriodID: period.MarkingPeriodID,
			StartDate:       startDate,
			SchedulerLock:   req.SchedulerLock,
		}
		if err := s.schedules.Create(ctx, exec, row); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student schedule")
		}
		filled, err := s.schedules.RecomputeFilledSeats(ctx, exec, period.ID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute filled seats")
		}
		if period.TotalSeats != nil && filled > *period.TotalSeats {
			return appErrors.Clone(appErrors.ErrCapacity, "course period is full")
		}
		if hook != nil {
			if err := hook(ctx, exec, row); err != nil {
				return err
			}
		}
		result = dto.EnrollResponse{Schedule: *row, FilledSeats: filled}
		return nil
	})
	s.metrics.ObserveEnrollment("enroll", err)
	if err != nil {
		return nil, s.normalise(err, "failed to enroll student")
	}
	s.logger.Debug("student enrolled",
		zap.String("student_id", req.StudentID), zap.String("course_period_id", req.CoursePeriodID), zap.Int("filled_seats", result.FilledSeats))
	return &result, nil
}

// Drop ends the student's active enrollment in the course period and recomputes its seats.
func (s *EnrollmentService) Drop(ctx context.Context, scope models.TenantScope, req dto.DropRequest) (int, error) {
	if !scope.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	var filled int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
		if _, err := s.lockCoursePeriod(ctx, exec, scope, req.CoursePeriodID); err != nil {
			return err
		}
		if err := s.endEnrollment(ctx, exec, req.StudentID, req.CoursePeriodID, req.EndDate); err != nil {
			return err
		}
		var err error
		filled, err = s.schedules.RecomputeFilledSeats(ctx, exec, req.CoursePeriodID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute filled seats")
		}
		return nil
	})
	s.metrics.ObserveEnrollment("drop", err)
	if err != nil {
		return 0, s.normalise(err, "failed to drop student")
	}
	return filled, nil
}

// MassEnroll enrolls each student independently, collecting rejections.
func (s *EnrollmentService) MassEnroll(ctx context.Context, scope models.TenantScope, req dto.MassEnrollRequest) (*dto.MassEnrollmentResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mass enrollment payload")
	}
	result := &dto.MassEnrollmentResponse{Errors: []dto.ItemError{}}
	for _, studentID := range uniqueStrings(req.StudentIDs) {
		enrolled, err := s.Enroll(ctx, scope, dto.EnrollRequest{
			StudentID:      studentID,
			CourseID:       req.CourseID,
			CoursePeriodID: req.CoursePeriodID,
			AcademicYearID: req.AcademicYearID,
			StartDate:      req.StartDate,
		}, nil)
		if err != nil {
			if appErrors.IsInfrastructure(err) {
				return nil, err
			}
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.ItemError{StudentID: studentID, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		result.Processed++
		result.FilledSeats = enrolled.FilledSeats
	}
	if result.Processed == 0 {
		filled, err := s.RecomputeSeats(ctx, scope, req.CoursePeriodID)
		if err != nil {
			if appErrors.IsInfrastructure(err) {
				return nil, err
			}
			s.logger.Warn("recompute after rejected mass enrollment failed",
				zap.String("course_period_id", req.CoursePeriodID), zap.Error(err))
		}
		result.FilledSeats = filled
	}
	return result, nil
}

// MassDrop ends the enrollments of many students and recomputes the counter once at the end.
func (s *EnrollmentService) MassDrop(ctx context.Context, scope models.TenantScope, req dto.MassDropRequest) (*dto.MassEnrollmentResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mass drop payload")
	}
	if _, err := s.catalog.FindCoursePeriod(ctx, nil, scope, req.CoursePeriodID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course period")
	}

	result := &dto.MassEnrollmentResponse{Errors: []dto.ItemError{}}
	for _, studentID := range uniqueStrings(req.StudentIDs) {
		err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
			return s.endEnrollment(ctx, exec, studentID, req.CoursePeriodID, req.EndDate)
		})
		s.metrics.ObserveEnrollment("drop", err)
		if err != nil {
			if appErrors.IsInfrastructure(err) {
				return nil, s.normalise(err, "failed to drop student")
			}
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.ItemError{StudentID: studentID, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		result.Processed++
	}

	filled, err := s.RecomputeSeats(ctx, scope, req.CoursePeriodID)
	if err != nil {
		return nil, err
	}
	result.FilledSeats = filled
	return result, nil
}

// ListStudentSchedules returns the enrollment rows of a student.
func (s *EnrollmentService) ListStudentSchedules(ctx context.Context, scope models.TenantScope, query dto.StudentScheduleQuery) ([]models.StudentSchedule, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if query.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	rows, err := s.schedules.List(ctx, scope, models.StudentScheduleFilter{
		StudentID:      query.StudentID,
		AcademicYearID: query.AcademicYearID,
		ActiveOnly:     query.ActiveOnly,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student schedules")
	}
	return rows, nil
}

// RecomputeSeats rewrites filled_seats of a course period from its live enrollment rows.
func (s *EnrollmentService) RecomputeSeats(ctx context.Context, scope models.TenantScope, coursePeriodID string) (int, error) {
	var filled int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
		if _, err := s.lockCoursePeriod(ctx, exec, scope, coursePeriodID); err != nil {
			return err
		}
		var err error
		filled, err = s.schedules.RecomputeFilledSeats(ctx, exec, coursePeriodID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute filled seats")
		}
		return nil
	})
	if err != nil {
		return 0, s.normalise(err, "failed to recompute filled seats")
	}
	return filled, nil
}

func (s *EnrollmentService) lockCoursePeriod(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, id string) (*models.CoursePeriod, error) {
	period, err := s.catalog.FindCoursePeriod(ctx, exec, scope, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course period")
	}
	return period, nil
}

func (s *EnrollmentService) endEnrollment(ctx context.Context, exec sqlx.ExtContext, studentID, coursePeriodID string, endDate *time.Time) error {
	active, err := s.schedules.FindActive(ctx, exec, studentID, coursePeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "active enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	end := s.now()
	if endDate != nil {
		end = endDate.UTC()
	}
	if end.Before(active.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "end_date must not precede start_date")
	}
	if err := s.schedules.SetEndDate(ctx, exec, active.ID, end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "active enrollment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end enrollment")
	}
	return nil
}

// checkConflicts rejects the enrollment when any timetable slot of the target overlaps a slot of
// another active enrollment of the student in a shared marking period.
func (s *EnrollmentService) checkConflicts(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, studentID, academicYearID string, target models.CoursePeriod) error {
	active, err := s.schedules.ListActiveByStudent(ctx, exec, scope.SchoolID, studentID, academicYearID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}
	ids := make([]string, 0, len(active)+1)
	ids = append(ids, target.ID)
	for _, row := range active {
		if row.CoursePeriodID != target.ID {
			ids = append(ids, row.CoursePeriodID)
		}
	}
	if len(ids) == 1 {
		return nil
	}
	periods, err := s.catalog.FindCoursePeriodsByIDs(ctx, exec, ids[1:])
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled course periods")
	}
	slots, err := s.catalog.ListSlotsByCoursePeriods(ctx, exec, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slots")
	}
	targetSlots := effectiveSlots(target, slots[target.ID])

	var conflicts []string
	for _, id := range ids[1:] {
		other, ok := periods[id]
		if !ok || !sharesMarkingPeriod(target, other) {
			continue
		}
		if slotsOverlap(targetSlots, effectiveSlots(other, slots[id])) {
			conflicts = append(conflicts, other.Label())
		}
	}
	if len(conflicts) == 0 {
		return nil
	}
	sort.Strings(conflicts)
	return appErrors.Clone(appErrors.ErrConflict, "schedule conflict with "+strings.Join(conflicts, ", "))
}

func (s *EnrollmentService) normalise(err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// effectiveSlots returns the timetable slots of a course period, falling back to an every-day
// slot on its own period when the timetable has none.
func effectiveSlots(period models.CoursePeriod, slots []models.TimetableSlot) []models.TimetableSlot {
	if len(slots) > 0 || period.PeriodID == nil {
		return slots
	}
	return []models.TimetableSlot{{
		CoursePeriodID: period.ID,
		SectionID:      period.SectionID,
		DayOfWeek:      models.EveryDay,
		PeriodID:       *period.PeriodID,
		PeriodTitle:    period.PeriodTitle,
		RoomID:         period.RoomID,
	}}
}

func slotsOverlap(a, b []models.TimetableSlot) bool {
	for _, left := range a {
		for _, right := range b {
			if left.Overlaps(right) {
				return true
			}
		}
	}
	return false
}

func sharesMarkingPeriod(a, b models.CoursePeriod) bool {
	if a.MarkingPeriodID == nil || b.MarkingPeriodID == nil {
		return true
	}
	return *a.MarkingPeriodID == *b.MarkingPeriodID
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
