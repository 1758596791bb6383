package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

const scheduleRequestColumns = `id, school_id, campus_id, student_id, course_id, academic_year_id, marking_period_id,
with_teacher_id, not_teacher_id, with_period_id, not_period_id, priority, status,
fulfilled_course_period_id, unfilled_reason, created_at, updated_at`

// ScheduleRequestRepository persists course requests.
type ScheduleRequestRepository struct {
	db *sqlx.DB
}

// NewScheduleRequestRepository constructs the repository.
func NewScheduleRequestRepository(db *sqlx.DB) *ScheduleRequestRepository {
	return &ScheduleRequestRepository{db: db}
}

func (r *ScheduleRequestRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns requests in scope matching the filter with the total count.
func (r *ScheduleRequestRepository) List(ctx context.Context, scope models.TenantScope, filter models.ScheduleRequestFilter) ([]models.ScheduleRequest, int, error) {
	conditions, args := scopeConditions("", scope, nil)
	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	clause := " WHERE " + strings.Join(conditions, " AND ")

	page, size := normalisePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM schedule_requests%s ORDER BY priority DESC, created_at ASC, id ASC LIMIT %d OFFSET %d",
		scheduleRequestColumns, clause, size, offset)
	var requests []models.ScheduleRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedule requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM schedule_requests"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedule requests: %w", err)
	}
	return requests, total, nil
}

// FindByID loads a request inside the tenant scope.
func (r *ScheduleRequestRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.ScheduleRequest, error) {
	conditions, args := scopeConditions("", scope, []interface{}{id})
	query := fmt.Sprintf("SELECT %s FROM schedule_requests WHERE id = $1 AND %s", scheduleRequestColumns, strings.Join(conditions, " AND "))
	var request models.ScheduleRequest
	if err := r.db.GetContext(ctx, &request, query, args...); err != nil {
		return nil, err
	}
	return &request, nil
}

// ExistsPending checks for another pending request of the student for the same course and year.
func (r *ScheduleRequestRepository) ExistsPending(ctx context.Context, scope models.TenantScope, studentID, courseID, academicYearID, excludeID string) (bool, error) {
	query := `SELECT 1 FROM schedule_requests WHERE school_id = $1 AND student_id = $2 AND course_id = $3 AND academic_year_id = $4 AND status = $5`
	args := []interface{}{scope.SchoolID, studentID, courseID, academicYearID, models.ScheduleRequestStatusPending}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending schedule request: %w", err)
	}
	return true, nil
}

// Create inserts a new request.
func (r *ScheduleRequestRepository) Create(ctx context.Context, exec sqlx.ExtContext, request *models.ScheduleRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ScheduleRequestStatusPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	const query = `INSERT INTO schedule_requests (id, school_id, campus_id, student_id, course_id, academic_year_id, marking_period_id,
with_teacher_id, not_teacher_id, with_period_id, not_period_id, priority, status, fulfilled_course_period_id, unfilled_reason, created_at, updated_at)
VALUES (:id, :school_id, :campus_id, :student_id, :course_id, :academic_year_id, :marking_period_id,
:with_teacher_id, :not_teacher_id, :with_period_id, :not_period_id, :priority, :status, :fulfilled_course_period_id, :unfilled_reason, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, request); err != nil {
		return fmt.Errorf("create schedule request: %w", err)
	}
	return nil
}

// Update persists editable fields of a request that is still in the expected status.
// Status columns are written only when the request changes status. ErrStaleStatus reports a lost race.
func (r *ScheduleRequestRepository) Update(ctx context.Context, request *models.ScheduleRequest, expected models.ScheduleRequestStatus) error {
	request.UpdatedAt = time.Now().UTC()
	sets := []string{"marking_period_id = $1", "with_teacher_id = $2", "not_teacher_id = $3", "with_period_id = $4", "not_period_id = $5", "priority = $6"}
	args := []interface{}{request.MarkingPeriodID, request.WithTeacherID, request.NotTeacherID, request.WithPeriodID, request.NotPeriodID, request.Priority}
	if request.Status != expected {
		sets = append(sets,
			fmt.Sprintf("status = $%d", len(args)+1),
			fmt.Sprintf("fulfilled_course_period_id = $%d", len(args)+2),
			fmt.Sprintf("unfilled_reason = $%d", len(args)+3))
		args = append(args, request.Status, request.FulfilledCoursePeriodID, request.UnfilledReason)
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, request.UpdatedAt)

	query := fmt.Sprintf("UPDATE schedule_requests SET %s WHERE id = $%d AND school_id = $%d AND status = $%d",
		strings.Join(sets, ", "), len(args)+1, len(args)+2, len(args)+3)
	args = append(args, request.ID, request.SchoolID, expected)
	return r.transition(ctx, r.db, query, args...)
}

// Delete removes a request permanently.
func (r *ScheduleRequestRepository) Delete(ctx context.Context, scope models.TenantScope, id string) error {
	const query = `DELETE FROM schedule_requests WHERE id = $1 AND school_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, scope.SchoolID)
	if err != nil {
		return fmt.Errorf("delete schedule request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListPending returns the pending pool for a scheduler run in processing order.
func (r *ScheduleRequestRepository) ListPending(ctx context.Context, scope models.TenantScope, q models.PendingRequestQuery) ([]models.ScheduleRequest, error) {
	conditions, args := scopeConditions("", scope, nil)
	conditions = append(conditions, fmt.Sprintf("academic_year_id = $%d", len(args)+1))
	args = append(args, q.AcademicYearID)
	conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
	args = append(args, models.ScheduleRequestStatusPending)
	if q.CourseID != nil {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, *q.CourseID)
	}
	if q.MarkingPeriodID != nil {
		conditions = append(conditions, fmt.Sprintf("(marking_period_id IS NULL OR marking_period_id = $%d)", len(args)+1))
		args = append(args, *q.MarkingPeriodID)
	}
	order := "created_at ASC, id ASC"
	if q.ByPriority {
		order = "priority DESC, " + order
	}
	query := fmt.Sprintf("SELECT %s FROM schedule_requests WHERE %s ORDER BY %s", scheduleRequestColumns, strings.Join(conditions, " AND "), order)
	var requests []models.ScheduleRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list pending schedule requests: %w", err)
	}
	return requests, nil
}

// MarkFulfilled moves a pending request to FULFILLED with its assigned course period.
func (r *ScheduleRequestRepository) MarkFulfilled(ctx context.Context, exec sqlx.ExtContext, id, coursePeriodID string) error {
	const query = `UPDATE schedule_requests SET status = $1, fulfilled_course_period_id = $2, unfilled_reason = NULL, updated_at = $3
WHERE id = $4 AND status = $5`
	return r.transition(ctx, r.exec(exec), query, models.ScheduleRequestStatusFulfilled, coursePeriodID, time.Now().UTC(), id, models.ScheduleRequestStatusPending)
}

// MarkUnfilled moves a pending request to UNFILLED recording the reason.
func (r *ScheduleRequestRepository) MarkUnfilled(ctx context.Context, id, reason string) error {
	const query = `UPDATE schedule_requests SET status = $1, fulfilled_course_period_id = NULL, unfilled_reason = $2, updated_at = $3
WHERE id = $4 AND status = $5`
	return r.transition(ctx, r.db, query, models.ScheduleRequestStatusUnfilled, reason, time.Now().UTC(), id, models.ScheduleRequestStatusPending)
}

func (r *ScheduleRequestRepository) transition(ctx context.Context, exec sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition schedule request: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("schedule request rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleStatus
	}
	return nil
}
