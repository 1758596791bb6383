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

const studentScheduleColumns = `ss.id, ss.school_id, ss.student_id, ss.course_id, ss.course_period_id, ss.academic_year_id,
ss.marking_period_id, ss.start_date, ss.end_date, ss.scheduler_lock, ss.created_at`

// StudentScheduleRepository persists enrollment rows of students in course periods.
type StudentScheduleRepository struct {
	db *sqlx.DB
}

// NewStudentScheduleRepository constructs the repository.
func NewStudentScheduleRepository(db *sqlx.DB) *StudentScheduleRepository {
	return &StudentScheduleRepository{db: db}
}

func (r *StudentScheduleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns enrollment rows in scope matching the filter.
func (r *StudentScheduleRepository) List(ctx context.Context, scope models.TenantScope, filter models.StudentScheduleFilter) ([]models.StudentSchedule, error) {
	conditions := []string{"ss.school_id = $1"}
	args := []interface{}{scope.SchoolID}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("ss.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CoursePeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("ss.course_period_id = $%d", len(args)+1))
		args = append(args, filter.CoursePeriodID)
	}
	if filter.AcademicYearID != "" {
		conditions = append(conditions, fmt.Sprintf("ss.academic_year_id = $%d", len(args)+1))
		args = append(args, filter.AcademicYearID)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "ss.end_date IS NULL")
	}
	query := fmt.Sprintf("SELECT %s FROM student_schedules ss WHERE %s ORDER BY ss.start_date ASC, ss.id ASC",
		studentScheduleColumns, strings.Join(conditions, " AND "))
	var rows []models.StudentSchedule
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student schedules: %w", err)
	}
	return rows, nil
}

// ListActiveByStudent returns the student's active enrollments in the academic year.
func (r *StudentScheduleRepository) ListActiveByStudent(ctx context.Context, exec sqlx.ExtContext, schoolID, studentID, academicYearID string) ([]models.StudentSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_schedules ss
WHERE ss.school_id = $1 AND ss.student_id = $2 AND ss.academic_year_id = $3 AND ss.end_date IS NULL
ORDER BY ss.start_date ASC, ss.id ASC`, studentScheduleColumns)
	var rows []models.StudentSchedule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rows, query, schoolID, studentID, academicYearID); err != nil {
		return nil, fmt.Errorf("list active student schedules: %w", err)
	}
	return rows, nil
}

// FindActive returns the active enrollment of a student in a course period.
func (r *StudentScheduleRepository) FindActive(ctx context.Context, exec sqlx.ExtContext, studentID, coursePeriodID string) (*models.StudentSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_schedules ss
WHERE ss.student_id = $1 AND ss.course_period_id = $2 AND ss.end_date IS NULL LIMIT 1`, studentScheduleColumns)
	var row models.StudentSchedule
	if err := sqlx.GetContext(ctx, r.exec(exec), &row, query, studentID, coursePeriodID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts an enrollment row.
func (r *StudentScheduleRepository) Create(ctx context.Context, exec sqlx.ExtContext, row *models.StudentSchedule) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if row.StartDate.IsZero() {
		row.StartDate = now
	}
	row.CreatedAt = now
	const query = `INSERT INTO student_schedules (id, school_id, student_id, course_id, course_period_id, academic_year_id,
marking_period_id, start_date, end_date, scheduler_lock, created_at)
VALUES (:id, :school_id, :student_id, :course_id, :course_period_id, :academic_year_id,
:marking_period_id, :start_date, :end_date, :scheduler_lock, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, row); err != nil {
		return fmt.Errorf("create student schedule: %w", err)
	}
	return nil
}

// SetEndDate closes an active enrollment.
func (r *StudentScheduleRepository) SetEndDate(ctx context.Context, exec sqlx.ExtContext, id string, endDate time.Time) error {
	const query = `UPDATE student_schedules SET end_date = $1 WHERE id = $2 AND end_date IS NULL`
	result, err := r.exec(exec).ExecContext(ctx, query, endDate, id)
	if err != nil {
		return fmt.Errorf("end student schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("student schedule rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecomputeFilledSeats rewrites filled_seats from the count of active rows in the course period's marking period.
func (r *StudentScheduleRepository) RecomputeFilledSeats(ctx context.Context, exec sqlx.ExtContext, coursePeriodID string) (int, error) {
	const query = `UPDATE course_periods cp SET filled_seats = (
	SELECT COUNT(*) FROM student_schedules ss
	WHERE ss.course_period_id = cp.id AND ss.end_date IS NULL
	AND ss.marking_period_id IS NOT DISTINCT FROM cp.marking_period_id
) WHERE cp.id = $1 RETURNING cp.filled_seats`
	var filled int
	if err := sqlx.GetContext(ctx, r.exec(exec), &filled, query, coursePeriodID); err != nil {
		if err == sql.ErrNoRows {
			return 0, err
		}
		return 0, fmt.Errorf("recompute filled seats: %w", err)
	}
	return filled, nil
}
