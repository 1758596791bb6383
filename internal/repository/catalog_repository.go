package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

const coursePeriodColumns = `cp.id, cp.school_id, cp.campus_id, cp.course_id, c.title AS course_title, cp.academic_year_id,
cp.marking_period_id, cp.teacher_id, cp.section_id, cp.period_id, p.title AS period_title, cp.room_id,
cp.total_seats, cp.filled_seats, cp.gender_restriction, cp.active`

const coursePeriodFrom = `course_periods cp
JOIN courses c ON c.id = cp.course_id
LEFT JOIN school_periods p ON p.id = cp.period_id`

const timetableSlotColumns = `ts.id, ts.school_id, ts.course_period_id, ts.section_id, ts.day_of_week, ts.period_id,
p.title AS period_title, ts.room_id`

// CatalogRepository reads the course catalog, timetable, student directory and teacher availability.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListCandidateCoursePeriods returns active course periods of a course in scope. When a marking
// period is given, periods of that marking period and periods without one both qualify.
func (r *CatalogRepository) ListCandidateCoursePeriods(ctx context.Context, scope models.TenantScope, courseID, academicYearID string, markingPeriodID *string) ([]models.CoursePeriod, error) {
	conditions, args := catalogScopeConditions("cp", scope, nil)
	conditions = append(conditions, fmt.Sprintf("cp.course_id = $%d", len(args)+1))
	args = append(args, courseID)
	conditions = append(conditions, fmt.Sprintf("cp.academic_year_id = $%d", len(args)+1))
	args = append(args, academicYearID)
	conditions = append(conditions, "cp.active = TRUE")
	if markingPeriodID != nil {
		conditions = append(conditions, fmt.Sprintf("(cp.marking_period_id IS NULL OR cp.marking_period_id = $%d)", len(args)+1))
		args = append(args, *markingPeriodID)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY cp.id ASC", coursePeriodColumns, coursePeriodFrom, strings.Join(conditions, " AND "))
	var periods []models.CoursePeriod
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, fmt.Errorf("list candidate course periods: %w", err)
	}
	return periods, nil
}

// FindCoursePeriod loads a course period in scope, optionally locking the row for the transaction.
func (r *CatalogRepository) FindCoursePeriod(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, id string, forUpdate bool) (*models.CoursePeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE cp.id = $1 AND cp.school_id = $2", coursePeriodColumns, coursePeriodFrom)
	if forUpdate {
		query += " FOR UPDATE OF cp"
	}
	var period models.CoursePeriod
	if err := sqlx.GetContext(ctx, r.exec(exec), &period, query, id, scope.SchoolID); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindCoursePeriodsByIDs loads several course periods keyed by id.
func (r *CatalogRepository) FindCoursePeriodsByIDs(ctx context.Context, exec sqlx.ExtContext, ids []string) (map[string]models.CoursePeriod, error) {
	result := make(map[string]models.CoursePeriod, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE cp.id = ANY($1)", coursePeriodColumns, coursePeriodFrom)
	var periods []models.CoursePeriod
	if err := sqlx.SelectContext(ctx, r.exec(exec), &periods, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find course periods: %w", err)
	}
	for _, period := range periods {
		result[period.ID] = period
	}
	return result, nil
}

// ListSlotsByCoursePeriods returns timetable slots grouped by course period id.
func (r *CatalogRepository) ListSlotsByCoursePeriods(ctx context.Context, exec sqlx.ExtContext, coursePeriodIDs []string) (map[string][]models.TimetableSlot, error) {
	result := make(map[string][]models.TimetableSlot, len(coursePeriodIDs))
	if len(coursePeriodIDs) == 0 {
		return result, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots ts LEFT JOIN school_periods p ON p.id = ts.period_id
WHERE ts.course_period_id = ANY($1) ORDER BY ts.course_period_id, ts.day_of_week, ts.period_id`, timetableSlotColumns)
	var slots []models.TimetableSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query, pq.Array(coursePeriodIDs)); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	for _, slot := range slots {
		result[slot.CoursePeriodID] = append(result[slot.CoursePeriodID], slot)
	}
	return result, nil
}

// ListSlotsBySection returns the timetable slots attached to a section.
func (r *CatalogRepository) ListSlotsBySection(ctx context.Context, scope models.TenantScope, sectionID string) ([]models.TimetableSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM timetable_slots ts LEFT JOIN school_periods p ON p.id = ts.period_id
WHERE ts.school_id = $1 AND ts.section_id = $2 ORDER BY ts.day_of_week, ts.period_id`, timetableSlotColumns)
	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, scope.SchoolID, sectionID); err != nil {
		return nil, fmt.Errorf("list section timetable slots: %w", err)
	}
	return slots, nil
}

// InsertTimetableSlot adds a slot unless one already exists for the same course period, day and period.
func (r *CatalogRepository) InsertTimetableSlot(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) (bool, error) {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	const query = `INSERT INTO timetable_slots (id, school_id, course_period_id, section_id, day_of_week, period_id, room_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (course_period_id, day_of_week, period_id) DO NOTHING`
	result, err := r.exec(exec).ExecContext(ctx, query, slot.ID, slot.SchoolID, slot.CoursePeriodID, slot.SectionID, slot.DayOfWeek, slot.PeriodID, slot.RoomID)
	if err != nil {
		return false, fmt.Errorf("insert timetable slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("timetable slot rows affected: %w", err)
	}
	return affected > 0, nil
}

// FindStudent loads the scheduler's view of a student.
func (r *CatalogRepository) FindStudent(ctx context.Context, scope models.TenantScope, studentID string) (*models.StudentProfile, error) {
	const query = `SELECT id, school_id, gender, section_id, active FROM students WHERE id = $1 AND school_id = $2`
	var student models.StudentProfile
	if err := r.db.GetContext(ctx, &student, query, studentID, scope.SchoolID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListTeacherAvailability returns the availability records of a teacher.
func (r *CatalogRepository) ListTeacherAvailability(ctx context.Context, teacherID string) ([]models.TeacherAvailability, error) {
	const query = `SELECT teacher_id, day_of_week, period_id, status FROM teacher_availability WHERE teacher_id = $1 ORDER BY day_of_week, period_id`
	var records []models.TeacherAvailability
	if err := r.db.SelectContext(ctx, &records, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("list teacher availability: %w", err)
	}
	return records, nil
}
