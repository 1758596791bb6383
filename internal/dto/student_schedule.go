package dto

import (
	"time"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// EnrollRequest adds a student to a course period.
type EnrollRequest struct {
	StudentID      string     `json:"student_id" validate:"required"`
	CourseID       string     `json:"course_id" validate:"required"`
	CoursePeriodID string     `json:"course_period_id" validate:"required"`
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
	SchedulerLock  bool       `json:"scheduler_lock"`
}

// DropRequest ends a student's active enrollment in a course period.
type DropRequest struct {
	StudentID      string     `json:"student_id" validate:"required"`
	CoursePeriodID string     `json:"course_period_id" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
}

// MassEnrollRequest enrolls many students into the same course period.
type MassEnrollRequest struct {
	StudentIDs     []string   `json:"student_ids" validate:"required,min=1"`
	CourseID       string     `json:"course_id" validate:"required"`
	CoursePeriodID string     `json:"course_period_id" validate:"required"`
	AcademicYearID string     `json:"academic_year_id" validate:"required"`
	StartDate      *time.Time `json:"start_date"`
}

// MassDropRequest drops many students from the same course period.
type MassDropRequest struct {
	StudentIDs     []string   `json:"student_ids" validate:"required,min=1"`
	CoursePeriodID string     `json:"course_period_id" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
}

// MassEnrollmentResponse summarises a mass enroll/drop.
type MassEnrollmentResponse struct {
	Processed   int         `json:"processed"`
	FilledSeats int         `json:"filled_seats"`
	Errors      []ItemError `json:"errors"`
}

// RecomputeSeatsResponse reports the recomputed counter.
type RecomputeSeatsResponse struct {
	CoursePeriodID string `json:"course_period_id"`
	FilledSeats    int    `json:"filled_seats"`
}

// StudentScheduleQuery lists a student's enrollment rows.
type StudentScheduleQuery struct {
	StudentID      string `form:"student_id"`
	AcademicYearID string `form:"academic_year_id"`
	ActiveOnly     bool   `form:"active_only"`
}

// EnrollResponse wraps the created row.
type EnrollResponse struct {
	Schedule    models.StudentSchedule `json:"schedule"`
	FilledSeats int                    `json:"filled_seats"`
}
