package dto

import "github.com/noah-isme/sma-scheduler-api/internal/models"

// CreateScheduleRequest is the payload for a single course request.
type CreateScheduleRequest struct {
	StudentID       string  `json:"student_id" validate:"required"`
	CourseID        string  `json:"course_id" validate:"required"`
	AcademicYearID  string  `json:"academic_year_id" validate:"required"`
	MarkingPeriodID *string `json:"marking_period_id"`
	WithTeacherID   *string `json:"with_teacher_id"`
	NotTeacherID    *string `json:"not_teacher_id"`
	WithPeriodID    *string `json:"with_period_id"`
	NotPeriodID     *string `json:"not_period_id"`
	Priority        *int    `json:"priority"`
	CampusID        *string `json:"campus_id"`
}

// UpdateScheduleRequest edits preferences, priority or performs an explicit cancel/reset.
// Nil fields are left untouched.
type UpdateScheduleRequest struct {
	MarkingPeriodID *string                       `json:"marking_period_id"`
	WithTeacherID   *string                       `json:"with_teacher_id"`
	NotTeacherID    *string                       `json:"not_teacher_id"`
	WithPeriodID    *string                       `json:"with_period_id"`
	NotPeriodID     *string                       `json:"not_period_id"`
	Priority        *int                          `json:"priority"`
	Status          *models.ScheduleRequestStatus `json:"status"`
}

// MassCreateScheduleRequest creates one request per student for a shared course.
type MassCreateScheduleRequest struct {
	StudentIDs      []string `json:"student_ids" validate:"required,min=1"`
	CourseID        string   `json:"course_id" validate:"required"`
	AcademicYearID  string   `json:"academic_year_id" validate:"required"`
	MarkingPeriodID *string  `json:"marking_period_id"`
	Priority        *int     `json:"priority"`
	CampusID        *string  `json:"campus_id"`
}

// ItemError reports the failure of one item inside a batch operation.
type ItemError struct {
	StudentID string `json:"student_id,omitempty"`
	ItemID    string `json:"item_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// MassCreateScheduleResponse summarises a mass creation.
type MassCreateScheduleResponse struct {
	Created  int                      `json:"created"`
	Requests []models.ScheduleRequest `json:"requests"`
	Errors   []ItemError              `json:"errors"`
}
