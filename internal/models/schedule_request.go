package models

import "time"

// ScheduleRequestStatus tracks the lifecycle of a course request.
type ScheduleRequestStatus string

// Possible schedule request statuses. Only PENDING is non-terminal.
const (
	ScheduleRequestStatusPending   ScheduleRequestStatus = "PENDING"
	ScheduleRequestStatusFulfilled ScheduleRequestStatus = "FULFILLED"
	ScheduleRequestStatusUnfilled  ScheduleRequestStatus = "UNFILLED"
	ScheduleRequestStatusCancelled ScheduleRequestStatus = "CANCELLED"
)

// Valid reports whether the status is one of the known values.
func (s ScheduleRequestStatus) Valid() bool {
	switch s {
	case ScheduleRequestStatusPending, ScheduleRequestStatusFulfilled, ScheduleRequestStatusUnfilled, ScheduleRequestStatusCancelled:
		return true
	}
	return false
}

// ScheduleRequest is one student's wish to take one course.
type ScheduleRequest struct {
	ID                      string                `db:"id" json:"id"`
	SchoolID                string                `db:"school_id" json:"school_id"`
	CampusID                *string               `db:"campus_id" json:"campus_id,omitempty"`
	StudentID               string                `db:"student_id" json:"student_id"`
	CourseID                string                `db:"course_id" json:"course_id"`
	AcademicYearID          string                `db:"academic_year_id" json:"academic_year_id"`
	MarkingPeriodID         *string               `db:"marking_period_id" json:"marking_period_id,omitempty"`
	WithTeacherID           *string               `db:"with_teacher_id" json:"with_teacher_id,omitempty"`
	NotTeacherID            *string               `db:"not_teacher_id" json:"not_teacher_id,omitempty"`
	WithPeriodID            *string               `db:"with_period_id" json:"with_period_id,omitempty"`
	NotPeriodID             *string               `db:"not_period_id" json:"not_period_id,omitempty"`
	Priority                int                   `db:"priority" json:"priority"`
	Status                  ScheduleRequestStatus `db:"status" json:"status"`
	FulfilledCoursePeriodID *string               `db:"fulfilled_course_period_id" json:"fulfilled_course_period_id,omitempty"`
	UnfilledReason          *string               `db:"unfilled_reason" json:"unfilled_reason,omitempty"`
	CreatedAt               time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time             `db:"updated_at" json:"updated_at"`
}

// ScheduleRequestFilter captures list filters for schedule requests.
type ScheduleRequestFilter struct {
	AcademicYearID string
	StudentID      string
	CourseID       string
	Status         ScheduleRequestStatus
	Page           int
	PageSize       int
}

// PendingRequestQuery selects the pending pool for one scheduler run.
type PendingRequestQuery struct {
	AcademicYearID  string
	CourseID        *string
	MarkingPeriodID *string
	ByPriority      bool
}
