package dto

import (
	"time"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// RunSchedulerRequest configures one scheduler run. Unset toggles default to true.
type RunSchedulerRequest struct {
	AcademicYearID             string  `json:"academic_year_id" yaml:"academic_year_id" validate:"required"`
	CampusID                   *string `json:"campus_id" yaml:"campus_id"`
	MarkingPeriodID            *string `json:"marking_period_id" yaml:"marking_period_id"`
	CourseID                   *string `json:"course_id" yaml:"course_id"`
	RespectTeacherAvailability *bool   `json:"respect_teacher_availability" yaml:"respect_teacher_availability"`
	RespectRoomCapacity        *bool   `json:"respect_room_capacity" yaml:"respect_room_capacity"`
	RespectGenderRestrictions  *bool   `json:"respect_gender_restrictions" yaml:"respect_gender_restrictions"`
	UsePriorityOrdering        *bool   `json:"use_priority_ordering" yaml:"use_priority_ordering"`
	StrictPreferences          bool    `json:"strict_preferences" yaml:"strict_preferences"`
}

// SchedulerOptions is the resolved form of RunSchedulerRequest.
type SchedulerOptions struct {
	AcademicYearID             string
	MarkingPeriodID            *string
	CourseID                   *string
	RespectTeacherAvailability bool
	RespectRoomCapacity        bool
	RespectGenderRestrictions  bool
	UsePriorityOrdering        bool
	StrictPreferences          bool
}

// Options resolves defaults.
func (r RunSchedulerRequest) Options() SchedulerOptions {
	return SchedulerOptions{
		AcademicYearID:             r.AcademicYearID,
		MarkingPeriodID:            r.MarkingPeriodID,
		CourseID:                   r.CourseID,
		RespectTeacherAvailability: boolOrTrue(r.RespectTeacherAvailability),
		RespectRoomCapacity:        boolOrTrue(r.RespectRoomCapacity),
		RespectGenderRestrictions:  boolOrTrue(r.RespectGenderRestrictions),
		UsePriorityOrdering:        boolOrTrue(r.UsePriorityOrdering),
		StrictPreferences:          r.StrictPreferences,
	}
}

func boolOrTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

// SchedulerDetail is the audit entry for one processed request.
type SchedulerDetail struct {
	RequestID      string                       `json:"request_id"`
	StudentID      string                       `json:"student_id"`
	CourseID       string                       `json:"course_id"`
	Priority       int                          `json:"priority"`
	Status         models.ScheduleRequestStatus `json:"status"`
	CoursePeriodID *string                      `json:"course_period_id,omitempty"`
	Reason         string                       `json:"reason,omitempty"`
	Candidates     int                          `json:"candidates"`
}

// SchedulerError records an infrastructure failure on one request; the request stays pending.
type SchedulerError struct {
	RequestID string `json:"request_id"`
	StudentID string `json:"student_id"`
	Message   string `json:"message"`
}

// RunSchedulerResponse aggregates a scheduler run.
type RunSchedulerResponse struct {
	TotalRequests int               `json:"total_requests"`
	Fulfilled     int               `json:"fulfilled"`
	Unfilled      int               `json:"unfilled"`
	Errors        []SchedulerError  `json:"errors"`
	Details       []SchedulerDetail `json:"details"`
	Cancelled     bool              `json:"cancelled"`
	StartedAt     time.Time         `json:"started_at"`
	FinishedAt    time.Time         `json:"finished_at"`
}

// SchedulerJobStatus is the lifecycle of a background run.
type SchedulerJobStatus string

// Background run statuses.
const (
	SchedulerJobQueued    SchedulerJobStatus = "QUEUED"
	SchedulerJobRunning   SchedulerJobStatus = "RUNNING"
	SchedulerJobCompleted SchedulerJobStatus = "COMPLETED"
	SchedulerJobFailed    SchedulerJobStatus = "FAILED"
	SchedulerJobCancelled SchedulerJobStatus = "CANCELLED"
)

// SchedulerJob is the pollable state of a background scheduler run.
type SchedulerJob struct {
	ID         string                `json:"id"`
	SchoolID   string                `json:"school_id"`
	Status     SchedulerJobStatus    `json:"status"`
	Request    RunSchedulerRequest   `json:"request"`
	Result     *RunSchedulerResponse `json:"result,omitempty"`
	Error      string                `json:"error,omitempty"`
	EnqueuedAt time.Time             `json:"enqueued_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}
