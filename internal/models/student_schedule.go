package models

import "time"

// StudentSchedule is the enrollment fact of a student in a course period.
// EndDate nil means the row is active.
type StudentSchedule struct {
	ID              string     `db:"id" json:"id"`
	SchoolID        string     `db:"school_id" json:"school_id"`
	StudentID       string     `db:"student_id" json:"student_id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	CoursePeriodID  string     `db:"course_period_id" json:"course_period_id"`
	AcademicYearID  string     `db:"academic_year_id" json:"academic_year_id"`
	MarkingPeriodID *string    `db:"marking_period_id" json:"marking_period_id,omitempty"`
	StartDate       time.Time  `db:"start_date" json:"start_date"`
	EndDate         *time.Time `db:"end_date" json:"end_date,omitempty"`
	SchedulerLock   bool       `db:"scheduler_lock" json:"scheduler_lock"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Active reports whether the enrollment has not been dropped.
func (s StudentSchedule) Active() bool {
	return s.EndDate == nil
}

// StudentScheduleFilter narrows listing of enrollment rows.
type StudentScheduleFilter struct {
	StudentID      string
	CoursePeriodID string
	AcademicYearID string
	ActiveOnly     bool
}
