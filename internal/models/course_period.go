package models

// Gender restriction values on course periods.
const (
	GenderRestrictionNone   = "N"
	GenderRestrictionMale   = "M"
	GenderRestrictionFemale = "F"
)

// CoursePeriod is a schedulable section of a course, owned by the catalog.
type CoursePeriod struct {
	ID                string  `db:"id" json:"id"`
	SchoolID          string  `db:"school_id" json:"school_id"`
	CampusID          *string `db:"campus_id" json:"campus_id,omitempty"`
	CourseID          string  `db:"course_id" json:"course_id"`
	CourseTitle       string  `db:"course_title" json:"course_title"`
	AcademicYearID    string  `db:"academic_year_id" json:"academic_year_id"`
	MarkingPeriodID   *string `db:"marking_period_id" json:"marking_period_id,omitempty"`
	TeacherID         string  `db:"teacher_id" json:"teacher_id"`
	SectionID         *string `db:"section_id" json:"section_id,omitempty"`
	PeriodID          *string `db:"period_id" json:"period_id,omitempty"`
	PeriodTitle       *string `db:"period_title" json:"period_title,omitempty"`
	RoomID            *string `db:"room_id" json:"room_id,omitempty"`
	TotalSeats        *int    `db:"total_seats" json:"total_seats,omitempty"`
	FilledSeats       int     `db:"filled_seats" json:"filled_seats"`
	GenderRestriction string  `db:"gender_restriction" json:"gender_restriction"`
	Active            bool    `db:"active" json:"active"`
}

// Full reports whether a capped course period has no free seat left.
func (cp CoursePeriod) Full() bool {
	return cp.TotalSeats != nil && cp.FilledSeats >= *cp.TotalSeats
}

// RemainingSeats returns free seats and whether the course period is capped.
func (cp CoursePeriod) RemainingSeats() (int, bool) {
	if cp.TotalSeats == nil {
		return 0, false
	}
	return *cp.TotalSeats - cp.FilledSeats, true
}

// Label renders a human readable name for conflict messages.
func (cp CoursePeriod) Label() string {
	if cp.PeriodTitle != nil && *cp.PeriodTitle != "" {
		return cp.CourseTitle + " (" + *cp.PeriodTitle + ")"
	}
	return cp.CourseTitle
}

// EveryDay marks a timetable slot that repeats on all school days.
const EveryDay = 0

// TimetableSlot is one weekly meeting of a course period.
type TimetableSlot struct {
	ID             string  `db:"id" json:"id"`
	SchoolID       string  `db:"school_id" json:"school_id"`
	CoursePeriodID string  `db:"course_period_id" json:"course_period_id"`
	SectionID      *string `db:"section_id" json:"section_id,omitempty"`
	DayOfWeek      int     `db:"day_of_week" json:"day_of_week"`
	PeriodID       string  `db:"period_id" json:"period_id"`
	PeriodTitle    *string `db:"period_title" json:"period_title,omitempty"`
	RoomID         *string `db:"room_id" json:"room_id,omitempty"`
}

// Overlaps reports whether two slots occupy the same period on a shared day.
func (s TimetableSlot) Overlaps(other TimetableSlot) bool {
	if s.PeriodID != other.PeriodID {
		return false
	}
	return s.DayOfWeek == EveryDay || other.DayOfWeek == EveryDay || s.DayOfWeek == other.DayOfWeek
}

// AvailabilityStatus marks a teacher's disposition for a weekly slot.
type AvailabilityStatus string

// Teacher availability values.
const (
	AvailabilityAvailable   AvailabilityStatus = "AVAILABLE"
	AvailabilityUnavailable AvailabilityStatus = "UNAVAILABLE"
	AvailabilityPreferred   AvailabilityStatus = "PREFERRED"
)

// TeacherAvailability is a per teacher, per (day, period) availability record.
type TeacherAvailability struct {
	TeacherID string             `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int                `db:"day_of_week" json:"day_of_week"`
	PeriodID  string             `db:"period_id" json:"period_id"`
	Status    AvailabilityStatus `db:"status" json:"status"`
}

// StudentProfile is the slice of the student directory the scheduler needs.
type StudentProfile struct {
	ID        string  `db:"id" json:"id"`
	SchoolID  string  `db:"school_id" json:"school_id"`
	Gender    string  `db:"gender" json:"gender"`
	SectionID *string `db:"section_id" json:"section_id,omitempty"`
	Active    bool    `db:"active" json:"active"`
}
