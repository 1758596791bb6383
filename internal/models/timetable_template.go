package models

import "time"

// TimetableTemplate is a reusable weekly slot pattern used to seed timetables.
type TimetableTemplate struct {
	ID          string                   `db:"id" json:"id"`
	SchoolID    string                   `db:"school_id" json:"school_id"`
	CampusID    *string                  `db:"campus_id" json:"campus_id,omitempty"`
	Name        string                   `db:"name" json:"name"`
	Description *string                  `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time                `db:"updated_at" json:"updated_at"`
	Entries     []TimetableTemplateEntry `db:"-" json:"entries"`
}

// TimetableTemplateEntry is one (day, period, room) cell of a template.
type TimetableTemplateEntry struct {
	ID         string  `db:"id" json:"id"`
	TemplateID string  `db:"template_id" json:"template_id"`
	DayOfWeek  int     `db:"day_of_week" json:"day_of_week"`
	PeriodID   string  `db:"period_id" json:"period_id"`
	RoomID     *string `db:"room_id" json:"room_id,omitempty"`
}
