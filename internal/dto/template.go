package dto

// TemplateEntryRequest is one slot of a template payload.
type TemplateEntryRequest struct {
	DayOfWeek int     `json:"day_of_week" validate:"min=0,max=7"`
	PeriodID  string  `json:"period_id" validate:"required"`
	RoomID    *string `json:"room_id"`
}

// CreateTemplateRequest creates a timetable template.
type CreateTemplateRequest struct {
	Name        string                 `json:"name" validate:"required,max=120"`
	Description *string                `json:"description"`
	CampusID    *string                `json:"campus_id"`
	Entries     []TemplateEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

// ApplyTemplateRequest seeds the timetable of course periods from a template.
type ApplyTemplateRequest struct {
	TemplateID      string   `json:"template_id" validate:"required"`
	CoursePeriodIDs []string `json:"course_period_ids" validate:"required,min=1"`
}

// ApplyTemplateResponse summarises a template application.
type ApplyTemplateResponse struct {
	Applied int         `json:"applied"`
	Skipped int         `json:"skipped"`
	Errors  []ItemError `json:"errors"`
}

// TemplateFromSectionRequest captures a section's timetable as a template.
type TemplateFromSectionRequest struct {
	SectionID   string  `json:"section_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description"`
}
