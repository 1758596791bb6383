package models

// TenantScope identifies the school (and optionally campus) every core call operates in.
type TenantScope struct {
	SchoolID string  `json:"school_id"`
	CampusID *string `json:"campus_id,omitempty"`
}

// Valid reports whether the scope names a school.
func (s TenantScope) Valid() bool {
	return s.SchoolID != ""
}

// WithCampus returns a copy of the scope narrowed to the campus when one is provided.
func (s TenantScope) WithCampus(campusID *string) TenantScope {
	if campusID == nil || *campusID == "" {
		return s
	}
	id := *campusID
	s.CampusID = &id
	return s
}

// Narrow applies a campus chosen by the caller. A campus-bound scope accepts only its own campus.
func (s TenantScope) Narrow(campusID *string) (TenantScope, bool) {
	if campusID == nil || *campusID == "" {
		return s, true
	}
	if s.CampusID != nil && *s.CampusID != *campusID {
		return s, false
	}
	return s.WithCampus(campusID), true
}

// CampusKey renders the campus for lock and cache keys.
func (s TenantScope) CampusKey() string {
	if s.CampusID == nil {
		return "*"
	}
	return *s.CampusID
}
