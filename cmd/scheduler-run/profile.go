package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// profile is a saved scheduler run, usually one file per school and term driven from cron.
type profile struct {
	SchoolID string                  `yaml:"school_id"`
	CampusID string                  `yaml:"campus_id"`
	Run      dto.RunSchedulerRequest `yaml:"run"`
}

func loadProfile(path string) (*profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &p, nil
}

// apply overlays non-empty flag values on the profile.
func (p *profile) apply(school, campus, academicYear, course string) {
	if v := strings.TrimSpace(school); v != "" {
		p.SchoolID = v
	}
	if v := strings.TrimSpace(campus); v != "" {
		p.CampusID = v
	}
	if v := strings.TrimSpace(academicYear); v != "" {
		p.Run.AcademicYearID = v
	}
	if v := strings.TrimSpace(course); v != "" {
		p.Run.CourseID = &v
	}
}

func (p *profile) scope() (models.TenantScope, error) {
	if p.SchoolID == "" {
		return models.TenantScope{}, fmt.Errorf("school_id is required")
	}
	if p.Run.AcademicYearID == "" {
		return models.TenantScope{}, fmt.Errorf("run.academic_year_id is required")
	}
	campus := p.CampusID
	return models.TenantScope{SchoolID: p.SchoolID}.WithCampus(&campus), nil
}
