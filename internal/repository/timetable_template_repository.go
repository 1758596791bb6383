package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduler-api/internal/models"
)

// TimetableTemplateRepository persists reusable timetable templates.
type TimetableTemplateRepository struct {
	db *sqlx.DB
}

// NewTimetableTemplateRepository constructs the repository.
func NewTimetableTemplateRepository(db *sqlx.DB) *TimetableTemplateRepository {
	return &TimetableTemplateRepository{db: db}
}

func (r *TimetableTemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns templates in scope without entries.
func (r *TimetableTemplateRepository) List(ctx context.Context, scope models.TenantScope) ([]models.TimetableTemplate, error) {
	conditions, args := scopeConditions("", scope, nil)
	query := fmt.Sprintf(`SELECT id, school_id, campus_id, name, description, created_at, updated_at
FROM timetable_templates WHERE %s ORDER BY name ASC`, strings.Join(conditions, " AND "))
	var templates []models.TimetableTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable templates: %w", err)
	}
	return templates, nil
}

// FindByID loads a template with its entries.
func (r *TimetableTemplateRepository) FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.TimetableTemplate, error) {
	const query = `SELECT id, school_id, campus_id, name, description, created_at, updated_at
FROM timetable_templates WHERE id = $1 AND school_id = $2`
	var template models.TimetableTemplate
	if err := r.db.GetContext(ctx, &template, query, id, scope.SchoolID); err != nil {
		return nil, err
	}
	const entriesQuery = `SELECT id, template_id, day_of_week, period_id, room_id
FROM timetable_template_entries WHERE template_id = $1 ORDER BY day_of_week, period_id`
	if err := r.db.SelectContext(ctx, &template.Entries, entriesQuery, id); err != nil {
		return nil, fmt.Errorf("list timetable template entries: %w", err)
	}
	return &template, nil
}

// Create inserts a template and its entries.
func (r *TimetableTemplateRepository) Create(ctx context.Context, exec sqlx.ExtContext, template *models.TimetableTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now
	target := r.exec(exec)

	const query = `INSERT INTO timetable_templates (id, school_id, campus_id, name, description, created_at, updated_at)
VALUES (:id, :school_id, :campus_id, :name, :description, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, query, template); err != nil {
		return fmt.Errorf("create timetable template: %w", err)
	}

	const entryQuery = `INSERT INTO timetable_template_entries (id, template_id, day_of_week, period_id, room_id)
VALUES (:id, :template_id, :day_of_week, :period_id, :room_id)`
	for i := range template.Entries {
		entry := &template.Entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.TemplateID = template.ID
		if _, err := sqlx.NamedExecContext(ctx, target, entryQuery, entry); err != nil {
			return fmt.Errorf("create timetable template entry: %w", err)
		}
	}
	return nil
}
