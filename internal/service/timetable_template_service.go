package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
)

type timetableTemplateRepository interface {
	List(ctx context.Context, scope models.TenantScope) ([]models.TimetableTemplate, error)
	FindByID(ctx context.Context, scope models.TenantScope, id string) (*models.TimetableTemplate, error)
	Create(ctx context.Context, exec sqlx.ExtContext, template *models.TimetableTemplate) error
}

type timetableWriter interface {
	FindCoursePeriod(ctx context.Context, exec sqlx.ExtContext, scope models.TenantScope, id string, forUpdate bool) (*models.CoursePeriod, error)
	ListSlotsBySection(ctx context.Context, scope models.TenantScope, sectionID string) ([]models.TimetableSlot, error)
	InsertTimetableSlot(ctx context.Context, exec sqlx.ExtContext, slot *models.TimetableSlot) (bool, error)
}

// TimetableTemplateService stores weekly slot patterns and stamps them onto course periods.
type TimetableTemplateService struct {
	repo      timetableTemplateRepository
	timetable timetableWriter
	tx        txRunner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableTemplateService constructs the service.
func NewTimetableTemplateService(repo timetableTemplateRepository, timetable timetableWriter, tx txRunner, validate *validator.Validate, logger *zap.Logger) *TimetableTemplateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableTemplateService{repo: repo, timetable: timetable, tx: tx, validator: validate, logger: logger}
}

// List returns the templates of the scope.
func (s *TimetableTemplateService) List(ctx context.Context, scope models.TenantScope) ([]models.TimetableTemplate, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	templates, err := s.repo.List(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable templates")
	}
	return templates, nil
}

// Create stores a new template.
func (s *TimetableTemplateService) Create(ctx context.Context, scope models.TenantScope, req dto.CreateTemplateRequest) (*models.TimetableTemplate, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	target, err := narrowScope(scope, req.CampusID)
	if err != nil {
		return nil, err
	}
	template := &models.TimetableTemplate{
		SchoolID:    scope.SchoolID,
		CampusID:    target.CampusID,
		Name:        req.Name,
		Description: req.Description,
	}
	seen := make(map[string]struct{}, len(req.Entries))
	for _, entry := range req.Entries {
		key := fmt.Sprintf("%d:%s", entry.DayOfWeek, entry.PeriodID)
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate template entry for day and period")
		}
		seen[key] = struct{}{}
		template.Entries = append(template.Entries, models.TimetableTemplateEntry{DayOfWeek: entry.DayOfWeek, PeriodID: entry.PeriodID, RoomID: entry.RoomID})
	}
	if err := s.save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// CreateFromSection captures the timetable of a section as a template.
func (s *TimetableTemplateService) CreateFromSection(ctx context.Context, scope models.TenantScope, req dto.TemplateFromSectionRequest) (*models.TimetableTemplate, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	slots, err := s.timetable.ListSlotsBySection(ctx, scope, req.SectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section timetable")
	}
	if len(slots) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section has no timetable slots")
	}
	template := &models.TimetableTemplate{
		SchoolID:    scope.SchoolID,
		CampusID:    scope.CampusID,
		Name:        req.Name,
		Description: req.Description,
	}
	seen := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		key := fmt.Sprintf("%d:%s", slot.DayOfWeek, slot.PeriodID)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		template.Entries = append(template.Entries, models.TimetableTemplateEntry{DayOfWeek: slot.DayOfWeek, PeriodID: slot.PeriodID, RoomID: slot.RoomID})
	}
	if err := s.save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

// Apply inserts the template's slots into the timetable of each course period. Existing slots are skipped.
func (s *TimetableTemplateService) Apply(ctx context.Context, scope models.TenantScope, req dto.ApplyTemplateRequest) (*dto.ApplyTemplateResponse, error) {
	if !scope.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school scope is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template application payload")
	}
	template, err := s.repo.FindByID(ctx, scope, req.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable template")
	}

	result := &dto.ApplyTemplateResponse{Errors: []dto.ItemError{}}
	for _, coursePeriodID := range uniqueStrings(req.CoursePeriodIDs) {
		applied, skipped := 0, 0
		err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
			period, err := s.timetable.FindCoursePeriod(ctx, exec, scope, coursePeriodID, true)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return appErrors.Clone(appErrors.ErrNotFound, "course period not found")
				}
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course period")
			}
			for _, entry := range template.Entries {
				inserted, err := s.timetable.InsertTimetableSlot(ctx, exec, &models.TimetableSlot{
					SchoolID:       scope.SchoolID,
					CoursePeriodID: period.ID,
					SectionID:      period.SectionID,
					DayOfWeek:      entry.DayOfWeek,
					PeriodID:       entry.PeriodID,
					RoomID:         entry.RoomID,
				})
				if err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert timetable slot")
				}
				if inserted {
					applied++
				} else {
					skipped++
				}
			}
			return nil
		})
		if err != nil {
			if appErrors.IsInfrastructure(err) {
				return nil, err
			}
			appErr := appErrors.FromError(err)
			result.Errors = append(result.Errors, dto.ItemError{ItemID: coursePeriodID, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		result.Applied += applied
		result.Skipped += skipped
	}
	s.logger.Info("timetable template applied",
		zap.String("template_id", template.ID), zap.Int("applied", result.Applied), zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *TimetableTemplateService) save(ctx context.Context, template *models.TimetableTemplate) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec sqlx.ExtContext) error {
		return s.repo.Create(ctx, exec, template)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable template")
	}
	return nil
}
