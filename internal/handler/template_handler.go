package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context, scope models.TenantScope) ([]models.TimetableTemplate, error)
	Create(ctx context.Context, scope models.TenantScope, req dto.CreateTemplateRequest) (*models.TimetableTemplate, error)
	CreateFromSection(ctx context.Context, scope models.TenantScope, req dto.TemplateFromSectionRequest) (*models.TimetableTemplate, error)
	Apply(ctx context.Context, scope models.TenantScope, req dto.ApplyTemplateRequest) (*dto.ApplyTemplateResponse, error)
}

// TemplateHandler exposes timetable template endpoints.
type TemplateHandler struct {
	templates templateService
}

// NewTemplateHandler constructs TemplateHandler.
func NewTemplateHandler(templates templateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List timetable templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule-requests/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	templates, err := h.templates.List(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Create godoc
// @Summary Create timetable template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-requests/templates [post]
func (h *TemplateHandler) Create(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.templates.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// FromSection godoc
// @Summary Capture a section timetable as a template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.TemplateFromSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /schedule-requests/templates/from-section [post]
func (h *TemplateHandler) FromSection(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.TemplateFromSectionRequest
	if !bindJSON(c, &req) {
		return
	}
	template, err := h.templates.CreateFromSection(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, template)
}

// Apply godoc
// @Summary Apply a template to course periods
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.ApplyTemplateRequest true "Apply payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-requests/templates/apply [post]
func (h *TemplateHandler) Apply(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.ApplyTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.templates.Apply(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
