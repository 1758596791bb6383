package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type scheduleRequestService interface {
	List(ctx context.Context, scope models.TenantScope, filter models.ScheduleRequestFilter) ([]models.ScheduleRequest, *models.Pagination, error)
	Get(ctx context.Context, scope models.TenantScope, id string) (*models.ScheduleRequest, error)
	Create(ctx context.Context, scope models.TenantScope, req dto.CreateScheduleRequest) (*models.ScheduleRequest, error)
	MassCreate(ctx context.Context, scope models.TenantScope, req dto.MassCreateScheduleRequest) (*dto.MassCreateScheduleResponse, error)
	Update(ctx context.Context, scope models.TenantScope, id string, req dto.UpdateScheduleRequest) (*models.ScheduleRequest, error)
	Delete(ctx context.Context, scope models.TenantScope, id string) error
}

// ScheduleRequestHandler exposes course request endpoints.
type ScheduleRequestHandler struct {
	requests scheduleRequestService
}

// NewScheduleRequestHandler constructs ScheduleRequestHandler.
func NewScheduleRequestHandler(requests scheduleRequestService) *ScheduleRequestHandler {
	return &ScheduleRequestHandler{requests: requests}
}

// List godoc
// @Summary List schedule requests
// @Tags ScheduleRequests
// @Produce json
// @Param academic_year_id query string true "Academic year"
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param status query string false "PENDING, FULFILLED, UNFILLED or CANCELLED"
// @Param campus_id query string false "Campus"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule-requests [get]
func (h *ScheduleRequestHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	campusID := c.Query("campus_id")
	filter := models.ScheduleRequestFilter{
		AcademicYearID: c.Query("academic_year_id"),
		StudentID:      c.Query("student_id"),
		CourseID:       c.Query("course_id"),
		Status:         models.ScheduleRequestStatus(strings.ToUpper(c.Query("status"))),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	scope, ok = scope.Narrow(&campusID)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "campus is outside the session scope"))
		return
	}

	requests, pagination, err := h.requests.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get schedule request
// @Tags ScheduleRequests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule-requests/{id} [get]
func (h *ScheduleRequestHandler) Get(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	request, err := h.requests.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Create godoc
// @Summary Create schedule request
// @Tags ScheduleRequests
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule-requests [post]
func (h *ScheduleRequestHandler) Create(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	request, err := h.requests.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// MassCreate godoc
// @Summary Create schedule requests for many students
// @Tags ScheduleRequests
// @Accept json
// @Produce json
// @Param payload body dto.MassCreateScheduleRequest true "Mass payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-requests/mass [post]
func (h *ScheduleRequestHandler) MassCreate(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.MassCreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.requests.MassCreate(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Update godoc
// @Summary Update schedule request
// @Description Edits preferences and priority, cancels a pending request or resets one to PENDING.
// @Tags ScheduleRequests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateScheduleRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /schedule-requests/{id} [put]
func (h *ScheduleRequestHandler) Update(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Status != nil {
		status := models.ScheduleRequestStatus(strings.ToUpper(string(*req.Status)))
		req.Status = &status
	}
	request, err := h.requests.Update(c.Request.Context(), scope, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Delete godoc
// @Summary Delete schedule request
// @Tags ScheduleRequests
// @Param id path string true "Request ID"
// @Success 204
// @Router /schedule-requests/{id} [delete]
func (h *ScheduleRequestHandler) Delete(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), scope, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
