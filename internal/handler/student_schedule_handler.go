package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/sma-scheduler-api/pkg/errors"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, scope models.TenantScope, req dto.EnrollRequest, hook service.EnrollHook) (*dto.EnrollResponse, error)
	Drop(ctx context.Context, scope models.TenantScope, req dto.DropRequest) (int, error)
	MassEnroll(ctx context.Context, scope models.TenantScope, req dto.MassEnrollRequest) (*dto.MassEnrollmentResponse, error)
	MassDrop(ctx context.Context, scope models.TenantScope, req dto.MassDropRequest) (*dto.MassEnrollmentResponse, error)
	ListStudentSchedules(ctx context.Context, scope models.TenantScope, query dto.StudentScheduleQuery) ([]models.StudentSchedule, error)
	RecomputeSeats(ctx context.Context, scope models.TenantScope, coursePeriodID string) (int, error)
}

// StudentScheduleHandler exposes enrollment rows and seat maintenance.
type StudentScheduleHandler struct {
	enrollments enrollmentService
}

// NewStudentScheduleHandler constructs StudentScheduleHandler.
func NewStudentScheduleHandler(enrollments enrollmentService) *StudentScheduleHandler {
	return &StudentScheduleHandler{enrollments: enrollments}
}

// List godoc
// @Summary List a student's schedule
// @Tags StudentSchedules
// @Produce json
// @Param student_id query string true "Student"
// @Param academic_year_id query string false "Academic year"
// @Param active_only query bool false "Only rows without an end date"
// @Success 200 {object} response.Envelope
// @Router /student-schedules [get]
func (h *StudentScheduleHandler) List(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var query dto.StudentScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	rows, err := h.enrollments.ListStudentSchedules(c.Request.Context(), scope, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Enroll godoc
// @Summary Enroll a student into a course period
// @Tags StudentSchedules
// @Accept json
// @Produce json
// @Param payload body dto.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /student-schedules [post]
func (h *StudentScheduleHandler) Enroll(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.EnrollRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.enrollments.Enroll(c.Request.Context(), scope, req, nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Drop godoc
// @Summary Drop a student from a course period
// @Tags StudentSchedules
// @Accept json
// @Produce json
// @Param payload body dto.DropRequest true "Drop payload"
// @Success 200 {object} response.Envelope
// @Router /student-schedules/drop [post]
func (h *StudentScheduleHandler) Drop(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.DropRequest
	if !bindJSON(c, &req) {
		return
	}
	filled, err := h.enrollments.Drop(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RecomputeSeatsResponse{CoursePeriodID: req.CoursePeriodID, FilledSeats: filled}, nil)
}

// MassEnroll godoc
// @Summary Enroll many students into one course period
// @Tags StudentSchedules
// @Accept json
// @Produce json
// @Param payload body dto.MassEnrollRequest true "Mass enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /student-schedules/mass [post]
func (h *StudentScheduleHandler) MassEnroll(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.MassEnrollRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.enrollments.MassEnroll(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// MassDrop godoc
// @Summary Drop many students from one course period
// @Tags StudentSchedules
// @Accept json
// @Produce json
// @Param payload body dto.MassDropRequest true "Mass drop payload"
// @Success 200 {object} response.Envelope
// @Router /student-schedules/mass-drop [post]
func (h *StudentScheduleHandler) MassDrop(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.MassDropRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.enrollments.MassDrop(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RecomputeSeats godoc
// @Summary Recompute the filled seats of a course period
// @Tags StudentSchedules
// @Produce json
// @Param id path string true "Course period ID"
// @Success 200 {object} response.Envelope
// @Router /course-periods/{id}/recompute-seats [post]
func (h *StudentScheduleHandler) RecomputeSeats(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	id := c.Param("id")
	filled, err := h.enrollments.RecomputeSeats(c.Request.Context(), scope, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RecomputeSeatsResponse{CoursePeriodID: id, FilledSeats: filled}, nil)
}
