package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-scheduler-api/internal/dto"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/pkg/response"
)

type schedulerRunner interface {
	Run(ctx context.Context, scope models.TenantScope, req dto.RunSchedulerRequest) (*dto.RunSchedulerResponse, error)
}

type schedulerJobs interface {
	Submit(ctx context.Context, scope models.TenantScope, req dto.RunSchedulerRequest) (*dto.SchedulerJob, error)
	Get(ctx context.Context, scope models.TenantScope, id string) (*dto.SchedulerJob, error)
	Cancel(ctx context.Context, scope models.TenantScope, id string) (*dto.SchedulerJob, error)
}

// SchedulerHandler exposes synchronous and background scheduler runs.
type SchedulerHandler struct {
	scheduler schedulerRunner
	jobs      schedulerJobs
}

// NewSchedulerHandler constructs SchedulerHandler.
func NewSchedulerHandler(scheduler schedulerRunner, jobs schedulerJobs) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler, jobs: jobs}
}

// Run godoc
// @Summary Run the course request scheduler
// @Description Processes every pending request of the academic year and reports per-request outcomes.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.RunSchedulerRequest true "Run options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule-requests/scheduler/run [post]
func (h *SchedulerHandler) Run(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.RunSchedulerRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.scheduler.Run(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SubmitJob godoc
// @Summary Queue a background scheduler run
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.RunSchedulerRequest true "Run options"
// @Success 202 {object} response.Envelope
// @Router /schedule-requests/scheduler/jobs [post]
func (h *SchedulerHandler) SubmitJob(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	var req dto.RunSchedulerRequest
	if !bindJSON(c, &req) {
		return
	}
	job, err := h.jobs.Submit(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"job_id": job.ID, "job": job})
}

// GetJob godoc
// @Summary Poll a background scheduler run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule-requests/scheduler/jobs/{id} [get]
func (h *SchedulerHandler) GetJob(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// CancelJob godoc
// @Summary Cancel a background scheduler run
// @Description Queued jobs are cancelled immediately; running jobs stop after the current request.
// @Tags Scheduler
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule-requests/scheduler/jobs/{id} [delete]
func (h *SchedulerHandler) CancelJob(c *gin.Context) {
	scope, ok := scopeFromContext(c)
	if !ok {
		return
	}
	job, err := h.jobs.Cancel(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
