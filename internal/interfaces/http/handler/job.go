package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appjob "github.com/wms/backend/internal/application/job"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/interfaces/http/dto"
	"github.com/wms/backend/internal/interfaces/http/middleware"
)

// JobHandler exposes job creation, scheduling and status reporting
type JobHandler struct {
	BaseHandler
	jobs *appjob.JobService
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs *appjob.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// CreateImport creates a pending import job for a profile
// POST /api/v1/jobs/imports
func (h *JobHandler) CreateImport(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	j, err := h.jobs.CreateImport(c.Request.Context(), req.ProfileTechnicalName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewJobResponse(j))
}

// CreateExport creates a pending export job for a profile
// POST /api/v1/jobs/exports
func (h *JobHandler) CreateExport(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	j, err := h.jobs.CreateExport(c.Request.Context(), req.ProfileTechnicalName)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewJobResponse(j))
}

// Schedule starts a pending job and enqueues its first step
// POST /api/v1/jobs/:id/schedule
func (h *JobHandler) Schedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	j, err := h.jobs.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	switch j.Type {
	case job.JobTypeImport:
		err = h.jobs.ScheduleImport(c.Request.Context(), id, job.JobStateValidatingFile)
	case job.JobTypeExport:
		err = h.jobs.ScheduleExport(c.Request.Context(), id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetStatus returns one job's state and progress
// GET /api/v1/jobs/:id
func (h *JobHandler) GetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}
	j, err := h.jobs.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewJobResponse(j))
}

// List returns jobs matching the filter, paginated
// GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.Normalize()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Filters:  make(map[string]interface{}),
	}
	if req.State != "" {
		filter.Filters["state"] = req.State
	}
	if req.Type != "" {
		filter.Filters["type"] = req.Type
	}
	if req.Profile != "" {
		filter.Filters["profile_technical_name"] = req.Profile
	}

	page, err := h.jobs.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.NewJobResponses(page.Items), page.Total, page.Page, page.PageSize)
}
