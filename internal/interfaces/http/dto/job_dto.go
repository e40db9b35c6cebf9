package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/job"
)

// CreateJobRequest creates an import or export job for a profile
type CreateJobRequest struct {
	ProfileTechnicalName string `json:"profile_technical_name" binding:"required,max=100"`
}

// ListJobsRequest filters the job listing
type ListJobsRequest struct {
	ListRequest
	State   string `form:"state" binding:"omitempty,max=50"`
	Type    string `form:"type" binding:"omitempty,oneof=import export"`
	Profile string `form:"profile" binding:"omitempty,max=100"`
}

// JobResponse renders one job for reporting clients
type JobResponse struct {
	ID                   uuid.UUID      `json:"id"`
	Type                 string         `json:"type"`
	ProfileTechnicalName string         `json:"profile_technical_name"`
	State                string         `json:"state"`
	CurrentItem          int            `json:"current_item"`
	TotalNumberOfItems   int            `json:"total_number_of_items"`
	Errors               []job.JobError `json:"errors,omitempty"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
}

// NewJobResponse maps a job to its wire shape
func NewJobResponse(j *job.ResumableJob) JobResponse {
	return JobResponse{
		ID:                   j.ID,
		Type:                 string(j.Type),
		ProfileTechnicalName: j.ProfileTechnicalName,
		State:                j.State.String(),
		CurrentItem:          j.CurrentItem,
		TotalNumberOfItems:   j.TotalNumberOfItems,
		Errors:               j.Errors,
		StartedAt:            j.StartedAt,
		CompletedAt:          j.CompletedAt,
		CreatedAt:            j.CreatedAt,
	}
}

// NewJobResponses maps a page of jobs
func NewJobResponses(jobs []*job.ResumableJob) []JobResponse {
	responses := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		responses[i] = NewJobResponse(j)
	}
	return responses
}
