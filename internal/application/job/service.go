package job

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// JobService creates jobs and enqueues their first step message
type JobService struct {
	repo       job.JobRepository
	dispatcher job.StepDispatcher
	logger     *zap.Logger
}

// NewJobService creates a job service
func NewJobService(repo job.JobRepository, dispatcher job.StepDispatcher, logger *zap.Logger) *JobService {
	return &JobService{repo: repo, dispatcher: dispatcher, logger: logger}
}

// CreateImport persists a pending import job for the given profile
func (s *JobService) CreateImport(ctx context.Context, profileTechnicalName string) (*job.ResumableJob, error) {
	j, err := job.NewResumableJob(job.JobTypeImport, profileTechnicalName)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	return j, nil
}

// CreateExport persists a pending export job for the given profile
func (s *JobService) CreateExport(ctx context.Context, profileTechnicalName string) (*job.ResumableJob, error) {
	j, err := job.NewResumableJob(job.JobTypeExport, profileTechnicalName)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, j); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}
	return j, nil
}

// ScheduleImport starts a pending import at the given initial state and
// enqueues the first step message. Regular imports start at
// validating_file; headless imports with pre-staged rows start directly
// at running.
func (s *JobService) ScheduleImport(ctx context.Context, id uuid.UUID, initialState job.JobState) error {
	return s.schedule(ctx, id, job.JobTypeImport, initialState)
}

// ScheduleExport starts a pending export and enqueues the first step
// message
func (s *JobService) ScheduleExport(ctx context.Context, id uuid.UUID) error {
	return s.schedule(ctx, id, job.JobTypeExport, job.JobStateValidatingFile)
}

func (s *JobService) schedule(ctx context.Context, id uuid.UUID, jobType job.JobType, initialState job.JobState) error {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load job %s: %w", id, err)
	}
	if j == nil {
		return shared.ErrNotFound
	}
	if j.Type != jobType {
		return shared.NewDomainError("INVALID_JOB_TYPE",
			fmt.Sprintf("Job %s is a %s job", id, j.Type))
	}
	if err := j.Start(initialState); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, j); err != nil {
		return fmt.Errorf("persist job start: %w", err)
	}
	if err := s.dispatcher.Dispatch(ctx, job.StepMessage{JobID: j.ID, State: j.State}); err != nil {
		return fmt.Errorf("dispatch first job step: %w", err)
	}
	s.logger.Info("job scheduled",
		zap.String("job_id", j.ID.String()),
		zap.String("type", string(j.Type)),
		zap.String("state", j.State.String()))
	return nil
}

// List returns jobs matching the filter, paginated
func (s *JobService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[*job.ResumableJob], error) {
	return s.repo.List(ctx, filter)
}

// GetStatus returns the job row polled by reporting clients
func (s *JobService) GetStatus(ctx context.Context, id uuid.UUID) (*job.ResumableJob, error) {
	j, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	if j == nil {
		return nil, shared.ErrNotFound
	}
	return j, nil
}
