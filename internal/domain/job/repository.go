package job

import (
	"context"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// JobRepository defines the persistence interface for resumable jobs
type JobRepository interface {
	Create(ctx context.Context, j *ResumableJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*ResumableJob, error)
	// Update persists state, cursor, progress and errors. Uses optimistic
	// locking on the aggregate version.
	Update(ctx context.Context, j *ResumableJob) error
	List(ctx context.Context, filter shared.Filter) (shared.Paginated[*ResumableJob], error)
}

// StepDispatcher enqueues the message that triggers the next chunk of a
// job. Fire-and-forget, at-least-once delivery.
type StepDispatcher interface {
	Dispatch(ctx context.Context, msg StepMessage) error
}
