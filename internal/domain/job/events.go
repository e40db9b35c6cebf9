package job

import (
	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeJobStateChanged = "job.state_changed"
)

// JobStateChangedEvent is published whenever a job moves between pipeline
// states, including into a terminal state
type JobStateChangedEvent struct {
	shared.BaseDomainEvent
	JobID uuid.UUID `json:"job_id"`
	From  JobState  `json:"from"`
	To    JobState  `json:"to"`
}

// NewJobStateChangedEvent creates a job state change event
func NewJobStateChangedEvent(jobID uuid.UUID, from, to JobState) *JobStateChangedEvent {
	return &JobStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeJobStateChanged, "ResumableJob", jobID),
		JobID:           jobID,
		From:            from,
		To:              to,
	}
}
