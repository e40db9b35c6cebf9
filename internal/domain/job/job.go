package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wms/backend/internal/domain/shared"
	"gorm.io/datatypes"
)

// JobType discriminates the processing direction
type JobType string

const (
	JobTypeImport JobType = "import"
	JobTypeExport JobType = "export"
)

// IsValid returns true if the job type is known
func (t JobType) IsValid() bool {
	return t == JobTypeImport || t == JobTypeExport
}

// JobState is one station of the linear processing pipeline
type JobState string

const (
	JobStatePending             JobState = "pending"
	JobStateValidatingFile      JobState = "validating_file"
	JobStateReadingFile         JobState = "reading_file"
	JobStateRunning             JobState = "running"
	JobStateWritingFile         JobState = "writing_file"
	JobStateCompleted           JobState = "completed"
	JobStateCompletedWithErrors JobState = "completed_with_errors"
	JobStateFailed              JobState = "failed"
)

// String returns the string representation of JobState
func (s JobState) String() string {
	return string(s)
}

// IsValid returns true if the state is part of the pipeline
func (s JobState) IsValid() bool {
	switch s {
	case JobStatePending, JobStateValidatingFile, JobStateReadingFile,
		JobStateRunning, JobStateWritingFile, JobStateCompleted,
		JobStateCompletedWithErrors, JobStateFailed:
		return true
	}
	return false
}

// IsTerminal returns true for states the pipeline never leaves
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateCompletedWithErrors || s == JobStateFailed
}

// successor maps each non-terminal state to the next pipeline station
var successor = map[JobState]JobState{
	JobStatePending:        JobStateValidatingFile,
	JobStateValidatingFile: JobStateReadingFile,
	JobStateReadingFile:    JobStateRunning,
	JobStateRunning:        JobStateWritingFile,
	JobStateWritingFile:    JobStateCompleted,
}

// Next returns the following pipeline station
func (s JobState) Next() (JobState, bool) {
	next, ok := successor[s]
	return next, ok
}

// JobError is one recorded problem: validation findings and per-row
// processing errors both land here. Item is -1 for job-level errors.
type JobError struct {
	Item    int    `json:"item"`
	Message string `json:"message"`
}

// ResumableJob is a long-running import or export processed in bounded
// chunks. The state plus the opaque cursor blob are persisted after every
// chunk, so a crash between two chunks loses at most one chunk's work.
type ResumableJob struct {
	shared.BaseAggregateRoot
	Type                 JobType                       `gorm:"type:varchar(10);not null"`
	ProfileTechnicalName string                        `gorm:"type:varchar(100);not null;index"`
	State                JobState                      `gorm:"type:varchar(30);not null;index"`
	StateData            datatypes.JSON                `gorm:"type:jsonb"`
	CurrentItem          int                           `gorm:"not null;default:0"`
	TotalNumberOfItems   int                           `gorm:"not null;default:0"`
	Errors               datatypes.JSONSlice[JobError] `gorm:"type:jsonb"`
	StartedAt            *time.Time
	CompletedAt          *time.Time
}

// TableName returns the table name for GORM
func (ResumableJob) TableName() string {
	return "resumable_jobs"
}

// NewResumableJob creates a job parked in pending
func NewResumableJob(jobType JobType, profileTechnicalName string) (*ResumableJob, error) {
	if !jobType.IsValid() {
		return nil, shared.NewDomainError("INVALID_JOB_TYPE",
			fmt.Sprintf("Unknown job type: %q", jobType))
	}
	if profileTechnicalName == "" {
		return nil, shared.NewDomainError("INVALID_JOB_PROFILE", "Profile technical name cannot be empty")
	}
	return &ResumableJob{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Type:                 jobType,
		ProfileTechnicalName: profileTechnicalName,
		State:                JobStatePending,
	}, nil
}

// Start moves the job out of pending into the given initial state and
// stamps started_at. Imports normally begin at validating_file; headless
// imports fed from internal sources begin directly at running.
func (j *ResumableJob) Start(initial JobState) error {
	if j.State != JobStatePending {
		return shared.NewDomainError("INVALID_JOB_STATE",
			fmt.Sprintf("Job %s cannot start from state %s", j.ID, j.State))
	}
	if !initial.IsValid() || initial.IsTerminal() || initial == JobStatePending {
		return shared.NewDomainError("INVALID_JOB_STATE",
			fmt.Sprintf("Cannot start a job in state %q", initial))
	}
	now := time.Now()
	j.State = initial
	j.StartedAt = &now
	j.AddDomainEvent(NewJobStateChangedEvent(j.ID, JobStatePending, initial))
	return nil
}

// Advance moves the job to the next pipeline station with a fresh cursor
func (j *ResumableJob) Advance() error {
	next, ok := j.State.Next()
	if !ok {
		return shared.NewDomainError("INVALID_JOB_STATE",
			fmt.Sprintf("Job %s has no successor state after %s", j.ID, j.State))
	}
	previous := j.State
	j.State = next
	j.StateData = nil
	if next.IsTerminal() {
		j.finish()
	}
	j.AddDomainEvent(NewJobStateChangedEvent(j.ID, previous, next))
	return nil
}

// Complete terminalizes the job. An import with recorded row errors ends
// as completed_with_errors, everything else as completed.
func (j *ResumableJob) Complete() error {
	if j.State.IsTerminal() {
		return shared.NewDomainError("INVALID_JOB_STATE",
			fmt.Sprintf("Job %s is already terminal in state %s", j.ID, j.State))
	}
	previous := j.State
	j.State = JobStateCompleted
	if j.Type == JobTypeImport && len(j.Errors) > 0 {
		j.State = JobStateCompletedWithErrors
	}
	j.finish()
	j.AddDomainEvent(NewJobStateChangedEvent(j.ID, previous, j.State))
	return nil
}

// Fail terminalizes the job from any non-terminal state and records the
// message as a job-level error
func (j *ResumableJob) Fail(message string) {
	if j.State.IsTerminal() {
		return
	}
	previous := j.State
	j.State = JobStateFailed
	j.Errors = append(j.Errors, JobError{Item: -1, Message: message})
	j.finish()
	j.AddDomainEvent(NewJobStateChangedEvent(j.ID, previous, JobStateFailed))
}

func (j *ResumableJob) finish() {
	now := time.Now()
	j.CompletedAt = &now
}

// RecordRowError records a processing error against one element without
// aborting the job
func (j *ResumableJob) RecordRowError(item int, message string) {
	j.Errors = append(j.Errors, JobError{Item: item, Message: message})
}

// RecordValidationErrors attaches a collected validation report and fails
// the job. Findings are recorded individually so the caller sees every
// problem in one report.
func (j *ResumableJob) RecordValidationErrors(messages []string) {
	for _, msg := range messages {
		j.Errors = append(j.Errors, JobError{Item: -1, Message: msg})
	}
	j.Fail("validation failed")
}

// SetCursor persists the handler's chunk cursor as the opaque state blob
func (j *ResumableJob) SetCursor(cursor interface{}) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshal job cursor: %w", err)
	}
	j.StateData = datatypes.JSON(data)
	return nil
}

// Cursor decodes the persisted state blob into the handler's cursor type.
// A missing blob leaves the target at its zero value.
func (j *ResumableJob) Cursor(target interface{}) error {
	if len(j.StateData) == 0 {
		return nil
	}
	if err := json.Unmarshal(j.StateData, target); err != nil {
		return fmt.Errorf("unmarshal job cursor: %w", err)
	}
	return nil
}

// SetProgress updates the progress counters polled by reporting clients
func (j *ResumableJob) SetProgress(currentItem, totalNumberOfItems int) {
	j.CurrentItem = currentItem
	j.TotalNumberOfItems = totalNumberOfItems
}

// StepMessage is the queue payload that drives one chunk of processing.
// At-least-once delivery, no cross-job ordering.
type StepMessage struct {
	JobID uuid.UUID `json:"job_id"`
	State JobState  `json:"state"`
}
