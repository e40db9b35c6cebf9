package job

import (
	"context"
	"fmt"

	"github.com/wms/backend/internal/domain/job"
	"go.uber.org/zap"
)

// StepRunner is the outermost dispatch boundary of the job pipeline. It
// loads the job a step message names, runs the registered handler for
// one chunk, persists the result and re-enqueues the follow-up message.
//
// Any error or panic escaping a handler terminalizes the job as failed
// with a generic message. Failed jobs are not re-dispatched: handlers
// assume at most one successful attempt per state, not idempotent
// replay.
type StepRunner struct {
	repo       job.JobRepository
	dispatcher job.StepDispatcher
	handlers   map[job.JobType]map[job.JobState]StepHandler
	logger     *zap.Logger
}

// NewStepRunner creates a runner with an empty handler table
func NewStepRunner(repo job.JobRepository, dispatcher job.StepDispatcher, logger *zap.Logger) *StepRunner {
	return &StepRunner{
		repo:       repo,
		dispatcher: dispatcher,
		handlers:   make(map[job.JobType]map[job.JobState]StepHandler),
		logger:     logger,
	}
}

// Register binds a handler to one (type, state) pair
func (r *StepRunner) Register(jobType job.JobType, state job.JobState, handler StepHandler) {
	if r.handlers[jobType] == nil {
		r.handlers[jobType] = make(map[job.JobState]StepHandler)
	}
	r.handlers[jobType][state] = handler
}

// ProcessStep handles one step message. Stale messages (terminal job,
// state mismatch, unknown job) are dropped silently; delivery is
// at-least-once so duplicates are expected.
func (r *StepRunner) ProcessStep(ctx context.Context, msg job.StepMessage) error {
	j, err := r.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", msg.JobID, err)
	}
	if j == nil {
		r.logger.Warn("step message for unknown job", zap.String("job_id", msg.JobID.String()))
		return nil
	}
	if j.State.IsTerminal() || j.State != msg.State {
		r.logger.Debug("dropping stale step message",
			zap.String("job_id", msg.JobID.String()),
			zap.String("message_state", msg.State.String()),
			zap.String("job_state", j.State.String()))
		return nil
	}

	outcome, handlerErr := r.runHandler(ctx, j)
	if handlerErr != nil {
		r.logger.Error("job step failed",
			zap.String("job_id", j.ID.String()),
			zap.String("state", j.State.String()),
			zap.Error(handlerErr))
		j.Fail("unknown error")
		return r.repo.Update(ctx, j)
	}

	switch outcome {
	case OutcomeRepeat:
		if err := r.repo.Update(ctx, j); err != nil {
			return fmt.Errorf("persist job cursor: %w", err)
		}
		return r.dispatch(ctx, j)
	case OutcomeAdvance:
		if err := j.Advance(); err != nil {
			j.Fail("unknown error")
			return r.repo.Update(ctx, j)
		}
		if err := r.repo.Update(ctx, j); err != nil {
			return fmt.Errorf("persist job state: %w", err)
		}
		if j.State.IsTerminal() {
			return nil
		}
		return r.dispatch(ctx, j)
	default:
		return r.repo.Update(ctx, j)
	}
}

// runHandler executes one chunk with a panic barrier
func (r *StepRunner) runHandler(ctx context.Context, j *job.ResumableJob) (outcome StepOutcome, err error) {
	handlers, ok := r.handlers[j.Type]
	if !ok {
		return OutcomeDone, fmt.Errorf("no handlers registered for job type %q", j.Type)
	}
	handler, ok := handlers[j.State]
	if !ok {
		return OutcomeDone, fmt.Errorf("no handler registered for state %q", j.State)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = OutcomeDone
			err = fmt.Errorf("panic in job handler: %v", recovered)
		}
	}()
	return handler.Handle(ctx, j)
}

func (r *StepRunner) dispatch(ctx context.Context, j *job.ResumableJob) error {
	msg := job.StepMessage{JobID: j.ID, State: j.State}
	if err := r.dispatcher.Dispatch(ctx, msg); err != nil {
		return fmt.Errorf("dispatch job step: %w", err)
	}
	return nil
}
