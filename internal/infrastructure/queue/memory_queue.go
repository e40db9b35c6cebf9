package queue

import (
	"context"
	"sync"

	"github.com/wms/backend/internal/domain/job"
	"go.uber.org/zap"
)

// InMemoryStepQueue carries step messages through a buffered channel.
// For single-process deployments and local development; messages do not
// survive a restart, but jobs do and can be re-dispatched from their
// persisted state.
type InMemoryStepQueue struct {
	messages chan job.StepMessage
	workers  int
	logger   *zap.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewInMemoryStepQueue creates an in-process step queue
func NewInMemoryStepQueue(workers, buffer int, logger *zap.Logger) *InMemoryStepQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &InMemoryStepQueue{
		messages: make(chan job.StepMessage, buffer),
		workers:  workers,
		logger:   logger,
	}
}

// Dispatch enqueues one step message
func (q *InMemoryStepQueue) Dispatch(ctx context.Context, msg job.StepMessage) error {
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the worker pool
func (q *InMemoryStepQueue) Start(processor StepProcessor) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func(worker int) {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-q.messages:
					if err := processor.ProcessStep(ctx, msg); err != nil {
						q.logger.Error("step processing failed",
							zap.Int("worker", worker),
							zap.String("job_id", msg.JobID.String()),
							zap.Error(err))
					}
				}
			}
		}(i)
	}
}

// Stop drains the worker pool
func (q *InMemoryStepQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

var _ job.StepDispatcher = (*InMemoryStepQueue)(nil)
