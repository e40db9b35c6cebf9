package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wms/backend/internal/domain/job"
	"go.uber.org/zap"
)

type recordingProcessor struct {
	mu       sync.Mutex
	received []job.StepMessage
	done     chan struct{}
	want     int
}

func (p *recordingProcessor) ProcessStep(_ context.Context, msg job.StepMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, msg)
	if len(p.received) == p.want {
		close(p.done)
	}
	return nil
}

func TestInMemoryStepQueue(t *testing.T) {
	t.Run("delivers dispatched messages to the processor", func(t *testing.T) {
		q := NewInMemoryStepQueue(2, 16, zap.NewNop())
		processor := &recordingProcessor{done: make(chan struct{}), want: 3}

		q.Start(processor)
		defer q.Stop()

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			err := q.Dispatch(ctx, job.StepMessage{JobID: uuid.New(), State: job.JobStateRunning})
			require.NoError(t, err)
		}

		select {
		case <-processor.done:
		case <-time.After(2 * time.Second):
			t.Fatal("messages not processed in time")
		}

		processor.mu.Lock()
		defer processor.mu.Unlock()
		assert.Len(t, processor.received, 3)
		for _, msg := range processor.received {
			assert.Equal(t, job.JobStateRunning, msg.State)
		}
	})

	t.Run("dispatch honors context cancellation when full", func(t *testing.T) {
		q := NewInMemoryStepQueue(0, 1, zap.NewNop())

		ctx := context.Background()
		require.NoError(t, q.Dispatch(ctx, job.StepMessage{JobID: uuid.New()}))

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		err := q.Dispatch(cancelled, job.StepMessage{JobID: uuid.New()})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
