package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wms/backend/internal/domain/job"
	"github.com/wms/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StepProcessor consumes one step message. Satisfied by the job
// pipeline's StepRunner.
type StepProcessor interface {
	ProcessStep(ctx context.Context, msg job.StepMessage) error
}

// RedisStepQueue carries step messages through a Redis list. Dispatch
// pushes, a worker pool blocks on pops. At-least-once: a worker dying
// mid-step loses nothing because the runner drops stale messages and
// the job can be re-dispatched.
type RedisStepQueue struct {
	client       *redis.Client
	key          string
	workers      int
	pollInterval time.Duration
	logger       *zap.Logger
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// NewRedisStepQueue creates a queue over a fresh Redis connection
func NewRedisStepQueue(cfg *config.RedisConfig, jobCfg *config.JobConfig, logger *zap.Logger) (*RedisStepQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStepQueueWithClient(client, jobCfg, logger), nil
}

// NewRedisStepQueueWithClient creates a queue over an existing client
func NewRedisStepQueueWithClient(client *redis.Client, jobCfg *config.JobConfig, logger *zap.Logger) *RedisStepQueue {
	return &RedisStepQueue{
		client:       client,
		key:          jobCfg.QueueKey,
		workers:      jobCfg.Workers,
		pollInterval: jobCfg.PollInterval,
		logger:       logger,
	}
}

// Dispatch enqueues one step message
func (q *RedisStepQueue) Dispatch(ctx context.Context, msg job.StepMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal step message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue step message: %w", err)
	}
	return nil
}

// Start launches the worker pool consuming step messages
func (q *RedisStepQueue) Start(processor StepProcessor) {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.consume(ctx, processor, i)
	}
	q.logger.Info("job step workers started",
		zap.Int("workers", q.workers),
		zap.String("queue", q.key))
}

// Stop drains the worker pool. Workers finish their current step before
// returning.
func (q *RedisStepQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
	q.logger.Info("job step workers stopped")
}

// Close closes the Redis client
func (q *RedisStepQueue) Close() error {
	return q.client.Close()
}

func (q *RedisStepQueue) consume(ctx context.Context, processor StepProcessor, worker int) {
	defer q.wg.Done()
	log := q.logger.With(zap.Int("worker", worker))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := q.client.BRPop(ctx, q.pollInterval, q.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Error("failed to pop step message", zap.Error(err))
			continue
		}
		// BRPOP returns [key, value]
		if len(result) != 2 {
			continue
		}

		var msg job.StepMessage
		if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
			log.Error("dropping malformed step message", zap.Error(err))
			continue
		}

		if err := processor.ProcessStep(ctx, msg); err != nil {
			log.Error("step processing failed",
				zap.String("job_id", msg.JobID.String()),
				zap.String("state", msg.State.String()),
				zap.Error(err))
		}
	}
}

var _ job.StepDispatcher = (*RedisStepQueue)(nil)
