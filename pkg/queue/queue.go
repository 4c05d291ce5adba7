package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
)

const (
	TaskTypeBatchRun = "batch:run"

	// QueueBatch is the only queue; the worker drains it one run at a time.
	QueueBatch = "batch"

	summaryTTL = 7 * 24 * time.Hour
)

var _ Queue = (*AsynqQueue)(nil)

// ErrRunNotFound is returned when neither Redis nor asynq know a run id.
var ErrRunNotFound = errors.New("batch run not found")

// Queue submits batch runs and tracks their summaries.
type Queue interface {
	Enqueue(ctx context.Context, req *RunRequest) error
	GetRunSummary(ctx context.Context, runID string) (*models.RunSummary, error)
	SaveRunSummary(ctx context.Context, summary *models.RunSummary) error
	CancelRun(ctx context.Context, runID string) error
	Close() error
}

// RunRequest is the payload of a batch:run task.
type RunRequest struct {
	RunID       string    `json:"runId"`
	InputDir    string    `json:"inputDir"`
	OutputCSV   string    `json:"outputCsv"`
	RequestedAt time.Time `json:"requestedAt"`
}

type QueueConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Timeout       time.Duration
}

// AsynqQueue implements Queue on asynq, with summaries kept in Redis.
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	timeout   time.Duration
}

func NewAsynqQueue(cfg *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Hour
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		timeout:   timeout,
	}, nil
}

// Enqueue submits a run. Runs are never retried.
func (q *AsynqQueue) Enqueue(ctx context.Context, req *RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal run request: %w", err)
	}

	t := asynq.NewTask(TaskTypeBatchRun, payload,
		asynq.Queue(QueueBatch),
		asynq.MaxRetry(0),
		asynq.Timeout(q.timeout),
		asynq.TaskID(req.RunID),
		asynq.Retention(summaryTTL),
	)
	if _, err := q.client.EnqueueContext(ctx, t); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return q.SaveRunSummary(ctx, &models.RunSummary{
		RunID:     req.RunID,
		Status:    models.RunPending,
		InputDir:  req.InputDir,
		OutputCSV: req.OutputCSV,
		StartedAt: req.RequestedAt,
	})
}

// GetRunSummary prefers the summary saved by the worker and falls back to
// the task state held by asynq.
func (q *AsynqQueue) GetRunSummary(ctx context.Context, runID string) (*models.RunSummary, error) {
	data, err := q.redis.Get(ctx, summaryKey(runID)).Bytes()
	if err == nil {
		var summary models.RunSummary
		if err := json.Unmarshal(data, &summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
		}
		return &summary, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get summary from redis: %w", err)
	}

	info, err := q.inspector.GetTaskInfo(QueueBatch, runID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to inspect task: %w", err)
	}
	return summaryFromTaskInfo(info), nil
}

func (q *AsynqQueue) SaveRunSummary(ctx context.Context, summary *models.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := q.redis.Set(ctx, summaryKey(summary.RunID), data, summaryTTL).Err(); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// CancelRun removes a run that has not started yet.
func (q *AsynqQueue) CancelRun(ctx context.Context, runID string) error {
	if err := q.inspector.DeleteTask(QueueBatch, runID); err != nil {
		return fmt.Errorf("failed to cancel run: %w", err)
	}
	return q.redis.Del(ctx, summaryKey(runID)).Err()
}

func (q *AsynqQueue) Close() error {
	return multierr.Combine(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

func summaryKey(runID string) string {
	return fmt.Sprintf("batch_run:%s", runID)
}

func summaryFromTaskInfo(info *asynq.TaskInfo) *models.RunSummary {
	summary := &models.RunSummary{RunID: info.ID}

	var req RunRequest
	if err := json.Unmarshal(info.Payload, &req); err == nil {
		summary.InputDir = req.InputDir
		summary.OutputCSV = req.OutputCSV
		summary.StartedAt = req.RequestedAt
	}

	switch info.State {
	case asynq.TaskStateActive:
		summary.Status = models.RunRunning
	case asynq.TaskStateCompleted:
		summary.Status = models.RunCompleted
		summary.FinishedAt = info.CompletedAt
	case asynq.TaskStateArchived, asynq.TaskStateRetry:
		summary.Status = models.RunFailed
		if info.LastErr != "" {
			summary.Errors = []string{info.LastErr}
		}
	default:
		summary.Status = models.RunPending
	}
	return summary
}
