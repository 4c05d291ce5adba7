package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/internal/service/batch"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/queue"
)

// SummaryStore persists run summaries. queue.AsynqQueue implements it.
type SummaryStore interface {
	SaveRunSummary(ctx context.Context, summary *models.RunSummary) error
}

// BatchWorker executes queued batch runs, one at a time.
type BatchWorker struct {
	BaseWorker
	processor batch.BatchProcessor
	summaries SummaryStore
}

func NewBatchWorker(cfg *Config, processor batch.BatchProcessor, summaries SummaryStore, log logger.Logger) *BatchWorker {
	queues := cfg.Queues
	if len(queues) == 0 {
		queues = map[string]int{queue.QueueBatch: 1}
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			// documents are processed strictly sequentially
			Concurrency: 1,
			Queues:      queues,
		},
	)

	w := &BatchWorker{
		BaseWorker: BaseWorker{
			server: server,
			mux:    asynq.NewServeMux(),
			logger: log.Named("worker"),
		},
		processor: processor,
		summaries: summaries,
	}

	w.registerHandlers()
	return w
}

func (w *BatchWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeBatchRun, w.handleBatchRun)
}

func (w *BatchWorker) handleBatchRun(ctx context.Context, t *asynq.Task) error {
	var req queue.RunRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		w.logger.Error("Failed to unmarshal run request",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal run request: %v: %w", err, asynq.SkipRetry)
	}
	if req.RunID == "" || req.InputDir == "" || req.OutputCSV == "" {
		return fmt.Errorf("invalid run request: missing required fields: %w", asynq.SkipRetry)
	}

	log := w.logger.With(logger.String("run_id", req.RunID))
	log.Info("Batch run started",
		logger.String("inputDir", req.InputDir),
		logger.String("outputCsv", req.OutputCSV),
	)

	w.save(ctx, log, &models.RunSummary{
		RunID:     req.RunID,
		Status:    models.RunRunning,
		InputDir:  req.InputDir,
		OutputCSV: req.OutputCSV,
		StartedAt: time.Now(),
	})

	summary, err := w.processor.ProcessFolder(ctx, batch.RunOptions{
		RunID:     req.RunID,
		InputDir:  req.InputDir,
		OutputCSV: req.OutputCSV,
	})
	if summary != nil {
		w.save(ctx, log, summary)
	}
	if err != nil {
		log.Error("Batch run failed", logger.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log.Info("Batch run finished",
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
	)
	return nil
}

func (w *BatchWorker) save(ctx context.Context, log logger.Logger, summary *models.RunSummary) {
	if err := w.summaries.SaveRunSummary(ctx, summary); err != nil {
		log.Error("Failed to save run summary", logger.Error(err))
	}
}

func (w *BatchWorker) Start(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
