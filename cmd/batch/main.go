package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/internal/service/batch"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/queue"
)

func main() {
	configPath := flag.String("config", "batch.yaml", "path to the batch config file")
	inputDir := flag.String("input", "", "folder of images to analyze (overrides config)")
	outputCSV := flag.String("output", "", "results CSV path (overrides config)")
	enqueue := flag.Bool("enqueue", false, "submit the run to the worker queue instead of running it here")
	status := flag.String("status", "", "print the summary of a queued run and exit")
	pruneAfter := flag.Duration("prune-published", 0, "after the run, remove published results older than this (e.g. 720h)")
	flag.Parse()

	batchCfg, err := config.LoadBatchConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *inputDir != "" {
		batchCfg.InputDir = *inputDir
	}
	if *outputCSV != "" {
		batchCfg.OutputCSV = *outputCSV
	}

	log, err := logger.NewLogger(
		logger.WithLevel(batchCfg.LogLevel),
		logger.WithEncoding("console"),
		logger.WithOutputPaths([]string{"stdout", "logs/batch.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *status != "":
		printStatus(ctx, log, *status)
	case *enqueue:
		submit(ctx, log, batchCfg)
	default:
		runLocal(ctx, log, batchCfg, *pruneAfter)
	}
}

func runLocal(ctx context.Context, log logger.Logger, batchCfg *config.BatchConfig, pruneAfter time.Duration) {
	if err := config.GetAnalyzerConfig().Validate(); err != nil {
		log.Fatal("Analyzer is not configured", logger.Error(err))
	}

	svc, err := batch.GetService(ctx, batchCfg, log)
	if err != nil {
		log.Fatal("Failed to create batch service", logger.Error(err))
	}

	summary, err := svc.ProcessFolder(ctx, batch.RunOptions{
		InputDir:  batchCfg.InputDir,
		OutputCSV: batchCfg.OutputCSV,
	})
	if err != nil {
		log.Error("Batch run failed", logger.Error(err))
		return
	}

	log.Info("Batch run summary",
		logger.String("run_id", summary.RunID),
		logger.String("output", summary.OutputCSV),
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Strings("errors", summary.Errors),
	)

	if err := svc.PrunePublished(ctx, pruneAfter); err != nil {
		log.Error("Prune failed", logger.Error(err))
	}
}

func newQueue(log logger.Logger) *queue.AsynqQueue {
	redisCfg := config.GetRedisConfig()
	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to queue", logger.Error(err))
	}
	return q
}

func submit(ctx context.Context, log logger.Logger, batchCfg *config.BatchConfig) {
	q := newQueue(log)
	defer q.Close()

	req := &queue.RunRequest{
		RunID:       uuid.New().String(),
		InputDir:    batchCfg.InputDir,
		OutputCSV:   batchCfg.OutputCSV,
		RequestedAt: time.Now(),
	}
	if err := q.Enqueue(ctx, req); err != nil {
		log.Fatal("Failed to enqueue batch run", logger.Error(err))
	}
	log.Info("Batch run queued", logger.String("run_id", req.RunID))
}

func printStatus(ctx context.Context, log logger.Logger, runID string) {
	q := newQueue(log)
	defer q.Close()

	summary, err := q.GetRunSummary(ctx, runID)
	if err != nil {
		log.Fatal("Failed to get run status", logger.String("run_id", runID), logger.Error(err))
	}
	log.Info("Batch run status",
		logger.String("run_id", summary.RunID),
		logger.String("status", string(summary.Status)),
		logger.Int("matched", summary.Matched),
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.String("publishedTo", summary.PublishedTo),
	)
}
