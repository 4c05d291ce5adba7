package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/internal/service/batch"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/queue"
	"github.com/feichai0017/diagnosis-extractor/pkg/worker"
)

func main() {
	batchCfg, err := config.LoadBatchConfig(os.Getenv("BATCH_CONFIG"))
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(
		logger.WithLevel(batchCfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := config.GetAnalyzerConfig().Validate(); err != nil {
		log.Error("Analyzer is not configured", logger.Error(err))
		os.Exit(1)
	}

	svc, err := batch.GetService(ctx, batchCfg, log)
	if err != nil {
		log.Error("Failed to create batch service", logger.Error(err))
		os.Exit(1)
	}

	redisCfg := config.GetRedisConfig()
	q, err := queue.NewAsynqQueue(&queue.QueueConfig{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	})
	if err != nil {
		log.Error("Failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer q.Close()

	batchWorker := worker.NewBatchWorker(&worker.Config{
		RedisAddr:     redisCfg.Addr,
		RedisPassword: redisCfg.Password,
		RedisDB:       redisCfg.DB,
	}, svc, q, log)

	if err := batchWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.String("queue", queue.QueueBatch))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	batchWorker.Stop()
	log.Info("Worker stopped")
}
