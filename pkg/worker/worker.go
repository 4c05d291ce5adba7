package worker

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

type Worker interface {
	Start(ctx context.Context) error
	Stop() error
}

type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Queues        map[string]int
}

type BaseWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger logger.Logger
}

func (w *BaseWorker) Stop() error {
	w.server.Shutdown()
	return nil
}
