package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/diagnosis-extractor/api/handlers"
	"github.com/feichai0017/diagnosis-extractor/api/routes"
	"github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage/local"
)

func main() {
	cfg := config.GetServerConfig()

	// init logger
	log, err := logger.NewLogger(
		logger.WithLevel(cfg.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	uploads, err := local.NewLocalStorage(cfg.UploadDir, log)
	if err != nil {
		log.Fatal("Failed to prepare upload directory", logger.String("dir", cfg.UploadDir), logger.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, handlers.NewHandlers(uploads, log), log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server is running on port "+cfg.Port, logger.String("uploadDir", uploads.Dir()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped")
}
