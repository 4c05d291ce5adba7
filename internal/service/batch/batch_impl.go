package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	cfg "github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/internal/agent"
	"github.com/feichai0017/diagnosis-extractor/internal/extract"
	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage"
)

// ErrInputDirNotFound is returned when the input folder does not exist.
var ErrInputDirNotFound = errors.New("folder not found")

type Service struct {
	analyzer  DocumentAnalyzer
	publisher storage.Storage
	logger    logger.Logger
	config    *Config
}

type Config struct {
	ExtractDir    string
	RawTextFile   string
	DiagnosisFile string
	// XLSXOutput, when set, receives a workbook copy of the run's records.
	XLSXOutput string
}

// NewService builds the batch service. publisher may be nil.
func NewService(
	analyzer DocumentAnalyzer,
	publisher storage.Storage,
	log logger.Logger,
	config *Config,
) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.ExtractDir == "" {
		config.ExtractDir = "./medical/extractoutput"
	}
	if config.RawTextFile == "" {
		config.RawTextFile = "output.csv"
	}
	if config.DiagnosisFile == "" {
		config.DiagnosisFile = "output1.csv"
	}

	return &Service{
		analyzer:  analyzer,
		publisher: publisher,
		logger:    log.Named("batch"),
		config:    config,
	}
}

// GetService wires the configured analyzer and publish target.
func GetService(ctx context.Context, batchCfg *cfg.BatchConfig, log logger.Logger) (*Service, error) {
	adapter, err := agent.NewAdapterFromConfig(ctx, cfg.GetAnalyzerConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	var publisher storage.Storage
	if batchCfg.Publish != cfg.PublishNone {
		publisher, err = storage.NewStorage(ctx, storage.StorageType(batchCfg.Publish), log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
	}

	return NewService(adapter, publisher, log, &Config{
		ExtractDir:    batchCfg.ExtractDir,
		RawTextFile:   batchCfg.RawTextFile,
		DiagnosisFile: batchCfg.DiagnosisFile,
		XLSXOutput:    batchCfg.XLSXOutput,
	}), nil
}

// ProcessFolder analyzes every .png/.jpg/.jpeg in opts.InputDir in listing
// order and writes one CSV row per successfully analyzed image. A failing
// image is logged and skipped. A missing input folder returns
// ErrInputDirNotFound and leaves the output CSV untouched.
func (s *Service) ProcessFolder(ctx context.Context, opts RunOptions) (*models.RunSummary, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.New().String()
	}
	ctx = logger.WithRunID(ctx, opts.RunID)
	log := logger.FromContext(ctx, s.logger)

	summary := &models.RunSummary{
		RunID:     opts.RunID,
		Status:    models.RunRunning,
		InputDir:  opts.InputDir,
		OutputCSV: opts.OutputCSV,
		StartedAt: time.Now(),
	}

	if info, err := os.Stat(opts.InputDir); err != nil || !info.IsDir() {
		log.Error("Folder not found", logger.String("folder", opts.InputDir))
		return s.fail(summary, fmt.Errorf("%w: %s", ErrInputDirNotFound, opts.InputDir))
	}

	entries, err := os.ReadDir(opts.InputDir)
	if err != nil {
		log.Error("Failed to list folder", logger.String("folder", opts.InputDir), logger.Error(err))
		return s.fail(summary, fmt.Errorf("failed to list %s: %w", opts.InputDir, err))
	}

	r, err := openRun(opts.RunID, opts.OutputCSV, s.config)
	if err != nil {
		log.Error("Failed to open output", logger.String("output", opts.OutputCSV), logger.Error(err))
		return s.fail(summary, err)
	}
	defer r.close()

	log.Info("Start processing images...",
		logger.String("folder", opts.InputDir),
		logger.Int("entries", len(entries)),
	)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			log.Warn("Batch interrupted", logger.Error(err))
			summary.Errors = append(summary.Errors, err.Error())
			break
		}

		summary.Scanned++
		if entry.IsDir() || !agent.IsSupportedImage(entry.Name()) {
			continue
		}
		summary.Matched++

		rec, err := s.processFile(ctx, r, entry.Name(), filepath.Join(opts.InputDir, entry.Name()))
		if err != nil {
			log.Error("Error processing file",
				logger.String("file", entry.Name()),
				logger.Error(err),
			)
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}

		summary.Succeeded++
		summary.Records = append(summary.Records, *rec)
		log.Info(fmt.Sprintf("Processed %s: %s", rec.ImageName, rec.Diagnosis))
	}

	if err := r.close(); err != nil {
		log.Error("Failed to close output", logger.Error(err))
		summary.Errors = append(summary.Errors, err.Error())
	}
	for _, err := range r.auxErrors() {
		summary.Errors = append(summary.Errors, err.Error())
	}

	s.export(log, summary)
	s.publish(ctx, log, summary)

	summary.Status = models.RunCompleted
	summary.FinishedAt = time.Now()

	log.Info("Processing complete.",
		logger.Int("matched", summary.Matched),
		logger.Int("succeeded", summary.Succeeded),
		logger.Int("failed", summary.Failed),
		logger.Int("errors", len(summary.Errors)),
		logger.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	)

	return summary, nil
}

func (s *Service) processFile(ctx context.Context, r *run, name, path string) (*models.DiagnosisRecord, error) {
	result := s.analyzer.AnalyzeFile(ctx, path)
	if result == nil {
		return nil, errors.New("no analysis result")
	}
	text := result.Text()

	if err := r.appendRawText(text); err != nil {
		s.logger.Error("Error writing to CSV file", logger.Error(err))
	}

	rec := models.DiagnosisRecord{
		ImageName: name,
		Diagnosis: extract.Normalize(extract.FindProvisionalDiagnosis(text)),
	}

	if err := r.writeRecord(rec); err != nil {
		return nil, fmt.Errorf("failed to write csv row: %w", err)
	}

	if err := r.appendDiagnosis(rec.Diagnosis); err != nil {
		s.logger.Error("Error writing to CSV file", logger.Error(err))
	}

	return &rec, nil
}

func (s *Service) export(log logger.Logger, summary *models.RunSummary) {
	if s.config.XLSXOutput == "" {
		return
	}
	if err := writeXLSX(s.config.XLSXOutput, summary.Records); err != nil {
		log.Error("Failed to write xlsx", logger.String("path", s.config.XLSXOutput), logger.Error(err))
		summary.Errors = append(summary.Errors, err.Error())
	}
}

func (s *Service) publish(ctx context.Context, log logger.Logger, summary *models.RunSummary) {
	if s.publisher == nil {
		return
	}

	f, err := os.Open(summary.OutputCSV)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("publish: %v", err))
		return
	}
	defer f.Close()

	location, err := s.publisher.Store(ctx, f, filepath.Base(summary.OutputCSV))
	if err != nil {
		log.Error("Failed to publish results", logger.Error(err))
		summary.Errors = append(summary.Errors, fmt.Sprintf("publish: %v", err))
		return
	}
	summary.PublishedTo = location
	log.Info("Results published", logger.String("location", location))
}

// PrunePublished removes published results older than olderThan from the
// publish target. It is a no-op when publishing is disabled.
func (s *Service) PrunePublished(ctx context.Context, olderThan time.Duration) error {
	if s.publisher == nil || olderThan <= 0 {
		return nil
	}
	threshold := time.Now().Add(-olderThan)
	s.logger.Info("Pruning published results", logger.Time("before", threshold))
	if err := s.publisher.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to prune published results: %w", err)
	}
	return nil
}

func (s *Service) fail(summary *models.RunSummary, err error) (*models.RunSummary, error) {
	summary.Status = models.RunFailed
	summary.FinishedAt = time.Now()
	summary.Errors = append(summary.Errors, err.Error())
	return summary, err
}
