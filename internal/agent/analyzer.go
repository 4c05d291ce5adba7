package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/feichai0017/diagnosis-extractor/internal/agent/preprocess"
	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

// Analyzer submits one document to a document analysis service and waits
// for the result.
type Analyzer interface {
	Analyze(ctx context.Context, reader io.Reader) (*models.AnalysisResult, error)
	Name() string
	Close() error
}

// extToMIME lists the image types the batch submits for analysis.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// IsSupportedImage reports whether name has a .png, .jpg or .jpeg extension,
// ignoring case.
func IsSupportedImage(name string) bool {
	_, ok := extToMIME[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MIMEType returns the content type for a supported image name.
func MIMEType(name string) (string, bool) {
	mimeType, ok := extToMIME[strings.ToLower(filepath.Ext(name))]
	return mimeType, ok
}

// Adapter turns analyzer failures into a nil result. Callers never see the
// error; it is logged here.
type Adapter struct {
	analyzer   Analyzer
	preprocess preprocess.Options
	logger     logger.Logger
}

func NewAdapter(analyzer Analyzer, opts preprocess.Options, log logger.Logger) *Adapter {
	return &Adapter{
		analyzer:   analyzer,
		preprocess: opts,
		logger:     log.Named("analyzer"),
	}
}

// AnalyzeFile reads path, submits its bytes and blocks until the analysis
// completes. It returns nil when anything fails.
func (a *Adapter) AnalyzeFile(ctx context.Context, path string) *models.AnalysisResult {
	log := logger.FromContext(ctx, a.logger).With(
		logger.String("file", filepath.Base(path)),
		logger.String("backend", a.analyzer.Name()),
	)

	result, err := a.analyzeFile(ctx, path, log)
	if err != nil {
		log.Error("Error analyzing document", logger.Error(err))
		return nil
	}
	return result
}

func (a *Adapter) analyzeFile(ctx context.Context, path string, log logger.Logger) (*models.AnalysisResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, resized, err := preprocess.FitForUpload(data, a.preprocess)
	if err != nil {
		return nil, err
	}
	if resized {
		log.Info("Image downscaled before analysis", logger.Int("bytes", len(data)))
	}

	start := time.Now()
	result, err := a.analyzer.Analyze(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("analyzer %s returned no result", a.analyzer.Name())
	}

	log.Debug("Document analyzed",
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("pages", result.Pages),
	)
	return result, nil
}

func (a *Adapter) Close() error {
	return a.analyzer.Close()
}
