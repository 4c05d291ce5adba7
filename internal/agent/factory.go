package agent

import (
	"context"
	"fmt"

	cfg "github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/internal/agent/formrecognizer"
	"github.com/feichai0017/diagnosis-extractor/internal/agent/preprocess"
	"github.com/feichai0017/diagnosis-extractor/internal/agent/textract"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

// NewAnalyzer builds the backend selected by analyzerCfg.Backend.
func NewAnalyzer(ctx context.Context, analyzerCfg *cfg.AnalyzerConfig, log logger.Logger) (Analyzer, error) {
	if err := analyzerCfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("Creating document analyzer",
		logger.String("backend", analyzerCfg.Backend),
	)

	switch analyzerCfg.Backend {
	case cfg.BackendFormRecognizer:
		client, err := formrecognizer.NewClient(&formrecognizer.Config{
			Endpoint:     analyzerCfg.Endpoint,
			APIKey:       analyzerCfg.APIKey,
			ModelID:      analyzerCfg.ModelID,
			APIVersion:   analyzerCfg.APIVersion,
			PollInterval: analyzerCfg.PollInterval,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create form recognizer client: %w", err)
		}
		return client, nil

	case cfg.BackendTextract:
		textractCfg := cfg.GetTextractConfig()
		processor, err := textract.NewProcessor(ctx, &textract.Config{
			Region:        textractCfg.Region,
			Endpoint:      textractCfg.Endpoint,
			AccessKey:     textractCfg.AccessKey,
			SecretKey:     textractCfg.SecretKey,
			MinConfidence: 0,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create textract processor: %w", err)
		}
		return processor, nil

	default:
		return nil, fmt.Errorf("unsupported analyzer backend: %s", analyzerCfg.Backend)
	}
}

// NewAdapterFromConfig wires the configured backend into an Adapter.
func NewAdapterFromConfig(ctx context.Context, analyzerCfg *cfg.AnalyzerConfig, log logger.Logger) (*Adapter, error) {
	analyzer, err := NewAnalyzer(ctx, analyzerCfg, log)
	if err != nil {
		return nil, err
	}
	return NewAdapter(analyzer, preprocess.Options{
		MaxBytes:     analyzerCfg.MaxUploadBytes,
		MaxDimension: analyzerCfg.MaxDimension,
	}, log), nil
}
