package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Publish targets for the finished results file.
const (
	PublishNone  = ""
	PublishS3    = "s3"
	PublishMinio = "minio"
)

// BatchConfig holds the filesystem layout of a batch run.
type BatchConfig struct {
	InputDir   string `yaml:"inputDir"`
	OutputCSV  string `yaml:"outputCsv"`
	ExtractDir string `yaml:"extractDir"`
	// RawTextFile and DiagnosisFile live under ExtractDir.
	RawTextFile   string `yaml:"rawTextFile"`
	DiagnosisFile string `yaml:"diagnosisFile"`
	XLSXOutput    string `yaml:"xlsxOutput"`
	Publish       string `yaml:"publish"`
	LogLevel      string `yaml:"logLevel"`
}

// DefaultBatchConfig mirrors the folder layout the upload receiver writes to.
func DefaultBatchConfig() *BatchConfig {
	return &BatchConfig{
		InputDir:      "./uploads",
		OutputCSV:     "./test_folder/provisional_diagnosis_results2.csv",
		ExtractDir:    "./medical/extractoutput",
		RawTextFile:   "output.csv",
		DiagnosisFile: "output1.csv",
		LogLevel:      "info",
	}
}

// LoadBatchConfig starts from the defaults, overlays the YAML file at path
// (a missing file is not an error) and finally applies BATCH_* env overrides.
func LoadBatchConfig(path string) (*BatchConfig, error) {
	loadEnv()
	cfg := DefaultBatchConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read batch config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse batch config %s: %w", path, err)
			}
		}
	}

	cfg.InputDir = getenv("BATCH_INPUT_DIR", cfg.InputDir)
	cfg.OutputCSV = getenv("BATCH_OUTPUT_CSV", cfg.OutputCSV)
	cfg.ExtractDir = getenv("BATCH_EXTRACT_DIR", cfg.ExtractDir)
	cfg.XLSXOutput = getenv("BATCH_XLSX_OUTPUT", cfg.XLSXOutput)
	cfg.Publish = getenv("BATCH_PUBLISH", cfg.Publish)
	cfg.LogLevel = getenv("LOG_LEVEL", cfg.LogLevel)

	switch cfg.Publish {
	case PublishNone, PublishS3, PublishMinio:
	default:
		return nil, fmt.Errorf("unsupported publish target: %s", cfg.Publish)
	}
	if cfg.RawTextFile == "" || cfg.DiagnosisFile == "" {
		return nil, errors.New("rawTextFile and diagnosisFile must not be empty")
	}

	return cfg, nil
}
