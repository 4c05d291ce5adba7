package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBatchConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadBatchConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "./uploads", cfg.InputDir)
	assert.Equal(t, "./medical/extractoutput", cfg.ExtractDir)
	assert.Equal(t, "output.csv", cfg.RawTextFile)
	assert.Equal(t, "output1.csv", cfg.DiagnosisFile)
}

func TestLoadBatchConfigFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inputDir: /data/scans\noutputCsv: /data/out.csv\nxlsxOutput: /data/out.xlsx\n"), 0644))
	t.Setenv("BATCH_OUTPUT_CSV", "/override/out.csv")

	cfg, err := LoadBatchConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/scans", cfg.InputDir)
	assert.Equal(t, "/override/out.csv", cfg.OutputCSV)
	assert.Equal(t, "/data/out.xlsx", cfg.XLSXOutput)
}

func TestLoadBatchConfigRejectsUnknownPublishTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("publish: ftp\n"), 0644))

	_, err := LoadBatchConfig(path)
	assert.Error(t, err)
}

func TestAnalyzerConfigValidate(t *testing.T) {
	cfg := &AnalyzerConfig{Backend: BackendFormRecognizer, Endpoint: "https://example.cognitiveservices.azure.com"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.Backend = "tesseract"
	assert.Error(t, cfg.Validate())
}

func TestLoadAnalyzerConfigFromEnv(t *testing.T) {
	t.Setenv("AZURE_FORM_RECOGNIZER_ENDPOINT", "https://example.cognitiveservices.azure.com/")
	t.Setenv("AZURE_FORM_RECOGNIZER_KEY", "k")
	t.Setenv("AZURE_FORM_RECOGNIZER_POLL_MS", "250")

	cfg := LoadAnalyzerConfig()

	assert.Equal(t, BackendFormRecognizer, cfg.Backend)
	assert.Equal(t, "prebuilt-document", cfg.ModelID)
	assert.Equal(t, int64(250), cfg.PollInterval.Milliseconds())
	assert.NoError(t, cfg.Validate())
}
