package agent

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/feichai0017/diagnosis-extractor/config"
	"github.com/feichai0017/diagnosis-extractor/internal/agent/formrecognizer"
	"github.com/feichai0017/diagnosis-extractor/internal/agent/preprocess"
	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

type stubAnalyzer struct {
	got    []byte
	result *models.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, r io.Reader) (*models.AnalysisResult, error) {
	s.got, _ = io.ReadAll(r)
	return s.result, s.err
}
func (s *stubAnalyzer) Name() string { return "stub" }
func (s *stubAnalyzer) Close() error { return nil }

func TestIsSupportedImage(t *testing.T) {
	for name, want := range map[string]bool{
		"a.jpg":      true,
		"c.PNG":      true,
		"scan.JpEg":  true,
		"b.txt":      false,
		"report.pdf": false,
		"noext":      false,
		"photo.jpg.": false,
	} {
		assert.Equal(t, want, IsSupportedImage(name), name)
	}

	mimeType, ok := MIMEType("c.PNG")
	assert.True(t, ok)
	assert.Equal(t, "image/png", mimeType)
}

func TestAdapterReturnsResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))

	content := "Provisional diagnosis: Fever"
	stub := &stubAnalyzer{result: &models.AnalysisResult{Content: &content}}
	adapter := NewAdapter(stub, preprocess.Options{}, logger.NewTestLogger())

	result := adapter.AnalyzeFile(context.Background(), path)
	require.NotNil(t, result)
	assert.Equal(t, content, result.Text())
	assert.Equal(t, []byte("raw"), stub.got)
}

func TestAdapterSwallowsAndLogsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))

	log := logger.NewTestLogger()
	adapter := NewAdapter(&stubAnalyzer{err: errors.New("service unavailable")}, preprocess.Options{}, log)

	assert.Nil(t, adapter.AnalyzeFile(context.Background(), path))
	assert.True(t, log.Contains("ERROR", "Error analyzing document"))

	assert.Nil(t, adapter.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")))
}

func TestAdapterNilResultIsFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(path, []byte("raw"), 0644))

	adapter := NewAdapter(&stubAnalyzer{}, preprocess.Options{}, logger.NewTestLogger())
	assert.Nil(t, adapter.AnalyzeFile(context.Background(), path))
}

func TestNewAnalyzerSelectsBackend(t *testing.T) {
	analyzer, err := NewAnalyzer(context.Background(), &cfg.AnalyzerConfig{
		Backend:  cfg.BackendFormRecognizer,
		Endpoint: "https://example.cognitiveservices.azure.com",
		APIKey:   "k",
	}, logger.NewTestLogger())
	require.NoError(t, err)
	assert.Equal(t, formrecognizer.BackendName, analyzer.Name())

	_, err = NewAnalyzer(context.Background(), &cfg.AnalyzerConfig{Backend: cfg.BackendFormRecognizer}, logger.NewTestLogger())
	assert.ErrorIs(t, err, cfg.ErrMissingCredentials)
}
