package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "batch.log")

	log, err := NewLogger(
		WithLevel("debug"),
		WithEncoding("json"),
		WithOutputPaths([]string{path}),
		WithErrorPaths(nil),
	)
	require.NoError(t, err)

	log.Named("batch").Info("Processed a.jpg", String("diagnosis", "ACUTE APPENDICITIS"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Processed a.jpg"`)
	assert.Contains(t, string(data), `"logger":"batch"`)
	assert.Contains(t, string(data), `"diagnosis":"ACUTE APPENDICITIS"`)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"), WithOutputPaths([]string{"stdout"}), WithErrorPaths(nil))
	assert.Error(t, err)
}

func TestTestLoggerSharesEntriesWithChildren(t *testing.T) {
	log := NewTestLogger()
	child := log.Named("upload").With(String("request_id", "r1"))

	child.Error("No file uploaded")
	log.Info("Server is running")

	entries := log.GetEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "upload", entries[0].Logger)
	assert.Len(t, entries[0].Fields, 1)
	assert.True(t, log.Contains("ERROR", "No file"))
	assert.False(t, log.Contains("INFO", "No file"))

	log.Clear()
	assert.Empty(t, log.GetEntries())
}

func TestFromContextAddsIDs(t *testing.T) {
	log := NewTestLogger()
	ctx := WithRunID(WithRequestID(context.Background(), "req-1"), "run-1")

	FromContext(ctx, log).Info("hello")

	entries := log.GetEntries()
	require.Len(t, entries, 1)
	keys := []string{}
	for _, f := range entries[0].Fields {
		keys = append(keys, f.Key)
	}
	assert.ElementsMatch(t, []string{"request_id", "run_id"}, keys)
}
