package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/diagnosis-extractor/api/handlers"
	"github.com/feichai0017/diagnosis-extractor/api/middleware"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage/local"
)

func newRouter(t *testing.T) (*gin.Engine, string, *logger.TestLogger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := filepath.Join(t.TempDir(), "uploads")
	log := logger.NewTestLogger()
	store, err := local.NewLocalStorage(dir, log)
	require.NoError(t, err)

	r := gin.New()
	SetupRoutes(r, handlers.NewHandlers(store, log), log)
	return r, dir, log
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func upload(r *gin.Engine, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUploadImageStoresFile(t *testing.T) {
	r, dir, _ := newRouter(t)
	content := []byte("\x89PNG fake image bytes")

	body, ct := multipartBody(t, "image", "scan.png", content)
	rec := upload(r, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Image uploaded successfully", resp.Message)
	assert.Equal(t, filepath.Join(dir, "scan.png"), resp.FilePath)

	stored, err := os.ReadFile(filepath.Join(dir, "scan.png"))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestUploadImageOverwritesSameName(t *testing.T) {
	r, dir, _ := newRouter(t)

	body, ct := multipartBody(t, "image", "scan.jpg", []byte("first"))
	require.Equal(t, http.StatusOK, upload(r, body, ct).Code)
	body, ct = multipartBody(t, "image", "scan.jpg", []byte("second"))
	require.Equal(t, http.StatusOK, upload(r, body, ct).Code)

	stored, err := os.ReadFile(filepath.Join(dir, "scan.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(stored))
}

func TestUploadImageAcceptsAnyType(t *testing.T) {
	r, dir, _ := newRouter(t)

	body, ct := multipartBody(t, "image", "notes.txt", []byte("plain text"))
	rec := upload(r, body, ct)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestUploadImageMissingField(t *testing.T) {
	r, dir, _ := newRouter(t)

	tests := []struct {
		name  string
		field string
	}{
		{"no file part", ""},
		{"wrong field name", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.field, "scan.png", []byte("x"))
			rec := upload(r, body, ct)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "No file uploaded.", rec.Body.String())
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadImageNotMultipart(t *testing.T) {
	r, _, _ := newRouter(t)

	rec := upload(r, bytes.NewBufferString(`{"image":"x"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded.", rec.Body.String())
}

func TestHealth(t *testing.T) {
	r, _, log := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
	assert.True(t, log.Contains("INFO", "Request handled"))
}
