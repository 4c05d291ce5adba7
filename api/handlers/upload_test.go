package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

type failingStorage struct{}

func (failingStorage) Store(ctx context.Context, r io.Reader, name string) (string, error) {
	return "", errors.New("disk full")
}
func (failingStorage) Get(ctx context.Context, id string) (io.ReadCloser, error) { return nil, nil }
func (failingStorage) Delete(ctx context.Context, id string) error              { return nil }
func (failingStorage) CleanupBefore(ctx context.Context, t time.Time) error     { return nil }

func TestUploadImageStorageFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewTestLogger()
	h := NewUploadHandler(failingStorage{}, log)

	r := gin.New()
	r.POST("/upload-image", h.UploadImage)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", "scan.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("bytes"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-image", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Internal Server Error", resp.Error)
	assert.Equal(t, "Failed to store upload", resp.Message)
	assert.True(t, log.Contains("ERROR", "Failed to store upload"))
}
