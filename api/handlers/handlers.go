package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage"
)

type Handlers struct {
	Upload *UploadHandler
	Health *HealthHandler
}

// ErrorResponse is the JSON body of every 5xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHandlers(uploads storage.Storage, logger logger.Logger) *Handlers {
	return &Handlers{
		Upload: NewUploadHandler(uploads, logger),
		Health: &HealthHandler{},
	}
}

type HealthHandler struct{}

// Check reports liveness only; it does not touch the upload directory.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	errMsg := message
	if err != nil {
		errMsg = err.Error()
	}

	logger.FromContext(c.Request.Context(), log).Error(message,
		logger.Int("status", status),
		logger.String("path", c.Request.URL.Path),
		logger.String("error", errMsg),
	)

	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
