package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
	"github.com/feichai0017/diagnosis-extractor/pkg/storage"
)

const (
	uploadField      = "image"
	noFileUploaded   = "No file uploaded."
	uploadSuccessMsg = "Image uploaded successfully"
)

type UploadHandler struct {
	storage storage.Storage
	logger  logger.Logger
}

type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

func NewUploadHandler(storage storage.Storage, log logger.Logger) *UploadHandler {
	return &UploadHandler{
		storage: storage,
		logger:  log.Named("upload"),
	}
}

// UploadImage stores the "image" part under its original name. No type or
// size checks are made and an existing file with the same name is replaced.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		c.String(http.StatusBadRequest, noFileUploaded)
		return
	}

	file, err := header.Open()
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to read upload", err)
		return
	}
	defer file.Close()

	path, err := h.storage.Store(c.Request.Context(), file, header.Filename)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to store upload", err)
		return
	}

	logger.FromContext(c.Request.Context(), h.logger).Info("Image uploaded",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
		logger.String("filePath", path),
	)

	c.JSON(http.StatusOK, UploadResponse{
		Message:  uploadSuccessMsg,
		FilePath: path,
	})
}
