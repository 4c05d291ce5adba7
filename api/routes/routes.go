package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/diagnosis-extractor/api/handlers"
	"github.com/feichai0017/diagnosis-extractor/api/middleware"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	r.GET("/health", h.Health.Check)
	r.POST("/upload-image", h.Upload.UploadImage)
}
