package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/docbridge/backend/internal/http/handlers"
	httpMW "github.com/docbridge/backend/internal/http/middleware"
	"github.com/docbridge/backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	FileHandler   *httpH.FileHandler
	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.FileHandler != nil {
		r.POST("/file", cfg.FileHandler.Upload)
		r.GET("/files", cfg.FileHandler.ListFiles)
		r.GET("/file/:id", cfg.FileHandler.GetFile)
		r.DELETE("/file/:id", cfg.FileHandler.Delete)
		r.GET("/file/:id/status", cfg.FileHandler.GetStatus)
		r.GET("/file/:id/chunks", cfg.FileHandler.ListChunks)
		r.GET("/file/:id/content", cfg.FileHandler.Download)
	}

	return r
}
