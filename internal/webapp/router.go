package webapp

import (
	"github.com/gin-gonic/gin"

	coreH "github.com/docbridge/backend/internal/http/handlers"
	httpMW "github.com/docbridge/backend/internal/http/middleware"
	"github.com/docbridge/backend/internal/pkg/logger"
	webH "github.com/docbridge/backend/internal/webapp/handlers"
)

type RouterConfig struct {
	Log *logger.Logger

	DocumentHandler *webH.DocumentHandler
	HealthHandler   *coreH.HealthHandler
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

	if cfg.DocumentHandler != nil {
		r.POST("/documents", cfg.DocumentHandler.Upload)
		r.GET("/documents", cfg.DocumentHandler.List)
		r.DELETE("/documents/:ref", cfg.DocumentHandler.Delete)
		r.GET("/documents/:ref/status", cfg.DocumentHandler.GetStatus)
	}

	return r
}
