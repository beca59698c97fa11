package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-backend/internal/http/middleware"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

type RouterConfig struct {
	HealthHandler *httpH.HealthHandler
	Logger        *logger.Logger
}

// NewRouter wires the pipeline's operational surface: a liveness probe and
// a JSON dump of the run summary, nothing more. This is a batch worker, not
// a served API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("gazette-pipeline"))
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Logger))

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
		r.GET("/summary", cfg.HealthHandler.Summary)
	}

	return r
}
