package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/lpr/internal/api/handlers"
	"github.com/your-org/lpr/internal/api/ws"
	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/internal/runs"
)

type RouterConfig struct {
	Catalog *catalog.Catalog
	Runs    *runs.Manager
	Hub     *ws.Hub
	// Ping reports broker health for /readyz. Nil when NATS is disabled.
	Ping func() error

	DefaultModel   string
	MaxUploadBytes int64
	WaitTimeout    time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	defaultModel := cfg.DefaultModel
	if defaultModel == "" {
		defaultModel = cfg.Catalog.Default()
	}

	// System endpoints
	systemH := handlers.NewSystemHandler(cfg.Ping)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Models
	modelH := handlers.NewModelHandler(cfg.Catalog, defaultModel)
	v1.GET("/models", modelH.List)
	v1.GET("/models/:id", modelH.Get)

	// Detections
	detH := handlers.NewDetectionHandler(cfg.Runs, handlers.DetectionOptions{
		DefaultModel:   defaultModel,
		MaxUploadBytes: cfg.MaxUploadBytes,
		WaitTimeout:    cfg.WaitTimeout,
	})
	v1.POST("/detections", detH.Create)
	v1.GET("/detections", detH.List)
	v1.GET("/detections/:id", detH.Get)
	v1.DELETE("/detections/:id", detH.Delete)

	return r
}
