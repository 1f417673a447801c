package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/api/middleware"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
)

// RouterConfig wires the debug API
type RouterConfig struct {
	Manager   *sm.ServiceManager
	Processes ProcessSource
	Metrics   *monitoring.Metrics
	Gatherer  prometheus.Gatherer
	Tracer    *tracing.Tracer
	Logger    *zap.Logger
	Version   string

	// RateLimit is applied per client IP when non-nil
	RateLimit *middleware.RateLimitConfig
}

// NewRouter builds the debug API engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(cfg.Tracer))
	router.Use(monitoring.Middleware(cfg.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit != nil {
		cfg.Logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(*cfg.RateLimit))
	}

	handlers := NewHandlers(cfg.Manager, cfg.Processes, cfg.Metrics, cfg.Version)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/services", handlers.ListServices)
	router.GET("/services/:name", handlers.GetService)
	router.GET("/ports", handlers.ListNamedPorts)
	router.GET("/processes", handlers.ListProcesses)
	router.GET("/processes/:id", handlers.GetProcess)

	exposition := promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})
	router.GET("/metrics", func(c *gin.Context) {
		cfg.Metrics.UpdateUptime()
		exposition.ServeHTTP(c.Writer, c.Request)
	})
	router.GET("/metrics/json", handlers.MetricsJSON)

	return router
}
