// Package http assembles the gin route tree and the API server around
// it.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/http/handlers"
	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of
// the complete route tree. Nil handlers are simply not mounted, which
// keeps partial wiring possible in tests.
type RouterConfig struct {
	Ships        *handlers.ShipHandler
	Certificates *handlers.CertificateHandler
	Equipment    *handlers.EquipmentHandler
	Compliance   *handlers.ComplianceHandler
	Health       *handlers.HealthHandler

	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector

	// Mode is the gin mode: "debug", "release" or "test".
	Mode string
}

// NewRouter builds the engine: global middleware, probe endpoints and
// the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
		r.Use(middleware.Recovery(cfg.Logger))
	} else {
		r.Use(gin.Recovery())
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(r)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.Ships != nil {
		cfg.Ships.RegisterRoutes(api)
	}
	if cfg.Certificates != nil {
		cfg.Certificates.RegisterRoutes(api)
	}
	if cfg.Equipment != nil {
		cfg.Equipment.RegisterRoutes(api)
	}
	if cfg.Compliance != nil {
		cfg.Compliance.RegisterRoutes(api)
	}

	return r
}
