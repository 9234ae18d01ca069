// Command apiserver runs the SeaCert compliance HTTP API: ship registry,
// certificate and equipment endpoints, the compliance calendar and the
// fleet recalculation trigger.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/SeaCert-Compliance/internal/application/compliance"
	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/certificate"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/equipment"
	"github.com/turtacn/SeaCert-Compliance/internal/domain/ship"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/database/redis"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/storage/minio"
	httpapi "github.com/turtacn/SeaCert-Compliance/internal/interfaces/http"
	"github.com/turtacn/SeaCert-Compliance/internal/interfaces/http/handlers"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const (
	defaultConfigPath = "configs/config.yaml"
	startupTimeout    = 30 * time.Second
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	skipMigrate := flag.Bool("skip-migrations", false, "do not run database migrations on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to defaults and environment\n", err)
		cfg = config.NewDefaultConfig()
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("starting seacert api server",
		logging.String("version", Version),
		logging.String("host", cfg.Server.Host),
		logging.Int("port", cfg.Server.Port),
	)

	if err := run(cfg, logger, *skipMigrate); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger, skipMigrate bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	// PostgreSQL
	if !skipMigrate {
		if err := postgres.RunMigrations(postgres.ConnString(cfg.Database), cfg.Database.MigrationPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}

	conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close()

	// Redis
	redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)

	// Kafka
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	if tm, tmErr := kafka.NewTopicManager(cfg.Kafka.Brokers, logger); tmErr != nil {
		logger.Warn("kafka topic provisioning skipped", logging.Err(tmErr))
	} else {
		if err := tm.EnsurePlatformTopics(ctx, cfg.Kafka.DLQTopic); err != nil {
			logger.Warn("failed to ensure kafka topics", logging.Err(err))
		}
		tm.Close()
	}

	// MinIO
	minioClient, err := minio.NewClient(ctx, cfg.MinIO, logger)
	if err != nil {
		return fmt.Errorf("connect to minio: %w", err)
	}
	archive := minio.NewRepository(minioClient, logger)

	// Domain services
	shipRepo := repositories.NewShipRepository(conn.Pool(), logger)
	certRepo := repositories.NewCertificateRepository(conn.Pool(), logger)
	equipRepo := repositories.NewEquipmentRepository(conn.Pool(), logger)

	ships := ship.NewService(shipRepo, logger)
	certs := certificate.NewService(certRepo, logger)
	equip := equipment.NewService(equipRepo, ships, logger)

	// Application services
	complianceSvc := compliance.NewService(ships, certs, equip, cache, cfg.Scheduling, logger)
	calendarSvc := compliance.NewCalendarService(ships, certs, equip, cfg.Scheduling.WarningDays, logger)
	alertSvc := compliance.NewAlertService(ships, certs, equip, producer, cache, archive, cfg.Scheduling, logger)

	// Metrics
	var (
		appMetrics *prometheus.AppMetrics
		collector  prometheus.MetricsCollector
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            "apiserver",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return fmt.Errorf("create metrics collector: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
	}

	warningDays := complianceSvc.WarningDays()

	engine := httpapi.NewRouter(httpapi.RouterConfig{
		Ships:        handlers.NewShipHandler(ships, certs, equip, warningDays, logger),
		Certificates: handlers.NewCertificateHandler(certs, producer, warningDays, logger),
		Equipment:    handlers.NewEquipmentHandler(equip, warningDays, logger),
		Compliance:   handlers.NewComplianceHandler(complianceSvc, calendarSvc, alertSvc, producer, logger),
		Health: handlers.NewHealthHandler(Version,
			handlers.Probe{Name: "postgres", Check: conn.HealthCheck},
			handlers.Probe{Name: "redis", Check: redisClient.HealthCheck},
			handlers.Probe{Name: "minio", Check: minioClient.HealthCheck},
		),
		Logger:    logger,
		Metrics:   appMetrics,
		Collector: collector,
		Mode:      cfg.Server.Mode,
	})

	server := httpapi.NewServer(cfg.Server, engine, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			logging.String("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	logger.Info("api server stopped")
	return nil
}
