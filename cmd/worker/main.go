// Command worker runs the SeaCert background worker: it consumes
// certificate-update and recalculation events from Kafka, rebuilds survey
// schedules, and runs the periodic compliance alert scan under a
// distributed lock so one replica walks the fleet per tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
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
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
	"github.com/turtacn/SeaCert-Compliance/pkg/types/common"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

const (
	defaultConfigPath = "configs/config.yaml"
	startupTimeout    = 30 * time.Second
	alertScanLock     = "alert-scan"
	fleetRecalcLock   = "fleet-recalc"
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, falling back to defaults and environment\n", err)
		cfg = config.NewDefaultConfig()
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

	logger.Info("starting seacert worker",
		logging.String("version", Version),
		logging.Int("health_port", cfg.Worker.HealthPort),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	startCtx, startCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startCancel()

	// PostgreSQL
	conn, err := postgres.NewConnection(startCtx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer conn.Close()

	// Redis
	redisClient, err := redis.NewClient(startCtx, cfg.Redis, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, logger,
		redis.WithPrefix(cfg.Redis.KeyPrefix),
		redis.WithDefaultTTL(cfg.Redis.DefaultTTL),
	)
	locks := redis.NewLockFactory(redisClient, logger)

	// Kafka
	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()

	consumer, err := kafka.NewConsumer(cfg.Kafka,
		[]string{kafka.TopicCertificateUpdated, kafka.TopicRecalcRequested}, logger)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}

	// MinIO
	minioClient, err := minio.NewClient(startCtx, cfg.MinIO, logger)
	if err != nil {
		return fmt.Errorf("connect to minio: %w", err)
	}
	archive := minio.NewRepository(minioClient, logger)

	// Domain and application services
	shipRepo := repositories.NewShipRepository(conn.Pool(), logger)
	certRepo := repositories.NewCertificateRepository(conn.Pool(), logger)
	equipRepo := repositories.NewEquipmentRepository(conn.Pool(), logger)

	ships := ship.NewService(shipRepo, logger)
	certs := certificate.NewService(certRepo, logger)
	equip := equipment.NewService(equipRepo, ships, logger)

	complianceSvc := compliance.NewService(ships, certs, equip, cache, cfg.Scheduling, logger)
	alertSvc := compliance.NewAlertService(ships, certs, equip, producer, cache, archive, cfg.Scheduling, logger)

	w := &worker{
		compliance: complianceSvc,
		alerts:     alertSvc,
		locks:      locks,
		lockTTL:    cfg.Worker.AlertLockTTL,
		logger:     logger,
	}

	consumer.Subscribe(kafka.TopicCertificateUpdated, w.handleCertificateUpdated)
	consumer.Subscribe(kafka.TopicRecalcRequested, w.handleRecalcRequested)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start kafka consumer: %w", err)
	}

	// Periodic alert scan
	scanInterval := cfg.Worker.AlertScanInterval
	if scanInterval <= 0 {
		scanInterval = time.Hour
	}
	go w.scanLoop(ctx, scanInterval)

	healthSrv := newHealthServer(cfg, conn, redisClient, logger)
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker health server error", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", logging.String("signal", sig.String()))

	cancel()
	if err := consumer.Stop(); err != nil {
		logger.Error("kafka consumer shutdown error", logging.Err(err))
	}

	shutdownTimeout := cfg.Worker.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker health server shutdown error", logging.Err(err))
	}

	logger.Info("worker stopped")
	return nil
}

// worker holds the event handlers and the periodic alert scanner.
type worker struct {
	compliance *compliance.Service
	alerts     *compliance.AlertService
	locks      redis.LockFactory
	lockTTL    time.Duration
	logger     logging.Logger
}

// handleCertificateUpdated recalculates the owning ship's schedule whenever
// a certificate's source dates change.
func (w *worker) handleCertificateUpdated(ctx context.Context, msg *common.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	var payload kafka.CertificateUpdatedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	result, err := w.compliance.RecalculateShip(ctx, common.ID(payload.ShipID))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeShipNotFound) {
			// The ship was deleted after the event was published. Drop it.
			w.logger.Warn("certificate update for unknown ship",
				logging.String("ship_id", payload.ShipID))
			return nil
		}
		return err
	}
	w.logger.Info("ship schedule recalculated",
		logging.String("ship_id", payload.ShipID),
		logging.String("trigger", env.EventType),
		logging.Int("certificates_updated", result.CertificatesUpdated),
		logging.Int("equipment_updated", result.EquipmentUpdated),
	)
	return nil
}

// handleRecalcRequested runs a single-ship or fleet-wide recalculation.
// Fleet runs take a distributed lock so concurrent requests collapse into
// one pass.
func (w *worker) handleRecalcRequested(ctx context.Context, msg *common.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	var payload kafka.RecalcRequestedPayload
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}

	if payload.ShipID != "" {
		result, err := w.compliance.RecalculateShip(ctx, common.ID(payload.ShipID))
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeShipNotFound) {
				w.logger.Warn("recalculation requested for unknown ship",
					logging.String("ship_id", payload.ShipID))
				return nil
			}
			return err
		}
		w.logger.Info("ship schedule recalculated",
			logging.String("ship_id", payload.ShipID),
			logging.String("reason", payload.Reason),
			logging.Int("certificates_updated", result.CertificatesUpdated),
			logging.Int("equipment_updated", result.EquipmentUpdated),
		)
		return nil
	}

	mutex := w.locks.NewMutex(fleetRecalcLock, redis.WithLockTTL(w.lockTTL), redis.WithWatchdog(true))
	acquired, err := mutex.TryLock(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		w.logger.Info("fleet recalculation already running elsewhere, skipping",
			logging.String("reason", payload.Reason))
		return nil
	}
	defer func() {
		if err := mutex.Unlock(context.WithoutCancel(ctx)); err != nil {
			w.logger.Warn("failed to release fleet recalc lock", logging.Err(err))
		}
	}()

	report, err := w.compliance.RecalculateFleet(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("fleet schedule recalculated",
		logging.String("reason", payload.Reason),
		logging.Int("ships_processed", report.ShipsProcessed),
		logging.Int("ships_failed", len(report.Failures)),
		logging.Duration("duration", report.Duration),
	)
	return nil
}

// scanLoop runs the compliance alert scan on a fixed cadence. Each tick
// takes a distributed lock so a single worker replica walks the fleet.
func (w *worker) scanLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

func (w *worker) scanOnce(ctx context.Context) {
	mutex := w.locks.NewMutex(alertScanLock, redis.WithLockTTL(w.lockTTL), redis.WithWatchdog(true))
	acquired, err := mutex.TryLock(ctx)
	if err != nil {
		w.logger.Error("alert scan lock error", logging.Err(err))
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := mutex.Unlock(context.WithoutCancel(ctx)); err != nil {
			w.logger.Warn("failed to release alert scan lock", logging.Err(err))
		}
	}()

	report, err := w.alerts.ScanOnce(ctx, time.Now().UTC())
	if err != nil {
		w.logger.Error("alert scan failed", logging.Err(err))
		return
	}
	w.logger.Info("alert scan complete",
		logging.Int("items_scanned", report.ItemsScanned),
		logging.Int("alerts_emitted", report.AlertsEmitted),
		logging.Int("deduplicated", report.Deduplicated),
		logging.Int("failures", report.Failures),
	)
}

// newHealthServer exposes liveness, readiness and metrics for the worker
// process on its own port.
func newHealthServer(cfg *config.Config, conn *postgres.Connection, redisClient *redis.Client, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(rw, `{"status":"alive","version":%q}`, Version)
	})

	mux.HandleFunc("/readyz", func(rw http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		if err := conn.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
		} else if err := redisClient.HealthCheck(ctx); err != nil {
			status = http.StatusServiceUnavailable
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprint(rw, `{"status":"ready"}`)
		} else {
			fmt.Fprint(rw, `{"status":"not_ready"}`)
		}
	})

	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            "worker",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			logger.Error("metrics collector disabled", logging.Err(err))
		} else {
			mux.Handle("/metrics", collector.Handler())
		}
	}

	port := cfg.Worker.HealthPort
	if port <= 0 {
		port = 8081
	}
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
