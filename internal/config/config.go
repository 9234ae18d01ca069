// Package config defines all configuration structures for the SeaCert
// compliance platform.  No I/O or parsing logic lives here — only plain data
// types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP API server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis connection parameters.  Mode selects the client
// topology: a single node, a Sentinel-managed master, or a cluster.
type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // "standalone" | "sentinel" | "cluster"
	Addr         string        `mapstructure:"addr"`
	Addrs        []string      `mapstructure:"addrs"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.  Topic names
// are fixed constants in the messaging package; only the dead-letter topic
// is overridable because operators often route it per environment.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	Acks            string        `mapstructure:"acks"`              // "all" | "one" | "none"
	Compression     string        `mapstructure:"compression"`       // "none" | "gzip" | "snappy" | "lz4" | "zstd"
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	DLQTopic        string        `mapstructure:"dlq_topic"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	AccessKey     string        `mapstructure:"access_key"`
	SecretKey     string        `mapstructure:"secret_key"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

// SchedulingConfig holds compliance-engine tunables.  WarningDays drives the
// expiry classifier band; the survey-window critical band is fixed by the
// scheduling domain and is not configurable.
type SchedulingConfig struct {
	WarningDays     int           `mapstructure:"warning_days"`
	RecalcWorkers   int           `mapstructure:"recalc_workers"`
	RecalcBatchSize int           `mapstructure:"recalc_batch_size"`
	AlertDedupTTL   time.Duration `mapstructure:"alert_dedup_ttl"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	HealthPort        int           `mapstructure:"health_port"`
	AlertScanInterval time.Duration `mapstructure:"alert_scan_interval"`
	AlertLockTTL      time.Duration `mapstructure:"alert_lock_ttl"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.  Fields mirror
// logging.LogConfig so main() can map them one to one.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be ≥ 1, got %d", c.Database.MaxConns)
	}

	// Redis
	switch c.Redis.Mode {
	case "standalone":
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required in standalone mode")
		}
	case "sentinel":
		if c.Redis.MasterName == "" {
			return fmt.Errorf("config: redis.master_name is required in sentinel mode")
		}
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config: redis.addrs must list at least one sentinel address")
		}
	case "cluster":
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("config: redis.addrs must list at least one cluster node")
		}
	default:
		return fmt.Errorf("config: redis.mode %q is invalid; expected standalone|sentinel|cluster", c.Redis.Mode)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}
	switch c.Kafka.Acks {
	case "all", "one", "none":
	default:
		return fmt.Errorf("config: kafka.acks %q is invalid; expected all|one|none", c.Kafka.Acks)
	}
	switch c.Kafka.Compression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("config: kafka.compression %q is invalid; expected none|gzip|snappy|lz4|zstd", c.Kafka.Compression)
	}

	// MinIO
	if c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required")
	}
	if c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required")
	}

	// Scheduling
	if c.Scheduling.WarningDays < 1 {
		return fmt.Errorf("config: scheduling.warning_days must be ≥ 1, got %d", c.Scheduling.WarningDays)
	}
	if c.Scheduling.RecalcWorkers < 1 {
		return fmt.Errorf("config: scheduling.recalc_workers must be ≥ 1, got %d", c.Scheduling.RecalcWorkers)
	}
	if c.Scheduling.RecalcBatchSize < 1 {
		return fmt.Errorf("config: scheduling.recalc_batch_size must be ≥ 1, got %d", c.Scheduling.RecalcBatchSize)
	}

	// Worker
	if c.Worker.HealthPort < 1 || c.Worker.HealthPort > 65535 {
		return fmt.Errorf("config: worker.health_port %d is out of range [1, 65535]", c.Worker.HealthPort)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("config: metrics.namespace is required when metrics are enabled")
	}

	return nil
}
