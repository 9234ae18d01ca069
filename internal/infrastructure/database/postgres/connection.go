// Package postgres provides the PostgreSQL persistence layer of the
// compliance engine: the pooled connection shared by the repositories
// and the schema migration entry points.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/SeaCert-Compliance/internal/config"
	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

// pingTimeout bounds the connectivity probe run at startup and by
// HealthCheck.
const pingTimeout = 5 * time.Second

// poolUsageWarnThreshold is the acquired/max ratio above which HealthCheck
// logs a saturation warning.
const poolUsageWarnThreshold = 0.8

// ─────────────────────────────────────────────────────────────────────────────
// Connection
// ─────────────────────────────────────────────────────────────────────────────

// Connection owns the pgx connection pool shared by the repositories.
type Connection struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	logger logging.Logger

	closeOnce sync.Once
}

// NewConnection builds a pooled connection from cfg and verifies it with a
// ping before returning it.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (*Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBConnection,
			"failed to parse postgres connection string")
	}
	configurePool(poolCfg, cfg)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBConnection,
			"failed to create postgres connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDBConnection,
			fmt.Sprintf("failed to reach postgres at %s:%d", cfg.Host, cfg.Port))
	}

	logger.Info("connected to postgres",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
		logging.Int("max_conns", int(poolCfg.MaxConns)),
	)

	return &Connection{pool: pool, cfg: cfg, logger: logger}, nil
}

// Pool exposes the underlying pgx pool for the repository constructors.
func (c *Connection) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping verifies the database is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDBConnection, "postgres ping failed")
	}
	return nil
}

// HealthCheck pings the database and logs a warning when the pool is close
// to saturation.
func (c *Connection) HealthCheck(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.pool.Ping(pingCtx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDBConnection, "postgres health check failed")
	}

	stat := c.pool.Stat()
	if stat.MaxConns() > 0 {
		usage := float64(stat.AcquiredConns()) / float64(stat.MaxConns())
		if usage > poolUsageWarnThreshold {
			c.logger.Warn("postgres connection pool nearing capacity",
				logging.Int("acquired_conns", int(stat.AcquiredConns())),
				logging.Int("max_conns", int(stat.MaxConns())),
			)
		}
	}
	return nil
}

// Stats returns a snapshot of the pool counters for metrics export.
func (c *Connection) Stats() *pgxpool.Stat {
	return c.pool.Stat()
}

// Close shuts the pool down. Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.pool.Close()
		c.logger.Info("postgres connection pool closed")
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Connection string
// ─────────────────────────────────────────────────────────────────────────────

// ConnString renders cfg as a postgres:// URL. The same string is accepted
// by pgx and by the migration tooling.
func ConnString(cfg config.DatabaseConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// configurePool copies the pool limits from cfg, leaving pgx defaults in
// place for anything unset.
func configurePool(poolCfg *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}
}
