package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/SeaCert-Compliance/pkg/errors"
)

var (
	// ErrLockNotAcquired is returned when every acquisition attempt found the
	// lock held by another owner.
	ErrLockNotAcquired = appErrors.New(appErrors.ErrCodeConflict, "lock not acquired")
	// ErrLockNotHeld is returned by Unlock when the lock expired or belongs
	// to a different owner.
	ErrLockNotHeld = appErrors.New(appErrors.ErrCodeConflict, "lock not held by this owner")
)

const lockKeyPrefix = "seacert:lock:"

// ─────────────────────────────────────────────────────────────────────────────
// Interfaces and options
// ─────────────────────────────────────────────────────────────────────────────

// DistributedLock serialises a named job across process replicas. The alert
// scanner takes one per tick so a single worker walks the fleet, and the
// nightly recalculation holds one for its full run.
type DistributedLock interface {
	// Lock blocks until the lock is acquired, the retry budget is spent, or
	// ctx is done.
	Lock(ctx context.Context) error
	// TryLock makes a single attempt and reports whether it acquired.
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
	// Extend pushes the expiry out to ttl from now if the lock is still held
	// by this owner.
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
	TTL(ctx context.Context) (time.Duration, error)
}

// LockFactory mints locks bound to a shared Redis client.
type LockFactory interface {
	NewMutex(name string, opts ...LockOption) DistributedLock
}

// LockOption customises a lock at construction time.
type LockOption func(*lockConfig)

// WithLockTTL sets how long an acquisition holds before it expires on its
// own. Jobs expected to outlive the TTL should also enable the watchdog.
func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

// WithRetryDelay sets the pause between acquisition attempts in Lock.
func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

// WithRetryCount sets how many times Lock retries after the first attempt.
func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

// WithWatchdog enables a background goroutine that keeps extending the lock
// until Unlock is called.
func WithWatchdog(enabled bool) LockOption {
	return func(c *lockConfig) { c.watchdogEnabled = enabled }
}

// WithWatchdogInterval overrides the extension cadence, by default a third
// of the TTL.
func WithWatchdogInterval(interval time.Duration) LockOption {
	return func(c *lockConfig) { c.watchdogInterval = interval }
}

type lockConfig struct {
	ttl              time.Duration
	retryDelay       time.Duration
	retryCount       int
	watchdogEnabled  bool
	watchdogInterval time.Duration
}

// ─────────────────────────────────────────────────────────────────────────────
// Factory
// ─────────────────────────────────────────────────────────────────────────────

type redisLockFactory struct {
	client *Client
	logger logging.Logger
}

// NewLockFactory builds a LockFactory on top of client.
func NewLockFactory(client *Client, logger logging.Logger) LockFactory {
	return &redisLockFactory{client: client, logger: logger}
}

func (f *redisLockFactory) NewMutex(name string, opts ...LockOption) DistributedLock {
	cfg := lockConfig{
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.watchdogEnabled && cfg.watchdogInterval == 0 {
		cfg.watchdogInterval = cfg.ttl / 3
	}
	return &redisMutex{
		client: f.client,
		key:    lockKeyPrefix + name,
		value:  uuid.New().String(),
		cfg:    cfg,
		logger: f.logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Mutex
// ─────────────────────────────────────────────────────────────────────────────

// redisMutex holds the key under a random owner value so release and extend
// only succeed for the goroutine that acquired it. An instance is owned by a
// single goroutine between Lock and Unlock.
type redisMutex struct {
	client *Client
	key    string
	value  string
	cfg    lockConfig
	logger logging.Logger

	watchdogCancel context.CancelFunc
	watchdogDone   chan struct{}
}

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var mutexExtendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

func (m *redisMutex) Lock(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		acquired, err := m.acquire(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if attempt >= m.cfg.retryCount {
			return ErrLockNotAcquired
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.retryDelay):
		}
	}
}

func (m *redisMutex) TryLock(ctx context.Context) (bool, error) {
	return m.acquire(ctx)
}

func (m *redisMutex) acquire(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.cfg.ttl).Result()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to acquire lock")
	}
	if ok && m.cfg.watchdogEnabled {
		m.startWatchdog()
	}
	return ok, nil
}

func (m *redisMutex) Unlock(ctx context.Context) error {
	m.stopWatchdog()
	res, err := mutexUnlockScript.Run(ctx, m.client.Universal(), []string{m.key}, m.value).Result()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to release lock")
	}
	if res.(int64) == 0 {
		return ErrLockNotHeld
	}
	return nil
}

func (m *redisMutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	res, err := mutexExtendScript.Run(ctx, m.client.Universal(), []string{m.key}, m.value, ttl.Milliseconds()).Result()
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "failed to extend lock")
	}
	return res.(int64) == 1, nil
}

func (m *redisMutex) TTL(ctx context.Context) (time.Duration, error) {
	return m.client.Universal().PTTL(ctx, m.key).Result()
}

func (m *redisMutex) startWatchdog() {
	ctx, cancel := context.WithCancel(context.Background())
	m.watchdogCancel = cancel
	m.watchdogDone = make(chan struct{})
	go m.runWatchdog(ctx)
}

func (m *redisMutex) stopWatchdog() {
	if m.watchdogCancel == nil {
		return
	}
	m.watchdogCancel()
	<-m.watchdogDone
	m.watchdogCancel = nil
}

// runWatchdog keeps the lock alive while the owning job runs. It stops on
// its own if an extension fails or finds the lock lost.
func (m *redisMutex) runWatchdog(ctx context.Context) {
	defer close(m.watchdogDone)
	ticker := time.NewTicker(m.cfg.watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := m.Extend(ctx, m.cfg.ttl)
			if err != nil {
				m.logger.Error("Lock watchdog failed to extend",
					logging.String("key", m.key), logging.Err(err))
				return
			}
			if !ok {
				m.logger.Warn("Lock watchdog found lock lost", logging.String("key", m.key))
				return
			}
		}
	}
}
