package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/monitoring/logging"
)

func newTestLockFactory(t *testing.T) (LockFactory, *miniredis.Miniredis) {
	t.Helper()
	client, mr := newTestClient(t)
	return NewLockFactory(client, logging.NewNopLogger()), mr
}

func TestMutex_LockAndUnlock(t *testing.T) {
	factory, mr := newTestLockFactory(t)
	ctx := context.Background()

	lock := factory.NewMutex("alert-scan", WithLockTTL(time.Minute))

	require.NoError(t, lock.Lock(ctx))
	assert.True(t, mr.Exists("seacert:lock:alert-scan"))

	require.NoError(t, lock.Unlock(ctx))
	assert.False(t, mr.Exists("seacert:lock:alert-scan"))
}

func TestMutex_TryLock_Contention(t *testing.T) {
	factory, _ := newTestLockFactory(t)
	ctx := context.Background()

	first := factory.NewMutex("alert-scan")
	second := factory.NewMutex("alert-scan")

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, first.Unlock(ctx))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMutex_Lock_RetriesUntilReleased(t *testing.T) {
	factory, _ := newTestLockFactory(t)
	ctx := context.Background()

	holder := factory.NewMutex("recalc-fleet")
	require.NoError(t, holder.Lock(ctx))

	go func() {
		time.Sleep(50 * time.Millisecond)
		holder.Unlock(context.Background())
	}()

	waiter := factory.NewMutex("recalc-fleet",
		WithRetryDelay(10*time.Millisecond), WithRetryCount(50))
	assert.NoError(t, waiter.Lock(ctx))
}

func TestMutex_Lock_ExhaustsRetries(t *testing.T) {
	factory, _ := newTestLockFactory(t)
	ctx := context.Background()

	holder := factory.NewMutex("recalc-fleet")
	require.NoError(t, holder.Lock(ctx))

	waiter := factory.NewMutex("recalc-fleet",
		WithRetryDelay(time.Millisecond), WithRetryCount(2))
	err := waiter.Lock(ctx)

	assert.Equal(t, ErrLockNotAcquired, err)
}

func TestMutex_Lock_ContextCancelled(t *testing.T) {
	factory, _ := newTestLockFactory(t)

	holder := factory.NewMutex("recalc-fleet")
	require.NoError(t, holder.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	waiter := factory.NewMutex("recalc-fleet",
		WithRetryDelay(10*time.Millisecond), WithRetryCount(100))
	err := waiter.Lock(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMutex_Unlock_NotHolder(t *testing.T) {
	factory, mr := newTestLockFactory(t)
	ctx := context.Background()

	holder := factory.NewMutex("alert-scan")
	require.NoError(t, holder.Lock(ctx))

	intruder := factory.NewMutex("alert-scan")
	err := intruder.Unlock(ctx)

	assert.Equal(t, ErrLockNotHeld, err)
	assert.True(t, mr.Exists("seacert:lock:alert-scan"))
}

func TestMutex_Unlock_AfterExpiry(t *testing.T) {
	factory, mr := newTestLockFactory(t)
	ctx := context.Background()

	lock := factory.NewMutex("alert-scan", WithLockTTL(50*time.Millisecond))
	require.NoError(t, lock.Lock(ctx))

	mr.FastForward(100 * time.Millisecond)

	assert.Equal(t, ErrLockNotHeld, lock.Unlock(ctx))
}

func TestMutex_Extend(t *testing.T) {
	factory, mr := newTestLockFactory(t)
	ctx := context.Background()

	lock := factory.NewMutex("recalc-fleet", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))

	ok, err := lock.Extend(ctx, 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, mr.TTL("seacert:lock:recalc-fleet"))

	intruder := factory.NewMutex("recalc-fleet")
	ok, err = intruder.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMutex_TTL(t *testing.T) {
	factory, _ := newTestLockFactory(t)
	ctx := context.Background()

	lock := factory.NewMutex("alert-scan", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))

	ttl, err := lock.TTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Second, ttl)
}

func TestMutex_Watchdog_KeepsLockAlive(t *testing.T) {
	factory, mr := newTestLockFactory(t)
	ctx := context.Background()

	lock := factory.NewMutex("recalc-fleet",
		WithLockTTL(200*time.Millisecond),
		WithWatchdog(true),
		WithWatchdogInterval(20*time.Millisecond))
	require.NoError(t, lock.Lock(ctx))

	// The server clock only moves on FastForward, so the TTL can shrink only
	// here and grow only through a watchdog extension.
	mr.FastForward(150 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 200*time.Millisecond, mr.TTL("seacert:lock:recalc-fleet"))

	require.NoError(t, lock.Unlock(ctx))
	assert.False(t, mr.Exists("seacert:lock:recalc-fleet"))
}
