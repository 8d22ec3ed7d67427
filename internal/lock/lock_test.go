package lock_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayan-web/health-auto-blog-sub000/internal/lock"
)

const (
	ttl       = time.Minute
	shortWait = 300 * time.Millisecond
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLocker_Exclusive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr, client := newRedis(t)

	first := lock.NewRedisLocker(client, "state.json", ttl, shortWait, nil)
	second := lock.NewRedisLocker(client, "state.json", ttl, shortWait, nil)

	require.NoError(t, first.Acquire(ctx))
	assert.True(t, mr.Exists(first.Key()))

	err := second.Acquire(ctx)
	require.ErrorIs(t, err, lock.ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists(first.Key()))

	require.NoError(t, second.Acquire(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestRedisLocker_ExpiredLeaseIsNotFreedByOldOwner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mr, client := newRedis(t)

	first := lock.NewRedisLocker(client, "state.json", ttl, shortWait, nil)
	second := lock.NewRedisLocker(client, "state.json", ttl, shortWait, nil)

	require.NoError(t, first.Acquire(ctx))
	mr.FastForward(2 * ttl)
	require.NoError(t, second.Acquire(ctx))

	err := first.Release(ctx)
	require.ErrorIs(t, err, lock.ErrNotHeld)
	assert.True(t, mr.Exists(second.Key()), "second run keeps its lease")
}

func TestRedisLocker_ReleaseWithoutAcquire(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	l := lock.NewRedisLocker(client, "state.json", ttl, shortWait, nil)
	assert.ErrorIs(t, l.Release(context.Background()), lock.ErrNotHeld)
}

func TestFileLocker_Exclusive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	statePath := filepath.Join(t.TempDir(), "state.json")

	first := lock.NewFileLocker(statePath, ttl, shortWait, nil)
	second := lock.NewFileLocker(statePath, ttl, shortWait, nil)

	require.NoError(t, first.Acquire(ctx))
	assert.FileExists(t, first.Path())

	require.ErrorIs(t, second.Acquire(ctx), lock.ErrLockHeld)

	require.NoError(t, first.Release(ctx))
	assert.NoFileExists(t, first.Path())
	require.NoError(t, second.Acquire(ctx))
	require.NoError(t, second.Release(ctx))
}

func TestFileLocker_StaleLockIsReplaced(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	statePath := filepath.Join(t.TempDir(), "state.json")
	l := lock.NewFileLocker(statePath, ttl, 2*time.Second, nil)

	require.NoError(t, os.WriteFile(l.Path(), []byte("crashed-run"), 0o600))
	old := time.Now().Add(-2 * ttl)
	require.NoError(t, os.Chtimes(l.Path(), old, old))

	require.NoError(t, l.Acquire(ctx))
	require.NoError(t, l.Release(ctx))
}

func TestFileLocker_CancelledContext(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "state.json")
	holder := lock.NewFileLocker(statePath, ttl, shortWait, nil)
	require.NoError(t, holder.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := lock.NewFileLocker(statePath, ttl, time.Minute, nil).Acquire(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, lock.ErrLockHeld)
}
