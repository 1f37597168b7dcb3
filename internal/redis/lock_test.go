package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, 2*time.Second), mr
}

func TestWithLockRunsAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t)

	ran := false
	err := locker.WithLock(context.Background(), "queue:2024-01-01", func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:queue:2024-01-01"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:queue:2024-01-01"), "lock released on return")
}

func TestWithLockHeldElsewhere(t *testing.T) {
	locker, mr := newTestLocker(t)

	require.NoError(t, mr.Set("lock:queue:2024-01-01", "someone-else"))

	err := locker.WithLock(context.Background(), "queue:2024-01-01", func(ctx context.Context) error {
		t.Fatal("must not run while the lock is held")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// The other holder's lock is left alone.
	got, err2 := mr.Get("lock:queue:2024-01-01")
	require.NoError(t, err2)
	assert.Equal(t, "someone-else", got)
}

func TestWithLockPropagatesError(t *testing.T) {
	locker, mr := newTestLocker(t)

	boom := errors.New("boom")
	err := locker.WithLock(context.Background(), "queue:2024-01-01", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:queue:2024-01-01"), "lock released even on error")
}

func TestNopLocker(t *testing.T) {
	locker := NewNopLocker()

	ran := false
	err := locker.WithLock(context.Background(), "anything", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
