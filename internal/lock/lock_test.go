package lock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_SerializesSameKey(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "summary:a:2024-05")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.entries)
}

func TestMemoryLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	releaseA, err := l.Acquire(ctx, KPIKey(uuid.New()))
	require.NoError(t, err)
	defer releaseA()

	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	releaseB, err := l.Acquire(waitCtx, KPIKey(uuid.New()))
	require.NoError(t, err)
	releaseB()
}

func TestMemoryLocker_ContextCancelWhileWaiting(t *testing.T) {
	l := NewMemoryLocker()
	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // second call is a no-op
	assert.Empty(t, l.entries)
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("set REDIS_ADDRESS to run the redis locker test")
	}
	ctx := context.Background()
	l, err := NewRedisLocker(ctx, addr, os.Getenv("REDIS_PASSWORD"), 200*time.Millisecond)
	require.NoError(t, err)

	key := SummaryKey(uuid.New(), "2024-05")
	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	assert.Error(t, err)

	release()
	release2, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	release2()
}
