package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockExclusive(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()
	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))

	start := time.Now()
	err := lock.Acquire(ctx, 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrLockBusy))
	// The second attempt waits out its grace period, then gives up promptly.
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))
}

func TestLocalLockSingleWinner(t *testing.T) {
	lock := NewLocalLock()
	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lock.Acquire(context.Background(), 20*time.Millisecond) == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins)
}

func TestLocalLockAcquireHonorsContext(t *testing.T) {
	lock := NewLocalLock()
	require.NoError(t, lock.Acquire(context.Background(), 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := lock.Acquire(ctx, 10*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, models.ErrLockBusy))
}

func TestLocalLockReleaseWithoutHold(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalLock()
	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Acquire(ctx, 10*time.Millisecond))
}
