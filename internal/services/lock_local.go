package services

import (
	"context"
	"time"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
)

// LocalLock serializes runs within a single process. It carries the same
// bounded-wait contract as the Firestore lock without a backing store.
type LocalLock struct {
	ch chan struct{}
}

// NewLocalLock creates a new LocalLock instance.
func NewLocalLock() *LocalLock {
	return &LocalLock{ch: make(chan struct{}, 1)}
}

// Acquire takes the lock, waiting at most wait.
func (l *LocalLock) Acquire(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-timer.C:
		return errors.Mark(errors.Newf("lock not acquired within %s", wait), models.ErrLockBusy)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *LocalLock) Release(ctx context.Context) error {
	select {
	case <-l.ch:
	default:
	}
	return nil
}
