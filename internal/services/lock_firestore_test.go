package services

import (
	"context"
	"testing"
	"time"

	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimable(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		lease *models.LockLease
		want  bool
	}{
		{name: "missing lease", lease: nil, want: true},
		{
			name: "expired lease",
			lease: &models.LockLease{
				Owner:     "some-other-process",
				ExpiresAt: now.Add(-time.Minute),
			},
			want: true,
		},
		{
			name: "live lease",
			lease: &models.LockLease{
				Owner:     "some-other-process",
				ExpiresAt: now.Add(time.Minute),
			},
			want: false,
		},
		{
			// A second invocation served by the same process waits like
			// anyone else; having minted the live lease's token earlier
			// grants nothing.
			name: "live lease minted by this process",
			lease: &models.LockLease{
				Owner:     "token-minted-here",
				ExpiresAt: now.Add(time.Minute),
			},
			want: false,
		},
		{
			name: "lease expiring exactly now",
			lease: &models.LockLease{
				Owner:     "some-other-process",
				ExpiresAt: now,
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, claimable(tt.lease, now))
		})
	}
}

// The in-process slot paths below never reach Firestore, so a nil client
// proves the slot alone turns concurrent same-process acquisitions away.

func TestFirestoreLockSecondAcquireInProcessIsBusy(t *testing.T) {
	lock := &FirestoreLock{leaseTTL: time.Minute, held: make(chan string, 1)}
	lock.held <- "first-acquisition"

	start := time.Now()
	err := lock.Acquire(context.Background(), 30*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrLockBusy))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFirestoreLockAcquireHonorsContext(t *testing.T) {
	lock := &FirestoreLock{leaseTTL: time.Minute, held: make(chan string, 1)}
	lock.held <- "first-acquisition"

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

func TestFirestoreLockReleaseWithoutHold(t *testing.T) {
	lock := &FirestoreLock{leaseTTL: time.Minute, held: make(chan string, 1)}
	require.NoError(t, lock.Release(context.Background()))
}
