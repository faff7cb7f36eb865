package services

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errLeaseHeld signals a live lease. Retryable within the wait window.
var errLeaseHeld = errors.New("lease currently held")

// FirestoreLock is a lease-based mutual exclusion lock shared by every
// invocation of the pipeline. The lease lives in one Firestore document;
// holding the lock means owning that document until its expiry. A crashed
// holder's lease lapses after the TTL instead of wedging the pipeline.
//
// Exclusion has two layers. A cap-1 slot admits one acquisition per process,
// so concurrent invocations served by the same instance contend here before
// Firestore is asked. The lease document excludes other processes. Every
// acquisition carries a fresh owner token; a live lease is never re-claimed,
// not even by a token minted in the same process.
type FirestoreLock struct {
	client   *firestore.Client
	doc      *firestore.DocumentRef
	leaseTTL time.Duration
	held     chan string
}

// NewFirestoreLock creates a lock backed by the collection/name document.
func NewFirestoreLock(client *firestore.Client, collection, name string, leaseTTL time.Duration) *FirestoreLock {
	return &FirestoreLock{
		client:   client,
		doc:      client.Collection(collection).Doc(name),
		leaseTTL: leaseTTL,
		held:     make(chan string, 1),
	}
}

// Acquire takes the in-process slot and then polls for the lease, both
// within the one wait window. An expired lease is claimed from its previous
// owner in the same transaction.
func (l *FirestoreLock) Acquire(ctx context.Context, wait time.Duration) error {
	owner := uuid.NewString()
	deadline := time.Now().Add(wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case l.held <- owner:
	case <-timer.C:
		return errors.Mark(errors.Newf("lock not acquired within %s", wait), models.ErrLockBusy)
	case <-ctx.Done():
		return ctx.Err()
	}

	err := l.pollLease(ctx, owner, time.Until(deadline))
	if err == nil {
		return nil
	}
	<-l.held
	if errors.Is(err, errLeaseHeld) {
		return errors.Mark(errors.Wrapf(err, "lock not acquired within %s", wait), models.ErrLockBusy)
	}
	return errors.Wrap(err, "failed to acquire lock")
}

// pollLease retries the lease claim until it lands or the remaining window
// closes. At least one attempt is made even when the slot wait consumed the
// whole window.
func (l *FirestoreLock) pollLease(ctx context.Context, owner string, remaining time.Duration) error {
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = remaining

	op := func() error {
		err := l.tryAcquire(ctx, owner)
		if err == nil {
			return nil
		}
		if errors.Is(err, errLeaseHeld) {
			return err
		}
		return backoff.Permanent(err)
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (l *FirestoreLock) tryAcquire(ctx context.Context, owner string) error {
	return l.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(l.doc)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		now := time.Now()
		var lease *models.LockLease
		if err == nil {
			lease = &models.LockLease{}
			if err := snap.DataTo(lease); err != nil {
				return err
			}
		}
		if !claimable(lease, now) {
			return errLeaseHeld
		}
		return tx.Set(l.doc, models.LockLease{
			Owner:      owner,
			AcquiredAt: now,
			ExpiresAt:  now.Add(l.leaseTTL),
		})
	})
}

// claimable reports whether the lease state lets a new owner take the lock
// at now. Only a missing or expired lease is claimable; a live lease is
// never re-claimed, whoever owns it.
func claimable(lease *models.LockLease, now time.Time) bool {
	return lease == nil || lease.Expired(now)
}

// Release frees the in-process slot and deletes the lease if this
// acquisition still owned it. A lease that expired and was claimed by
// another owner is left alone. Releasing an unheld lock is a no-op. When the
// delete fails the leftover lease lapses after the TTL.
func (l *FirestoreLock) Release(ctx context.Context) error {
	var owner string
	select {
	case owner = <-l.held:
	default:
		return nil
	}

	err := l.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(l.doc)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		var lease models.LockLease
		if err := snap.DataTo(&lease); err != nil {
			return err
		}
		if lease.Owner != owner {
			return nil
		}
		return tx.Delete(l.doc)
	})
	if err != nil {
		return errors.Wrap(err, "failed to release lock")
	}
	return nil
}
