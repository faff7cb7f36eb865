package models

import "time"

// LockLease is the Firestore document backing the cross-invocation pipeline
// lock. One lease document exists per lock name; holding it means holding
// the lock until ExpiresAt.
type LockLease struct {
	Owner      string    `firestore:"owner,omitempty"`
	AcquiredAt time.Time `firestore:"acquiredAt,omitempty"`
	ExpiresAt  time.Time `firestore:"expiresAt,omitempty"`
}

// Expired reports whether the lease has lapsed at the given instant. A
// crashed holder's lease expires so the pipeline self-heals.
func (l *LockLease) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
