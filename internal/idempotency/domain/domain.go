package domain

import (
	"context"
	"time"
)

// Key identifies one logical dispatch.
type Key struct {
	CorrelationID    string
	NotificationType string
}

func (k Key) String() string { return k.NotificationType + ":" + k.CorrelationID }

// Claim is a record this process created. It can be released while the
// dispatch has not yet reached the primary send.
type Claim struct {
	Key          Key
	DispatchedAt time.Time
}

// Store persists idempotency records.
type Store interface {
	// Claim atomically creates the record for key. ok is false when a
	// live record already exists. Records older than ttl are reclaimable.
	Claim(ctx context.Context, key Key, now time.Time, ttl time.Duration) (claim Claim, ok bool, err error)
	// Release removes the record written by claim. Releasing a record that
	// has since been reclaimed by someone else is a no-op.
	Release(ctx context.Context, claim Claim) error
}
