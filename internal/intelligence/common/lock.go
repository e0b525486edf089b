package common

import (
	"context"
	"time"
)

// Unlocker releases a held lock.
type Unlocker interface {
	Release(ctx context.Context) error
}

// Locker hands out short-lived exclusive locks keyed by name.  Acquire fails
// with ErrCodeLockNotAcquired when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Unlocker, error)
}

type nopUnlocker struct{}

func (nopUnlocker) Release(context.Context) error { return nil }

// NopLocker grants every lock immediately.  It is only correct when a single
// process runs against the store.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string, time.Duration) (Unlocker, error) {
	return nopUnlocker{}, nil
}

//Personal.AI order the ending
