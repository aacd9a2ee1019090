// Package keylock serializes work that shares a key.
//
// Local guards keys inside one process. Redis guards keys across replicas
// using a SET NX lease that expires if the holder dies.
package keylock

import (
	"context"
	"errors"
)

// ErrLockBusy is returned when a lock could not be acquired before the wait budget ran out.
var ErrLockBusy = errors.New("keylock: lock is held by another caller")

// Unlock releases a lock obtained from Locker.Lock.
type Unlock func(ctx context.Context) error

// Locker acquires an exclusive lock on a key.
type Locker interface {
	// Lock blocks until the key is free, ctx is done, or the implementation
	// gives up. The returned Unlock must be called exactly once.
	Lock(ctx context.Context, key string) (Unlock, error)
}
