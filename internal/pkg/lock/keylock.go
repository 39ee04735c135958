// Package lock provides keyed locking for concurrent ledger operations.
// One KeyLock guards user balances, another guards tournament rosters.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// keyMutex is a mutex built on a one-slot channel so acquisition can be
// abandoned when a context ends.
type keyMutex struct {
	ch chan struct{}
}

func newKeyMutex() *keyMutex {
	return &keyMutex{ch: make(chan struct{}, 1)}
}

// KeyLock provides one mutex per int64 key (user ID, tournament ID).
// Per-key entries are never removed, so memory grows with the number of
// distinct keys ever locked.
type KeyLock struct {
	locks sync.Map // map[int64]*keyMutex
}

// NewKeyLock creates a new KeyLock instance.
func NewKeyLock() *KeyLock {
	return &KeyLock{}
}

// getLock retrieves or creates the mutex for the given key.
func (kl *KeyLock) getLock(key int64) *keyMutex {
	if v, ok := kl.locks.Load(key); ok {
		return v.(*keyMutex)
	}
	actual, _ := kl.locks.LoadOrStore(key, newKeyMutex())
	return actual.(*keyMutex)
}

// Lock acquires the lock for a key, blocking until it is free.
func (kl *KeyLock) Lock(key int64) {
	kl.getLock(key).ch <- struct{}{}
}

// Unlock releases the lock for a key. Like sync.Mutex, unlocking a key that
// is not held is a run-time error.
func (kl *KeyLock) Unlock(key int64) {
	if v, ok := kl.locks.Load(key); ok {
		select {
		case <-v.(*keyMutex).ch:
			return
		default:
		}
	}
	panic(fmt.Sprintf("lock: unlock of unlocked key %d", key))
}

// TryLock attempts to acquire the lock without blocking.
func (kl *KeyLock) TryLock(key int64) bool {
	select {
	case kl.getLock(key).ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// LockContext acquires the lock for a key, giving up after timeout or when
// ctx is done. A non-positive timeout waits only on ctx.
func (kl *KeyLock) LockContext(ctx context.Context, key int64, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case kl.getLock(key).ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrLockTimeout
		}
		return ctx.Err()
	}
}

// WithLock executes a function while holding the key's lock.
func (kl *KeyLock) WithLock(key int64, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}

// WithLockContext executes a function while holding the key's lock,
// with a bounded wait for acquisition.
func (kl *KeyLock) WithLockContext(ctx context.Context, key int64, timeout time.Duration, fn func() error) error {
	if err := kl.LockContext(ctx, key, timeout); err != nil {
		return err
	}
	defer kl.Unlock(key)
	return fn()
}

// IsLocked checks if a key currently has an active lock.
// Note: This is a point-in-time check and may change immediately after.
func (kl *KeyLock) IsLocked(key int64) bool {
	v, ok := kl.locks.Load(key)
	if !ok {
		return false
	}
	return len(v.(*keyMutex).ch) == 1
}
