// Property-based tests for keyed locking.
package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestConcurrentBalanceSafetyProperty checks that concurrent read-modify-write
// operations on the same key are equivalent to sequential execution.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expected := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		kl := NewKeyLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				kl.Lock(key)
				defer kl.Unlock(key)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("Balance mismatch with locking: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initialBalance, numOps)
		}
	})
}

// TestWithLockFunctionProperty checks that WithLock serializes its callbacks.
func TestWithLockFunctionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amountPerOp := rapid.Int64Range(1, 100).Draw(t, "amountPerOp")
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")

		kl := NewKeyLock()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = kl.WithLock(key, func() error {
					balance += amountPerOp
					return nil
				})
			}()
		}
		wg.Wait()

		expected := initialBalance + int64(numOps)*amountPerOp
		if balance != expected {
			t.Fatalf("Balance mismatch with WithLock: expected %d, got %d", expected, balance)
		}
	})
}

// TestIndependentKeysProperty checks that different keys do not share a mutex.
func TestIndependentKeysProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(1, 1000).Draw(t, "a")
		b := rapid.Int64Range(1001, 2000).Draw(t, "b")

		kl := NewKeyLock()
		kl.Lock(a)
		defer kl.Unlock(a)

		if !kl.TryLock(b) {
			t.Fatalf("key %d should be free while key %d is held", b, a)
		}
		kl.Unlock(b)
	})
}

// TestTryLockSingleWinnerProperty checks that at most one concurrent TryLock
// holds the key at a time and that the key is free afterwards.
func TestTryLockSingleWinnerProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		kl := NewKeyLock()
		var holders, maxHolders atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)
		start := make(chan struct{})

		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-start
				if kl.TryLock(key) {
					n := holders.Add(1)
					for {
						m := maxHolders.Load()
						if n <= m || maxHolders.CompareAndSwap(m, n) {
							break
						}
					}
					holders.Add(-1)
					kl.Unlock(key)
				}
			}()
		}
		close(start)
		wg.Wait()

		if maxHolders.Load() > 1 {
			t.Fatalf("TryLock allowed %d simultaneous holders", maxHolders.Load())
		}
		if !kl.TryLock(key) {
			t.Fatal("Lock should be available after all operations complete")
		}
		kl.Unlock(key)
	})
}

// TestLockUnlockSymmetryProperty checks that every Lock has a matching Unlock.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := rapid.Int64Range(1, 1000000).Draw(t, "key")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		kl := NewKeyLock()
		for i := 0; i < numCycles; i++ {
			kl.Lock(key)
			kl.Unlock(key)
		}

		if kl.IsLocked(key) {
			t.Fatal("Lock should be available after symmetric lock/unlock cycles")
		}
	})
}

func TestLockContext_Timeout(t *testing.T) {
	kl := NewKeyLock()
	kl.Lock(7)
	defer kl.Unlock(7)

	err := kl.LockContext(context.Background(), 7, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestLockContext_Cancelled(t *testing.T) {
	kl := NewKeyLock()
	kl.Lock(7)
	defer kl.Unlock(7)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := kl.LockContext(ctx, 7, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithLockContext_ReleasesOnError(t *testing.T) {
	kl := NewKeyLock()

	err := kl.WithLockContext(context.Background(), 3, time.Second, func() error {
		assert.True(t, kl.IsLocked(3))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, kl.IsLocked(3))
}

func TestUnlock_NotHeldPanics(t *testing.T) {
	kl := NewKeyLock()
	assert.Panics(t, func() { kl.Unlock(42) }, "never locked")

	kl.Lock(42)
	kl.Unlock(42)
	assert.Panics(t, func() { kl.Unlock(42) }, "already released")
	assert.False(t, kl.IsLocked(42))
}
