package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/lock"
)

// DefaultLockTimeout bounds how long an operation waits for a busy key.
const DefaultLockTimeout = 5 * time.Second

// Locks serializes ledger operations per user and per tournament.
// When both are needed the user lock is always taken first.
type Locks struct {
	users       *lock.KeyLock
	tournaments *lock.KeyLock
	timeout     time.Duration
}

// NewLocks creates the lock set. A non-positive timeout uses DefaultLockTimeout.
func NewLocks(timeout time.Duration) *Locks {
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	return &Locks{
		users:       lock.NewKeyLock(),
		tournaments: lock.NewKeyLock(),
		timeout:     timeout,
	}
}

// WithUser runs fn while holding the user's lock.
func (l *Locks) WithUser(ctx context.Context, userID int64, fn func() error) error {
	return busy(l.users.WithLockContext(ctx, userID, l.timeout, fn))
}

// WithTournament runs fn while holding the tournament's lock.
func (l *Locks) WithTournament(ctx context.Context, tournamentID int64, fn func() error) error {
	return busy(l.tournaments.WithLockContext(ctx, tournamentID, l.timeout, fn))
}

// WithUserAndTournament runs fn while holding the user's lock and then the
// tournament's lock.
func (l *Locks) WithUserAndTournament(ctx context.Context, userID, tournamentID int64, fn func() error) error {
	return busy(l.users.WithLockContext(ctx, userID, l.timeout, func() error {
		return l.tournaments.WithLockContext(ctx, tournamentID, l.timeout, fn)
	}))
}

// busy reports a timed-out lock wait as model.ErrLedgerBusy.
func busy(err error) error {
	if errors.Is(err, lock.ErrLockTimeout) {
		return fmt.Errorf("%w (%w)", model.ErrLedgerBusy, err)
	}
	return err
}
