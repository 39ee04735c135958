// Package memory provides an in-process ledger store. Units of work run one at
// a time against a private copy of the state that replaces the live state only
// when the unit succeeds.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

// FirstUserID is the first id assigned to a user created without one.
const FirstUserID int64 = 1000001

type state struct {
	users       map[int64]*model.User
	tournaments map[int64]*model.Tournament
	txs         []*model.Transaction
	deposits    map[int64]*model.DepositRequest
	withdrawals map[int64]*model.WithdrawalRequest
	settings    []byte

	nextUserID       int64
	nextTournamentID int64
	nextTxID         int64
	nextRequestID    int64
}

func newState() *state {
	return &state{
		users:            make(map[int64]*model.User),
		tournaments:      make(map[int64]*model.Tournament),
		deposits:         make(map[int64]*model.DepositRequest),
		withdrawals:      make(map[int64]*model.WithdrawalRequest),
		nextUserID:       FirstUserID,
		nextTournamentID: 1,
		nextTxID:         1,
		nextRequestID:    1,
	}
}

// clone deep-copies the state. Transactions are immutable once written,
// so only the slice is copied.
func (s *state) clone() *state {
	c := *s
	c.users = make(map[int64]*model.User, len(s.users))
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	c.tournaments = make(map[int64]*model.Tournament, len(s.tournaments))
	for id, t := range s.tournaments {
		c.tournaments[id] = t.Clone()
	}
	c.txs = slices.Clone(s.txs)
	c.deposits = maps.Clone(s.deposits)
	c.withdrawals = maps.Clone(s.withdrawals)
	c.settings = slices.Clone(s.settings)
	return &c
}

// Store is the in-memory ledger store. It is safe for concurrent use.
type Store struct {
	writeMu sync.Mutex // serializes units of work

	mu   sync.RWMutex // guards live
	live *state
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{live: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repository.Store = (*Store)(nil)

// InTx runs fn against a private copy of the state and publishes the copy
// only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.live.clone()
	s.mu.RUnlock()

	if err := fn(&tx{reader: reader{st: work}, now: s.now}); err != nil {
		return err
	}

	s.mu.Lock()
	s.live = work
	s.mu.Unlock()
	return nil
}

// snapshot returns a reader over the current live state. The live state is
// never mutated in place, so the reader needs no further locking.
func (s *Store) snapshot() reader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reader{st: s.live}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}
