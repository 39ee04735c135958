package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/pkg/session"
	"tournament-ledger/internal/repository"
	"tournament-ledger/internal/repository/memory"
)

type testEnv struct {
	store       repository.Store
	sessions    *session.Manager
	accounts    *AccountService
	tournaments *TournamentService
	wallet      *WalletService
	settings    *SettingsService
	notifier    *recordingNotifier

	phoneSeq int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.New())
}

func newTestEnvWithStore(t *testing.T, store repository.Store) *testEnv {
	t.Helper()
	locks := NewLocks(2 * time.Second)
	sessions := session.NewManager("test-secret", time.Hour, session.NewMemoryRevocations())
	notifier := newRecordingNotifier()
	return &testEnv{
		store:       store,
		sessions:    sessions,
		accounts:    NewAccountService(store, locks, sessions, bcrypt.MinCost),
		tournaments: NewTournamentService(store, locks),
		wallet:      NewWalletService(store, locks, notifier),
		settings:    NewSettingsService(store, model.DefaultSettings()),
		notifier:    notifier,
	}
}

func (e *testEnv) nextPhone() string {
	e.phoneSeq++
	return fmt.Sprintf("97%08d", e.phoneSeq)
}

// newUser registers a user and sets the balance without writing ledger entries.
func (e *testEnv) newUser(t *testing.T, username string, balance int64) *model.User {
	t.Helper()
	ctx := context.Background()
	res, err := e.accounts.Register(ctx, RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "pass-" + username,
		Phone:    e.nextPhone(),
	})
	require.NoError(t, err)
	if balance > 0 {
		require.NoError(t, e.store.InTx(ctx, func(tx repository.Tx) error {
			_, err := tx.AdjustBalance(ctx, res.User.ID, balance)
			return err
		}))
	}
	u, err := e.store.GetUser(ctx, res.User.ID)
	require.NoError(t, err)
	return u
}

func (e *testEnv) newTournament(t *testing.T, title string, fee, prize int64) *model.Tournament {
	t.Helper()
	tm, err := e.tournaments.Create(context.Background(), AdminID, TournamentInput{
		Title: title, GameName: "PUBG Mobile", EntryFee: fee, PrizePool: prize, MatchTime: "2024-05-01 18:00",
	})
	require.NoError(t, err)
	return tm
}

func (e *testEnv) balance(t *testing.T, userID int64) int64 {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return u.WalletBalance
}

func (e *testEnv) transactions(t *testing.T, userID int64) []*model.Transaction {
	t.Helper()
	txs, err := e.wallet.Transactions(context.Background(), userID)
	require.NoError(t, err)
	return txs
}

type recordingNotifier struct {
	mu          sync.Mutex
	deposits    []*model.DepositRequest
	withdrawals []*model.WithdrawalRequest
	signal      chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{signal: make(chan struct{}, 64)}
}

func (n *recordingNotifier) DepositRequested(_ *model.User, req *model.DepositRequest) {
	n.mu.Lock()
	n.deposits = append(n.deposits, req)
	n.mu.Unlock()
	n.signal <- struct{}{}
}

func (n *recordingNotifier) WithdrawalRequested(_ *model.User, req *model.WithdrawalRequest) {
	n.mu.Lock()
	n.withdrawals = append(n.withdrawals, req)
	n.mu.Unlock()
	n.signal <- struct{}{}
}

func (n *recordingNotifier) wait(t *testing.T) {
	t.Helper()
	select {
	case <-n.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
}

// cancelledStore presents every tournament locked for update as Cancelled.
// No operation can cancel a tournament, so this is the only way to reach
// that state in tests.
type cancelledStore struct {
	repository.Store
}

func (s cancelledStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.InTx(ctx, func(tx repository.Tx) error {
		return fn(cancelledTx{tx})
	})
}

type cancelledTx struct {
	repository.Tx
}

func (tx cancelledTx) GetTournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	t, err := tx.Tx.GetTournamentForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Status = model.TournamentCancelled
	return t, nil
}
