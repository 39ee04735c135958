package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-ledger/internal/model"
)

func TestDeposit_ApproveCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)

	req, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 500, TransactionRef: "ESW-1", ScreenshotURL: "data:image/png;base64,AA"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, int64(0), env.balance(t, u.ID), "request alone does not touch the wallet")

	env.notifier.wait(t)
	env.notifier.mu.Lock()
	require.Len(t, env.notifier.deposits, 1)
	assert.Equal(t, req.ID, env.notifier.deposits[0].ID)
	env.notifier.mu.Unlock()

	got, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, req.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestCompleted, got.Status)
	assert.Equal(t, int64(500), env.balance(t, u.ID))

	txs := env.transactions(t, u.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxCredit, txs[0].Type)
	assert.Equal(t, model.DescDepositApproved, txs[0].Description)
}

func TestDeposit_ProcessIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)
	req, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 500, TransactionRef: "ref"})
	require.NoError(t, err)

	_, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, req.ID, true)
	require.NoError(t, err)
	require.True(t, changed)

	for _, approve := range []bool{true, false} {
		got, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, req.ID, approve)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, model.RequestCompleted, got.Status)
	}
	assert.Equal(t, int64(500), env.balance(t, u.ID))
	assert.Len(t, env.transactions(t, u.ID), 1)
}

func TestDeposit_ConcurrentApproveCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)
	req, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 300, TransactionRef: "ref"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var changes int
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, req.ID, true)
			assert.NoError(t, err)
			if changed {
				mu.Lock()
				changes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changes)
	assert.Equal(t, int64(300), env.balance(t, u.ID))
	assert.Len(t, env.transactions(t, u.ID), 1)
}

func TestDeposit_Reject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)
	req, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 500, TransactionRef: "ref"})
	require.NoError(t, err)

	got, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, req.ID, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestRejected, got.Status)
	assert.Equal(t, int64(0), env.balance(t, u.ID))
	assert.Empty(t, env.transactions(t, u.ID))

	_, changed, err = env.wallet.ProcessDeposit(ctx, AdminID, req.ID, true)
	require.NoError(t, err)
	assert.False(t, changed, "a rejected deposit cannot be approved later")
	assert.Equal(t, int64(0), env.balance(t, u.ID))
}

func TestDeposit_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)

	_, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 0})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: -5})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = env.wallet.RequestDeposit(ctx, 424242, DepositInput{Amount: 5})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	_, _, err = env.wallet.ProcessDeposit(ctx, AdminID, 999, true)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestProcess_DeletedOwnerReachesTerminalStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 300)
	dep, err := env.wallet.RequestDeposit(ctx, u.ID, DepositInput{Amount: 100, TransactionRef: "ref"})
	require.NoError(t, err)
	wd, err := env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 200})
	require.NoError(t, err)
	require.NoError(t, env.accounts.DeleteUser(ctx, AdminID, u.ID))

	gotDep, changed, err := env.wallet.ProcessDeposit(ctx, AdminID, dep.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestCompleted, gotDep.Status)

	gotWd, changed, err := env.wallet.ProcessWithdrawal(ctx, AdminID, wd.ID, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestRejected, gotWd.Status)

	pendingDeps, err := env.wallet.Deposits(ctx, model.RequestFilter{Status: model.RequestPending})
	require.NoError(t, err)
	assert.Empty(t, pendingDeps)
	pendingWds, err := env.wallet.Withdrawals(ctx, model.RequestFilter{Status: model.RequestPending})
	require.NoError(t, err)
	assert.Empty(t, pendingWds)

	// No credit or refund was written for the deleted account.
	txs, err := env.store.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, model.TxDebit, txs[0].Type)
	assert.Equal(t, model.DescWithdrawalRequest, txs[0].Description)

	_, changed, err = env.wallet.ProcessDeposit(ctx, AdminID, dep.ID, false)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestWithdrawal_RejectRefunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	b := env.newUser(t, "b", 300)

	req, err := env.wallet.RequestWithdrawal(ctx, b.ID, WithdrawalInput{Amount: 200, QRCodeURL: "data:image/png;base64,QR"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, int64(100), env.balance(t, b.ID))

	env.notifier.wait(t)
	env.notifier.mu.Lock()
	require.Len(t, env.notifier.withdrawals, 1)
	env.notifier.mu.Unlock()

	got, changed, err := env.wallet.ProcessWithdrawal(ctx, AdminID, req.ID, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestRejected, got.Status)
	assert.Equal(t, int64(300), env.balance(t, b.ID))

	txs := env.transactions(t, b.ID)
	require.Len(t, txs, 2)
	assert.Equal(t, model.TxCredit, txs[0].Type)
	assert.Equal(t, int64(200), txs[0].Amount)
	assert.Equal(t, model.DescWithdrawalRefund, txs[0].Description)
	assert.Equal(t, model.TxDebit, txs[1].Type)
	assert.Equal(t, model.DescWithdrawalRequest, txs[1].Description)

	_, changed, err = env.wallet.ProcessWithdrawal(ctx, AdminID, req.ID, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(300), env.balance(t, b.ID), "second rejection does not refund again")
}

func TestWithdrawal_ApproveKeepsDebit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 300)
	req, err := env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.balance(t, u.ID))

	got, changed, err := env.wallet.ProcessWithdrawal(ctx, AdminID, req.ID, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.RequestCompleted, got.Status)
	assert.Equal(t, int64(0), env.balance(t, u.ID))
	assert.Len(t, env.transactions(t, u.ID), 1)

	_, changed, err = env.wallet.ProcessWithdrawal(ctx, AdminID, req.ID, false)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(0), env.balance(t, u.ID))
}

func TestWithdrawal_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 100)

	_, err := env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 101})
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)
	_, err = env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 0})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = env.wallet.RequestWithdrawal(ctx, 424242, WithdrawalInput{Amount: 1})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	_, _, err = env.wallet.ProcessWithdrawal(ctx, AdminID, 999, false)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)

	assert.Equal(t, int64(100), env.balance(t, u.ID))
	assert.Empty(t, env.transactions(t, u.ID))
	all, err := env.wallet.Withdrawals(ctx, model.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWithdrawal_ConcurrentNeverOverdraws(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 1000)

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 70})
		}()
	}
	wg.Wait()

	reqs, err := env.wallet.Withdrawals(ctx, model.RequestFilter{UserID: u.ID})
	require.NoError(t, err)
	assert.Len(t, reqs, 14)
	assert.Equal(t, int64(1000-14*70), env.balance(t, u.ID))
}

func TestRequestListingFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.newUser(t, "a", 0)
	b := env.newUser(t, "b", 0)

	d1, err := env.wallet.RequestDeposit(ctx, a.ID, DepositInput{Amount: 10, TransactionRef: "1"})
	require.NoError(t, err)
	d2, err := env.wallet.RequestDeposit(ctx, b.ID, DepositInput{Amount: 20, TransactionRef: "2"})
	require.NoError(t, err)
	_, _, err = env.wallet.ProcessDeposit(ctx, AdminID, d1.ID, true)
	require.NoError(t, err)

	mine, err := env.wallet.Deposits(ctx, model.RequestFilter{UserID: a.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, d1.ID, mine[0].ID)

	pending, err := env.wallet.Deposits(ctx, model.RequestFilter{Status: model.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, d2.ID, pending[0].ID)

	all, err := env.wallet.Deposits(ctx, model.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, d2.ID, all[0].ID, "newest first")
}

func TestAdminAddCoins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 10)

	got, err := env.wallet.AdminAddCoins(ctx, AdminID, u.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(260), got.WalletBalance)

	txs := env.transactions(t, u.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, model.DescAdminAirdrop, txs[0].Description)
	assert.Equal(t, model.TxCredit, txs[0].Type)

	_, err = env.wallet.AdminAddCoins(ctx, AdminID, u.ID, 0)
	assert.ErrorIs(t, err, model.ErrInvalidAmount)
	_, err = env.wallet.AdminAddCoins(ctx, AdminID, 424242, 5)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestNotifierPanicDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.wallet.SetNotifier(panickingNotifier{})
	u := env.newUser(t, "u", 100)

	_, err := env.wallet.RequestWithdrawal(context.Background(), u.ID, WithdrawalInput{Amount: 10})
	assert.NoError(t, err)
	_, err = env.wallet.RequestDeposit(context.Background(), u.ID, DepositInput{Amount: 10})
	assert.NoError(t, err)
}

type panickingNotifier struct{}

func (panickingNotifier) DepositRequested(*model.User, *model.DepositRequest) { panic("boom") }
func (panickingNotifier) WithdrawalRequested(*model.User, *model.WithdrawalRequest) {
	panic("boom")
}

// Ledger rows must only ever appear alongside a matching balance change.
func TestLedgerMatchesBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.newUser(t, "u", 0)

	_, err := env.wallet.AdminAddCoins(ctx, AdminID, u.ID, 1000)
	require.NoError(t, err)
	tm := env.newTournament(t, "T", 150, 400)
	_, err = env.tournaments.Join(ctx, u.ID, tm.ID)
	require.NoError(t, err)
	w, err := env.wallet.RequestWithdrawal(ctx, u.ID, WithdrawalInput{Amount: 300})
	require.NoError(t, err)
	_, _, err = env.wallet.ProcessWithdrawal(ctx, AdminID, w.ID, false)
	require.NoError(t, err)
	_, err = env.tournaments.DeclareWinner(ctx, AdminID, tm.ID, u.ID)
	require.NoError(t, err)

	assert.Equal(t, ledgerSum(env.transactions(t, u.ID)), env.balance(t, u.ID))
}

func ledgerSum(txs []*model.Transaction) int64 {
	var sum int64
	for _, tx := range txs {
		if tx.Type == model.TxCredit {
			sum += tx.Amount
		} else {
			sum -= tx.Amount
		}
	}
	return sum
}
