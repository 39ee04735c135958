// Package storetest holds behavioral tests every ledger store driver must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

// Factory returns an empty, ready store. The store is closed by the suite.
type Factory func(t *testing.T) repository.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"UserLifecycle", testUserLifecycle},
		{"ExplicitLargeUserID", testExplicitLargeUserID},
		{"UniqueUsernameAndPhone", testUniqueUsernameAndPhone},
		{"FindUsersByCredential", testFindUsersByCredential},
		{"BalanceFloor", testBalanceFloor},
		{"RollbackDiscardsWrites", testRollbackDiscardsWrites},
		{"TournamentRoster", testTournamentRoster},
		{"TransactionsNewestFirst", testTransactionsNewestFirst},
		{"DeleteUserKeepsHistory", testDeleteUserKeepsHistory},
		{"Requests", testRequests},
		{"Settings", testSettings},
		{"ReadsReturnCopies", testReadsReturnCopies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(s.Close)
			tt.fn(t, s)
		})
	}
}

func createUser(t *testing.T, s repository.Store, username, phone string, balance int64) *model.User {
	t.Helper()
	var u *model.User
	err := s.InTx(context.Background(), func(tx repository.Tx) error {
		var err error
		u, err = tx.CreateUser(context.Background(), &model.User{
			Username:      username,
			Email:         username + "@example.com",
			Password:      "hash",
			Phone:         phone,
			WalletBalance: balance,
		})
		return err
	})
	require.NoError(t, err)
	return u
}

func testUserLifecycle(t *testing.T, s repository.Store) {
	ctx := context.Background()

	admin := &model.User{ID: 1000000, Username: "root", Password: "hash", Phone: "9800000000", IsAdmin: true, WalletBalance: 999999}
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreateUser(ctx, admin)
		return err
	}))

	u := createUser(t, s, "alice", "9811111111", 0)
	assert.Equal(t, int64(1000001), u.ID)
	assert.False(t, u.IsAdmin)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	users, err := s.ListUsers(ctx, false)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)

	all, err := s.ListUsers(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		cur, err := tx.GetUserForUpdate(ctx, u.ID)
		if err != nil {
			return err
		}
		cur.AvatarURL = "avatar.png"
		cur.WalletBalance = 12345 // ignored by UpdateUser
		_, err = tx.UpdateUser(ctx, cur)
		return err
	}))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "avatar.png", got.AvatarURL)
	assert.Equal(t, int64(0), got.WalletBalance)

	_, err = s.GetUser(ctx, 42)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func testExplicitLargeUserID(t *testing.T, s repository.Store) {
	ctx := context.Background()
	const id = int64(5_000_000_000)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreateUser(ctx, &model.User{ID: id, Username: "big", Password: "hash", Phone: "9855555555"})
		return err
	}))
	got, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "big", got.Username)
}

func testUniqueUsernameAndPhone(t *testing.T, s repository.Store) {
	ctx := context.Background()
	createUser(t, s, "alice", "9811111111", 0)
	bob := createUser(t, s, "bob", "9822222222", 0)

	err := s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreateUser(ctx, &model.User{Username: "alice", Password: "x", Phone: "9833333333"})
		return err
	})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)

	err = s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.CreateUser(ctx, &model.User{Username: "carol", Password: "x", Phone: "9811111111"})
		return err
	})
	assert.ErrorIs(t, err, model.ErrPhoneTaken)

	err = s.InTx(ctx, func(tx repository.Tx) error {
		bob.Username = "alice"
		_, err := tx.UpdateUser(ctx, bob)
		return err
	})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func testFindUsersByCredential(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 0)

	byName, err := s.FindUsersByCredential(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, u.ID, byName[0].ID)

	byPhone, err := s.FindUsersByCredential(ctx, "9811111111")
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, u.ID, byPhone[0].ID)

	none, err := s.FindUsersByCredential(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	// bob's username is alice's phone: both match, username first.
	bob := createUser(t, s, "9811111111", "9822222222", 0)
	both, err := s.FindUsersByCredential(ctx, "9811111111")
	require.NoError(t, err)
	require.Len(t, both, 2)
	assert.Equal(t, bob.ID, both[0].ID)
	assert.Equal(t, u.ID, both[1].ID)
}

func testBalanceFloor(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 100)

	err := s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.AdjustBalance(ctx, u.ID, -101)
		return err
	})
	assert.ErrorIs(t, err, model.ErrInsufficientBalance)

	var after *model.User
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		after, err = tx.AdjustBalance(ctx, u.ID, -100)
		return err
	}))
	assert.Equal(t, int64(0), after.WalletBalance)

	err = s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.AdjustBalance(ctx, 42, 10)
		return err
	})
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func testRollbackDiscardsWrites(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 100)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.AdjustBalance(ctx, u.ID, 50); err != nil {
			return err
		}
		if _, err := tx.CreateTransaction(ctx, u.ID, 50, model.TxCredit, "bonus"); err != nil {
			return err
		}
		if _, err := tx.CreateTournament(ctx, &model.Tournament{Title: "Cup", GameName: "PUBG"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.WalletBalance)

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	list, err := s.ListTournaments(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func createTournament(t *testing.T, s repository.Store, title string) *model.Tournament {
	t.Helper()
	var tm *model.Tournament
	require.NoError(t, s.InTx(context.Background(), func(tx repository.Tx) error {
		var err error
		tm, err = tx.CreateTournament(context.Background(), &model.Tournament{
			Title: title, GameName: "Free Fire", EntryFee: 50, PrizePool: 500, MatchTime: "2024-05-01T18:00",
		})
		return err
	}))
	return tm
}

func testTournamentRoster(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice", "9811111111", 0)
	bob := createUser(t, s, "bob", "9822222222", 0)
	first := createTournament(t, s, "First")
	second := createTournament(t, s, "Second")

	assert.Equal(t, model.TournamentOpen, first.Status)
	assert.Empty(t, first.Participants)
	assert.Nil(t, first.WinnerID)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.AddParticipant(ctx, first.ID, bob.ID); err != nil {
			return err
		}
		return tx.AddParticipant(ctx, first.ID, alice.ID)
	}))

	err := s.InTx(ctx, func(tx repository.Tx) error {
		return tx.AddParticipant(ctx, first.ID, bob.ID)
	})
	assert.ErrorIs(t, err, model.ErrAlreadyJoined)

	got, err := s.GetTournament(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob.ID, alice.ID}, got.Participants)

	list, err := s.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, []int64{bob.ID, alice.ID}, list[1].Participants)

	joined, err := s.ListTournamentsByParticipant(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, first.ID, joined[0].ID)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		done, err := tx.CompleteTournament(ctx, first.ID, alice.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, model.TournamentCompleted, done.Status)
		return nil
	}))

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		edit := got.Clone()
		edit.Title = "Renamed"
		edit.EntryFee = 75
		edit.Status = model.TournamentOpen // not editable
		updated, err := tx.UpdateTournament(ctx, edit)
		if err != nil {
			return err
		}
		assert.Equal(t, model.TournamentCompleted, updated.Status)
		assert.Equal(t, []int64{bob.ID, alice.ID}, updated.Participants)
		return nil
	}))

	got, err = s.GetTournament(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, int64(75), got.EntryFee)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, alice.ID, *got.WinnerID)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteTournament(ctx, first.ID)
	}))
	_, err = s.GetTournament(ctx, first.ID)
	assert.ErrorIs(t, err, model.ErrTournamentNotFound)

	err = s.InTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteTournament(ctx, first.ID)
	})
	assert.ErrorIs(t, err, model.ErrTournamentNotFound)
}

func testTransactionsNewestFirst(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 0)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
			_, err := tx.CreateTransaction(ctx, u.ID, int64(i*10), model.TxCredit, fmt.Sprintf("entry %d", i))
			return err
		}))
	}

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	assert.Equal(t, "entry 3", txs[0].Description)
	assert.Equal(t, "entry 1", txs[2].Description)
	assert.Equal(t, model.TxCredit, txs[0].Type)
}

func testDeleteUserKeepsHistory(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 100)
	tm := createTournament(t, s, "Cup")

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.CreateTransaction(ctx, u.ID, 50, model.TxDebit, "Joined: Cup"); err != nil {
			return err
		}
		return tx.AddParticipant(ctx, tm.ID, u.ID)
	}))

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.DeleteUser(ctx, u.ID)
	}))

	_, err := s.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	txs, err := s.ListTransactions(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)

	got, err := s.GetTournament(ctx, tm.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{u.ID}, got.Participants)
}

func testRequests(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := createUser(t, s, "alice", "9811111111", 0)
	bob := createUser(t, s, "bob", "9822222222", 0)

	var d1, d2 *model.DepositRequest
	var w1 *model.WithdrawalRequest
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		var err error
		if d1, err = tx.CreateDeposit(ctx, &model.DepositRequest{UserID: alice.ID, Amount: 500, TransactionRef: "TXN1"}); err != nil {
			return err
		}
		if d2, err = tx.CreateDeposit(ctx, &model.DepositRequest{UserID: bob.ID, Amount: 300, TransactionRef: "TXN2"}); err != nil {
			return err
		}
		w1, err = tx.CreateWithdrawal(ctx, &model.WithdrawalRequest{UserID: alice.ID, Amount: 200, QRCodeURL: "qr.png"})
		return err
	}))
	assert.Equal(t, model.RequestPending, d1.Status)
	assert.Equal(t, model.RequestPending, w1.Status)

	all, err := s.ListDeposits(ctx, model.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, d2.ID, all[0].ID, "newest first")

	mine, err := s.ListDeposits(ctx, model.RequestFilter{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "TXN1", mine[0].TransactionRef)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetDepositForUpdate(ctx, d1.ID); err != nil {
			return err
		}
		_, err := tx.SetDepositStatus(ctx, d1.ID, model.RequestCompleted)
		return err
	}))

	pending, err := s.ListDeposits(ctx, model.RequestFilter{Status: model.RequestPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, d2.ID, pending[0].ID)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.SetWithdrawalStatus(ctx, w1.ID, model.RequestRejected)
		return err
	}))
	w, err := s.GetWithdrawal(ctx, w1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, w.Status)

	ws, err := s.ListWithdrawals(ctx, model.RequestFilter{UserID: alice.ID, Status: model.RequestRejected})
	require.NoError(t, err)
	assert.Len(t, ws, 1)

	_, err = s.GetDeposit(ctx, 9999)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
	err = s.InTx(ctx, func(tx repository.Tx) error {
		_, err := tx.GetWithdrawalForUpdate(ctx, 9999)
		return err
	})
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func testSettings(t *testing.T, s repository.Store) {
	ctx := context.Background()

	raw, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveSettings(ctx, []byte(`{"app_name":"Arena"}`))
	}))
	require.NoError(t, s.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveSettings(ctx, []byte(`{"app_name":"Arena 2"}`))
	}))

	raw, err = s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"app_name":"Arena 2"}`, string(raw))
}

func testReadsReturnCopies(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := createUser(t, s, "alice", "9811111111", 100)
	tm := createTournament(t, s, "Cup")

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	got.WalletBalance = 1

	again, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), again.WalletBalance)

	gt, err := s.GetTournament(ctx, tm.ID)
	require.NoError(t, err)
	gt.Participants = append(gt.Participants, 777)

	gt2, err := s.GetTournament(ctx, tm.ID)
	require.NoError(t, err)
	assert.Empty(t, gt2.Participants)
}
