// Property-based tests for ledger invariants.
package service

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"tournament-ledger/internal/model"
)

// TestLedgerInvariantsProperty runs random operation sequences and checks
// that no balance goes negative and every balance equals the net of its
// ledger entries.
func TestLedgerInvariantsProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		env := newTestEnv(t)
		ctx := context.Background()

		numUsers := rapid.IntRange(1, 4).Draw(rt, "numUsers")
		users := make([]int64, numUsers)
		for i := range users {
			users[i] = env.newUser(t, "user"+string(rune('a'+i)), 0).ID
		}
		var tournaments, deposits, withdrawals []int64

		pickUser := func() int64 { return rapid.SampledFrom(users).Draw(rt, "user") }
		amount := func() int64 { return rapid.Int64Range(1, 500).Draw(rt, "amount") }

		numOps := rapid.IntRange(1, 40).Draw(rt, "numOps")
		for range numOps {
			switch rapid.IntRange(0, 7).Draw(rt, "op") {
			case 0:
				_, _ = env.wallet.AdminAddCoins(ctx, AdminID, pickUser(), amount())
			case 1:
				tm, err := env.tournaments.Create(ctx, AdminID, TournamentInput{
					Title:     "T",
					GameName:  "G",
					EntryFee:  rapid.Int64Range(0, 300).Draw(rt, "fee"),
					PrizePool: rapid.Int64Range(0, 1000).Draw(rt, "prize"),
				})
				if err != nil {
					rt.Fatalf("create tournament: %v", err)
				}
				tournaments = append(tournaments, tm.ID)
			case 2:
				if len(tournaments) > 0 {
					_, _ = env.tournaments.Join(ctx, pickUser(), rapid.SampledFrom(tournaments).Draw(rt, "tournament"))
				}
			case 3:
				if len(tournaments) > 0 {
					_, _ = env.tournaments.DeclareWinner(ctx, AdminID, rapid.SampledFrom(tournaments).Draw(rt, "tournament"), pickUser())
				}
			case 4:
				if req, err := env.wallet.RequestDeposit(ctx, pickUser(), DepositInput{Amount: amount()}); err == nil {
					deposits = append(deposits, req.ID)
				}
			case 5:
				if len(deposits) > 0 {
					_, _, _ = env.wallet.ProcessDeposit(ctx, AdminID, rapid.SampledFrom(deposits).Draw(rt, "deposit"), rapid.Bool().Draw(rt, "approve"))
				}
			case 6:
				if req, err := env.wallet.RequestWithdrawal(ctx, pickUser(), WithdrawalInput{Amount: amount()}); err == nil {
					withdrawals = append(withdrawals, req.ID)
				}
			case 7:
				if len(withdrawals) > 0 {
					_, _, _ = env.wallet.ProcessWithdrawal(ctx, AdminID, rapid.SampledFrom(withdrawals).Draw(rt, "withdrawal"), rapid.Bool().Draw(rt, "approve"))
				}
			}
		}

		for _, id := range users {
			u, err := env.store.GetUser(ctx, id)
			if err != nil {
				rt.Fatalf("get user %d: %v", id, err)
			}
			if u.WalletBalance < 0 {
				rt.Fatalf("user %d has negative balance %d", id, u.WalletBalance)
			}
			txs, err := env.wallet.Transactions(ctx, id)
			if err != nil {
				rt.Fatalf("list transactions: %v", err)
			}
			if sum := ledgerSum(txs); sum != u.WalletBalance {
				rt.Fatalf("user %d: balance %d, ledger net %d", id, u.WalletBalance, sum)
			}
		}

		all, err := env.tournaments.List(ctx)
		if err != nil {
			rt.Fatalf("list tournaments: %v", err)
		}
		for _, tm := range all {
			if (tm.Status == model.TournamentCompleted) != (tm.WinnerID != nil) {
				rt.Fatalf("tournament %d: status %s with winner %v", tm.ID, tm.Status, tm.WinnerID)
			}
		}
	})
}
