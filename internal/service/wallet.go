package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

// DepositInput describes an off-system payment the user asks to have credited.
type DepositInput struct {
	Amount         int64
	TransactionRef string
	ScreenshotURL  string
}

// WithdrawalInput describes a payout request.
type WithdrawalInput struct {
	Amount    int64
	QRCodeURL string
}

// WalletService runs the deposit and withdrawal workflows and admin credits.
//
// Deposits touch the wallet only on approval. Withdrawals debit the wallet
// when requested and refund it if rejected.
type WalletService struct {
	store    repository.Store
	locks    *Locks
	notifier Notifier
}

// NewWalletService creates a new WalletService instance.
// A nil notifier discards notifications.
func NewWalletService(store repository.Store, locks *Locks, notifier Notifier) *WalletService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &WalletService{store: store, locks: locks, notifier: notifier}
}

// SetNotifier replaces the notifier. Not safe to call concurrently with requests.
func (s *WalletService) SetNotifier(n Notifier) {
	if n == nil {
		n = NopNotifier{}
	}
	s.notifier = n
}

// RequestDeposit records a Pending deposit. The wallet is not touched.
func (s *WalletService) RequestDeposit(ctx context.Context, userID int64, in DepositInput) (*model.DepositRequest, error) {
	if in.Amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var (
		user *model.User
		req  *model.DepositRequest
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		if user, err = tx.GetUser(ctx, userID); err != nil {
			return err
		}
		req, err = tx.CreateDeposit(ctx, &model.DepositRequest{
			UserID:         userID,
			Amount:         in.Amount,
			TransactionRef: in.TransactionRef,
			ScreenshotURL:  in.ScreenshotURL,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("request_id", req.ID).
		Int64("amount", req.Amount).
		Str("operation", "request_deposit").
		Msg("Deposit requested")

	notifier := s.notifier
	notifyAsync(func() { notifier.DepositRequested(user, req) })
	return req, nil
}

// ProcessDeposit approves or rejects a deposit. A request that is no longer
// Pending is returned unchanged with changed=false. Approval credits the
// wallet and records a "Deposit Approved" entry; if the owner has been deleted
// the request is still approved but nothing is credited.
func (s *WalletService) ProcessDeposit(ctx context.Context, adminID, requestID int64, approve bool) (req *model.DepositRequest, changed bool, err error) {
	current, err := s.store.GetDeposit(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if current.Status != model.RequestPending {
		return current, false, nil
	}

	var orphaned bool
	err = s.locks.WithUser(ctx, current.UserID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if approve {
				var err error
				if orphaned, err = ownerGone(ctx, tx, current.UserID); err != nil {
					return err
				}
			}
			d, err := tx.GetDepositForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			if d.Status != model.RequestPending {
				req, changed = d, false
				return nil
			}

			status := model.RequestRejected
			if approve {
				status = model.RequestCompleted
			}
			if approve && !orphaned {
				if _, err := tx.AdjustBalance(ctx, d.UserID, d.Amount); err != nil {
					return err
				}
				if _, err := tx.CreateTransaction(ctx, d.UserID, d.Amount, model.TxCredit, model.DescDepositApproved); err != nil {
					return err
				}
			}
			req, err = tx.SetDepositStatus(ctx, requestID, status)
			changed = err == nil
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		log.Info().
			Int64("admin_id", adminID).
			Int64("target_id", req.UserID).
			Int64("request_id", requestID).
			Int64("amount", req.Amount).
			Str("status", string(req.Status)).
			Bool("owner_deleted", orphaned).
			Str("operation", "process_deposit").
			Msg("Admin operation executed")
	}
	return req, changed, nil
}

// RequestWithdrawal debits the amount immediately and records a Pending request
// with a "Withdrawal Request" entry.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID int64, in WithdrawalInput) (*model.WithdrawalRequest, error) {
	if in.Amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var (
		user *model.User
		req  *model.WithdrawalRequest
	)
	err := s.locks.WithUser(ctx, userID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			u, err := tx.GetUserForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			if u.WalletBalance < in.Amount {
				return model.ErrInsufficientBalance
			}
			if user, err = tx.AdjustBalance(ctx, userID, -in.Amount); err != nil {
				return err
			}
			if _, err := tx.CreateTransaction(ctx, userID, in.Amount, model.TxDebit, model.DescWithdrawalRequest); err != nil {
				return err
			}
			req, err = tx.CreateWithdrawal(ctx, &model.WithdrawalRequest{
				UserID:    userID,
				Amount:    in.Amount,
				QRCodeURL: in.QRCodeURL,
			})
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("request_id", req.ID).
		Int64("amount", req.Amount).
		Int64("balance", user.WalletBalance).
		Str("operation", "request_withdrawal").
		Msg("Withdrawal requested")

	notifier := s.notifier
	notifyAsync(func() { notifier.WithdrawalRequested(user, req) })
	return req, nil
}

// ProcessWithdrawal approves or rejects a withdrawal. A request that is no
// longer Pending is returned unchanged with changed=false. Rejection refunds
// the held amount with a "Withdrawal Refund" entry; if the owner has been
// deleted the request is still rejected but nothing is refunded.
func (s *WalletService) ProcessWithdrawal(ctx context.Context, adminID, requestID int64, approve bool) (req *model.WithdrawalRequest, changed bool, err error) {
	current, err := s.store.GetWithdrawal(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	if current.Status != model.RequestPending {
		return current, false, nil
	}

	var orphaned bool
	err = s.locks.WithUser(ctx, current.UserID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if !approve {
				var err error
				if orphaned, err = ownerGone(ctx, tx, current.UserID); err != nil {
					return err
				}
			}
			w, err := tx.GetWithdrawalForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			if w.Status != model.RequestPending {
				req, changed = w, false
				return nil
			}

			status := model.RequestCompleted
			if !approve {
				status = model.RequestRejected
			}
			if !approve && !orphaned {
				if _, err := tx.AdjustBalance(ctx, w.UserID, w.Amount); err != nil {
					return err
				}
				if _, err := tx.CreateTransaction(ctx, w.UserID, w.Amount, model.TxCredit, model.DescWithdrawalRefund); err != nil {
					return err
				}
			}
			req, err = tx.SetWithdrawalStatus(ctx, requestID, status)
			changed = err == nil
			return err
		})
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		log.Info().
			Int64("admin_id", adminID).
			Int64("target_id", req.UserID).
			Int64("request_id", requestID).
			Int64("amount", req.Amount).
			Str("status", string(req.Status)).
			Bool("owner_deleted", orphaned).
			Str("operation", "process_withdrawal").
			Msg("Admin operation executed")
	}
	return req, changed, nil
}

// ownerGone row-locks the request owner and reports whether the account has
// been deleted. Requests outlive their owner.
func ownerGone(ctx context.Context, tx repository.Tx, userID int64) (bool, error) {
	_, err := tx.GetUserForUpdate(ctx, userID)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, model.ErrUserNotFound):
		log.Warn().
			Int64("user_id", userID).
			Msg("Request owner no longer exists, skipping wallet update")
		return true, nil
	default:
		return false, err
	}
}

// AdminAddCoins credits a user with an "Admin Airdrop / Bonus" entry.
func (s *WalletService) AdminAddCoins(ctx context.Context, adminID, userID, amount int64) (*model.User, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}

	var user *model.User
	err := s.locks.WithUser(ctx, userID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			if _, err := tx.GetUserForUpdate(ctx, userID); err != nil {
				return err
			}
			var err error
			if user, err = tx.AdjustBalance(ctx, userID, amount); err != nil {
				return err
			}
			_, err = tx.CreateTransaction(ctx, userID, amount, model.TxCredit, model.DescAdminAirdrop)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("target_id", userID).
		Int64("amount", amount).
		Int64("balance", user.WalletBalance).
		Str("operation", "add_coins").
		Msg("Admin operation executed")
	return user, nil
}

// Transactions returns the user's ledger entries, newest first.
func (s *WalletService) Transactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// Deposits returns deposit requests matching filter, newest first.
func (s *WalletService) Deposits(ctx context.Context, filter model.RequestFilter) ([]*model.DepositRequest, error) {
	return s.store.ListDeposits(ctx, filter)
}

// Withdrawals returns withdrawal requests matching filter, newest first.
func (s *WalletService) Withdrawals(ctx context.Context, filter model.RequestFilter) ([]*model.WithdrawalRequest, error) {
	return s.store.ListWithdrawals(ctx, filter)
}
