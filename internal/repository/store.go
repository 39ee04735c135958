// Package repository provides the ledger store: the only component holding
// authoritative state. Every mutation runs as one unit of work through
// Store.InTx and either commits completely or leaves no trace.
package repository

import (
	"context"

	"tournament-ledger/internal/model"
)

// Reader exposes read-only queries. Returned values are copies; mutating them
// never affects stored state. Lists are ordered newest first unless noted.
type Reader interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	// FindUsersByCredential returns the users whose username or phone equals
	// credential, the username match first. At most two users can match.
	FindUsersByCredential(ctx context.Context, credential string) ([]*model.User, error)
	// ListUsers returns users in id order.
	ListUsers(ctx context.Context, includeAdmins bool) ([]*model.User, error)

	GetTournament(ctx context.Context, id int64) (*model.Tournament, error)
	ListTournaments(ctx context.Context) ([]*model.Tournament, error)
	ListTournamentsByParticipant(ctx context.Context, userID int64) ([]*model.Tournament, error)

	ListTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error)

	GetDeposit(ctx context.Context, id int64) (*model.DepositRequest, error)
	ListDeposits(ctx context.Context, filter model.RequestFilter) ([]*model.DepositRequest, error)
	GetWithdrawal(ctx context.Context, id int64) (*model.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, filter model.RequestFilter) ([]*model.WithdrawalRequest, error)

	// LoadSettings returns the stored settings document, or nil when none was saved.
	LoadSettings(ctx context.Context) ([]byte, error)
}

// Tx is a unit of work. ForUpdate reads lock the row until the unit ends;
// callers lock a user before a tournament.
type Tx interface {
	Reader

	GetUserForUpdate(ctx context.Context, id int64) (*model.User, error)
	GetTournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error)
	GetDepositForUpdate(ctx context.Context, id int64) (*model.DepositRequest, error)
	GetWithdrawalForUpdate(ctx context.Context, id int64) (*model.WithdrawalRequest, error)

	// CreateUser inserts u. A zero ID is assigned by the store.
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
	// UpdateUser overwrites profile fields; the balance is left untouched.
	UpdateUser(ctx context.Context, u *model.User) (*model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	// AdjustBalance adds delta to the balance and fails with
	// model.ErrInsufficientBalance if the result would be negative.
	AdjustBalance(ctx context.Context, userID, delta int64) (*model.User, error)

	CreateTournament(ctx context.Context, t *model.Tournament) (*model.Tournament, error)
	// UpdateTournament overwrites the editable fields; status, roster and
	// winner are left untouched.
	UpdateTournament(ctx context.Context, t *model.Tournament) (*model.Tournament, error)
	DeleteTournament(ctx context.Context, id int64) error
	AddParticipant(ctx context.Context, tournamentID, userID int64) error
	CompleteTournament(ctx context.Context, tournamentID, winnerID int64) (*model.Tournament, error)

	CreateTransaction(ctx context.Context, userID, amount int64, txType model.TransactionType, description string) (*model.Transaction, error)

	CreateDeposit(ctx context.Context, d *model.DepositRequest) (*model.DepositRequest, error)
	SetDepositStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.DepositRequest, error)
	CreateWithdrawal(ctx context.Context, w *model.WithdrawalRequest) (*model.WithdrawalRequest, error)
	SetWithdrawalStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.WithdrawalRequest, error)

	SaveSettings(ctx context.Context, raw []byte) error
}

// Store is the ledger store.
type Store interface {
	Reader
	// InTx runs fn as one atomic unit of work. If fn returns an error every
	// write it made is discarded and the error is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close()
}
