// Package model defines the data models for the tournament ledger.
package model

import (
	"slices"
	"time"
)

// TransactionType categorizes a ledger entry as money in or money out.
type TransactionType string

// Transaction types.
const (
	TxCredit TransactionType = "credit"
	TxDebit  TransactionType = "debit"
)

// TournamentStatus is the lifecycle state of a tournament.
type TournamentStatus string

// Tournament states. Completed and Cancelled are terminal.
const (
	TournamentOpen      TournamentStatus = "Open"
	TournamentCompleted TournamentStatus = "Completed"
	TournamentCancelled TournamentStatus = "Cancelled"
)

// RequestStatus is the lifecycle state of a deposit or withdrawal request.
type RequestStatus string

// Request states. Completed and Rejected are terminal.
const (
	RequestPending   RequestStatus = "Pending"
	RequestCompleted RequestStatus = "Completed"
	RequestRejected  RequestStatus = "Rejected"
)

// Ledger descriptions recorded on transactions.
const (
	DescDepositApproved   = "Deposit Approved"
	DescWithdrawalRequest = "Withdrawal Request"
	DescWithdrawalRefund  = "Withdrawal Refund"
	DescAdminAirdrop      = "Admin Airdrop / Bonus"
)

// User is a platform account holding a coin wallet.
// Password holds a bcrypt hash and is never serialized.
type User struct {
	ID            int64     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	Password      string    `db:"password" json:"-"`
	WalletBalance int64     `db:"wallet_balance" json:"wallet_balance"`
	Phone         string    `db:"phone" json:"phone"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url,omitempty"`
	IsAdmin       bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Clone returns a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Tournament is a scheduled match users pay to join.
type Tournament struct {
	ID           int64            `db:"id" json:"id"`
	Title        string           `db:"title" json:"title"`
	GameName     string           `db:"game_name" json:"game_name"`
	EntryFee     int64            `db:"entry_fee" json:"entry_fee"`
	PrizePool    int64            `db:"prize_pool" json:"prize_pool"`
	MatchTime    string           `db:"match_time" json:"match_time"`
	RoomID       string           `db:"room_id" json:"room_id,omitempty"`
	RoomPassword string           `db:"room_password" json:"room_password,omitempty"`
	Status       TournamentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	Participants []int64          `db:"-" json:"participants"`
	WinnerID     *int64           `db:"winner_id" json:"winner_id,omitempty"`
}

// Clone returns a deep copy of the tournament.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.Participants = slices.Clone(t.Participants)
	if c.Participants == nil {
		c.Participants = []int64{}
	}
	if t.WinnerID != nil {
		w := *t.WinnerID
		c.WinnerID = &w
	}
	return &c
}

// HasParticipant reports whether the user already joined.
func (t *Tournament) HasParticipant(userID int64) bool {
	return slices.Contains(t.Participants, userID)
}

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Amount      int64           `db:"amount" json:"amount"`
	Type        TransactionType `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// DepositRequest asks an admin to credit coins paid for off-system.
type DepositRequest struct {
	ID             int64         `db:"id" json:"id"`
	UserID         int64         `db:"user_id" json:"user_id"`
	Amount         int64         `db:"amount" json:"amount"`
	TransactionRef string        `db:"transaction_ref" json:"transaction_id"`
	ScreenshotURL  string        `db:"screenshot_url" json:"screenshot_url,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// WithdrawalRequest asks an admin to pay out coins already held from the wallet.
type WithdrawalRequest struct {
	ID        int64         `db:"id" json:"id"`
	UserID    int64         `db:"user_id" json:"user_id"`
	Amount    int64         `db:"amount" json:"amount"`
	QRCodeURL string        `db:"qr_code_url" json:"qr_code_url,omitempty"`
	Status    RequestStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// RequestFilter narrows deposit and withdrawal listings.
// Zero values match everything.
type RequestFilter struct {
	UserID int64
	Status RequestStatus
}

// Match reports whether a request with the given owner and status passes the filter.
func (f RequestFilter) Match(userID int64, status RequestStatus) bool {
	if f.UserID != 0 && f.UserID != userID {
		return false
	}
	if f.Status != "" && f.Status != status {
		return false
	}
	return true
}
