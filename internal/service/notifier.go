package service

import (
	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/model"
)

// Notifier is told about new requests awaiting an admin decision.
// Calls happen after the request is committed, on their own goroutine.
type Notifier interface {
	DepositRequested(user *model.User, req *model.DepositRequest)
	WithdrawalRequested(user *model.User, req *model.WithdrawalRequest)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) DepositRequested(*model.User, *model.DepositRequest)       {}
func (NopNotifier) WithdrawalRequested(*model.User, *model.WithdrawalRequest) {}

// notifyAsync runs fn on a new goroutine and keeps a panicking notifier from
// taking the process down.
func notifyAsync(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Notifier panicked")
			}
		}()
		fn()
	}()
}
