package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger wraps exactly one of these,
// so callers classify with errors.Is.
var (
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrAuth              = errors.New("authentication failed")
	ErrNotFound          = errors.New("data error")
	ErrState             = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBusy              = errors.New("busy")
)

// Specific ledger errors.
var (
	ErrInvalidPhone        = fmt.Errorf("%w: phone number must be exactly 10 digits", ErrValidation)
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrMissingField        = fmt.Errorf("%w: required field missing", ErrValidation)
	ErrUsernameTaken       = fmt.Errorf("%w: username taken", ErrConflict)
	ErrPhoneTaken          = fmt.Errorf("%w: phone number already registered", ErrConflict)
	ErrAlreadyJoined       = fmt.Errorf("%w: already joined", ErrConflict)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid credentials", ErrAuth)
	ErrUserNotFound        = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrTournamentNotFound  = fmt.Errorf("%w: tournament not found", ErrNotFound)
	ErrRequestNotFound     = fmt.Errorf("%w: request not found", ErrNotFound)
	ErrTournamentClosed    = fmt.Errorf("%w: tournament closed", ErrState)
	ErrAlreadyCompleted    = fmt.Errorf("%w: tournament already completed", ErrState)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrInsufficientFunds)
	ErrLedgerBusy          = fmt.Errorf("%w: another operation is in progress, please retry", ErrBusy)
)

// ErrorKind returns the kind an error belongs to, or nil for infrastructure errors.
func ErrorKind(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrAuth, ErrNotFound, ErrState, ErrInsufficientFunds, ErrBusy} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
