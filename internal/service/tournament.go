package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

// TournamentInput holds the admin-supplied fields of a new tournament.
type TournamentInput struct {
	Title        string
	GameName     string
	EntryFee     int64
	PrizePool    int64
	MatchTime    string
	RoomID       string
	RoomPassword string
}

// TournamentUpdate is a partial edit. Nil fields keep their value.
// Status, roster and winner are not editable.
type TournamentUpdate struct {
	Title        *string
	GameName     *string
	EntryFee     *int64
	PrizePool    *int64
	MatchTime    *string
	RoomID       *string
	RoomPassword *string
}

// JoinResult is the committed outcome of a join.
type JoinResult struct {
	Tournament  *model.Tournament  `json:"tournament"`
	User        *model.User        `json:"user"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

// WinnerResult is the committed outcome of a winner declaration.
type WinnerResult struct {
	Tournament  *model.Tournament  `json:"tournament"`
	Winner      *model.User        `json:"winner"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

// TournamentService runs the tournament lifecycle: creation, paid entry and payout.
type TournamentService struct {
	store repository.Store
	locks *Locks
}

// NewTournamentService creates a new TournamentService instance.
func NewTournamentService(store repository.Store, locks *Locks) *TournamentService {
	return &TournamentService{store: store, locks: locks}
}

// JoinDescription is the ledger text of an entry fee.
func JoinDescription(title string) string {
	return "Joined: " + title
}

// WinDescription is the ledger text of a prize payout.
func WinDescription(title string) string {
	return "🎉 Congrats! Won " + title
}

func validateTournament(title, game string, fee, prize int64) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(game) == "" {
		return model.ErrMissingField
	}
	if fee < 0 || prize < 0 {
		return fmt.Errorf("%w: entry fee and prize pool cannot be negative", model.ErrValidation)
	}
	return nil
}

// Create adds an Open tournament with an empty roster.
func (s *TournamentService) Create(ctx context.Context, adminID int64, in TournamentInput) (*model.Tournament, error) {
	if err := validateTournament(in.Title, in.GameName, in.EntryFee, in.PrizePool); err != nil {
		return nil, err
	}

	var created *model.Tournament
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		created, err = tx.CreateTournament(ctx, &model.Tournament{
			Title:        strings.TrimSpace(in.Title),
			GameName:     strings.TrimSpace(in.GameName),
			EntryFee:     in.EntryFee,
			PrizePool:    in.PrizePool,
			MatchTime:    in.MatchTime,
			RoomID:       in.RoomID,
			RoomPassword: in.RoomPassword,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("tournament_id", created.ID).
		Int64("entry_fee", created.EntryFee).
		Int64("prize_pool", created.PrizePool).
		Str("operation", "create_tournament").
		Msg("Admin operation executed")
	return created, nil
}

// Get retrieves one tournament.
func (s *TournamentService) Get(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.store.GetTournament(ctx, id)
}

// List returns every tournament, newest first.
func (s *TournamentService) List(ctx context.Context) ([]*model.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

// ListJoined returns the tournaments the user has joined, newest first.
func (s *TournamentService) ListJoined(ctx context.Context, userID int64) ([]*model.Tournament, error) {
	return s.store.ListTournamentsByParticipant(ctx, userID)
}

// Update overwrites the given fields without any lifecycle check.
func (s *TournamentService) Update(ctx context.Context, adminID, id int64, upd TournamentUpdate) (*model.Tournament, error) {
	var updated *model.Tournament
	err := s.locks.WithTournament(ctx, id, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			t, err := tx.GetTournamentForUpdate(ctx, id)
			if err != nil {
				return err
			}
			applyTournamentUpdate(t, upd)
			if err := validateTournament(t.Title, t.GameName, t.EntryFee, t.PrizePool); err != nil {
				return err
			}
			updated, err = tx.UpdateTournament(ctx, t)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("tournament_id", id).
		Str("operation", "update_tournament").
		Msg("Admin operation executed")
	return updated, nil
}

func applyTournamentUpdate(t *model.Tournament, upd TournamentUpdate) {
	if upd.Title != nil {
		t.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.GameName != nil {
		t.GameName = strings.TrimSpace(*upd.GameName)
	}
	if upd.EntryFee != nil {
		t.EntryFee = *upd.EntryFee
	}
	if upd.PrizePool != nil {
		t.PrizePool = *upd.PrizePool
	}
	if upd.MatchTime != nil {
		t.MatchTime = *upd.MatchTime
	}
	if upd.RoomID != nil {
		t.RoomID = *upd.RoomID
	}
	if upd.RoomPassword != nil {
		t.RoomPassword = *upd.RoomPassword
	}
}

// Delete removes a tournament. Entry fees already paid are not refunded.
func (s *TournamentService) Delete(ctx context.Context, adminID, id int64) error {
	err := s.locks.WithTournament(ctx, id, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			return tx.DeleteTournament(ctx, id)
		})
	})
	if err != nil {
		return err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("tournament_id", id).
		Str("operation", "delete_tournament").
		Msg("Admin operation executed")
	return nil
}

// Join pays the entry fee and adds the user to the roster. Checks run in
// order and the first failure wins: unknown user or tournament, already
// joined, insufficient balance, tournament not Open.
func (s *TournamentService) Join(ctx context.Context, userID, tournamentID int64) (*JoinResult, error) {
	var res JoinResult
	err := s.locks.WithUserAndTournament(ctx, userID, tournamentID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			user, err := tx.GetUserForUpdate(ctx, userID)
			if err != nil {
				return err
			}
			t, err := tx.GetTournamentForUpdate(ctx, tournamentID)
			if err != nil {
				return err
			}

			if t.HasParticipant(userID) {
				return model.ErrAlreadyJoined
			}
			if user.WalletBalance < t.EntryFee {
				return model.ErrInsufficientBalance
			}
			if t.Status != model.TournamentOpen {
				return model.ErrTournamentClosed
			}

			if t.EntryFee > 0 {
				if user, err = tx.AdjustBalance(ctx, userID, -t.EntryFee); err != nil {
					return err
				}
				res.Transaction, err = tx.CreateTransaction(ctx, userID, t.EntryFee, model.TxDebit, JoinDescription(t.Title))
				if err != nil {
					return err
				}
			}
			if err := tx.AddParticipant(ctx, tournamentID, userID); err != nil {
				return err
			}
			t.Participants = append(t.Participants, userID)

			res.User = user
			res.Tournament = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("tournament_id", tournamentID).
		Int64("amount", res.Tournament.EntryFee).
		Int64("balance", res.User.WalletBalance).
		Str("operation", "join").
		Msg("Tournament joined")
	return &res, nil
}

// DeclareWinner completes an Open tournament and pays the prize pool to the
// winner. The winner does not have to be on the roster.
func (s *TournamentService) DeclareWinner(ctx context.Context, adminID, tournamentID, winnerID int64) (*WinnerResult, error) {
	var res WinnerResult
	err := s.locks.WithUserAndTournament(ctx, winnerID, tournamentID, func() error {
		return s.store.InTx(ctx, func(tx repository.Tx) error {
			winner, err := tx.GetUserForUpdate(ctx, winnerID)
			if err != nil {
				return err
			}
			t, err := tx.GetTournamentForUpdate(ctx, tournamentID)
			if err != nil {
				return err
			}

			switch t.Status {
			case model.TournamentCompleted:
				return model.ErrAlreadyCompleted
			case model.TournamentCancelled:
				return model.ErrTournamentClosed
			}

			if t, err = tx.CompleteTournament(ctx, tournamentID, winnerID); err != nil {
				return err
			}
			if t.PrizePool > 0 {
				if winner, err = tx.AdjustBalance(ctx, winnerID, t.PrizePool); err != nil {
					return err
				}
				res.Transaction, err = tx.CreateTransaction(ctx, winnerID, t.PrizePool, model.TxCredit, WinDescription(t.Title))
				if err != nil {
					return err
				}
			}

			res.Tournament = t
			res.Winner = winner
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Int64("tournament_id", tournamentID).
		Int64("user_id", winnerID).
		Int64("amount", res.Tournament.PrizePool).
		Str("operation", "declare_winner").
		Msg("Winner declared")
	return &res, nil
}
