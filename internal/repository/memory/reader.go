package memory

import (
	"cmp"
	"context"
	"slices"

	"tournament-ledger/internal/model"
)

// reader answers queries against one state. Every result is a copy.
type reader struct {
	st *state
}

func (r reader) GetUser(_ context.Context, id int64) (*model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r reader) findUser(match func(*model.User) bool) (*model.User, error) {
	for _, u := range r.st.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r reader) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findUser(func(u *model.User) bool { return u.Username == username })
}

func (r reader) GetUserByPhone(_ context.Context, phone string) (*model.User, error) {
	return r.findUser(func(u *model.User) bool { return u.Phone == phone })
}

func (r reader) FindUsersByCredential(ctx context.Context, credential string) ([]*model.User, error) {
	users := []*model.User{}
	byName, err := r.GetUserByUsername(ctx, credential)
	if err == nil {
		users = append(users, byName)
	}
	if byPhone, err := r.GetUserByPhone(ctx, credential); err == nil && (byName == nil || byPhone.ID != byName.ID) {
		users = append(users, byPhone)
	}
	return users, nil
}

func (r reader) ListUsers(_ context.Context, includeAdmins bool) ([]*model.User, error) {
	users := make([]*model.User, 0, len(r.st.users))
	for _, u := range r.st.users {
		if includeAdmins || !u.IsAdmin {
			users = append(users, u.Clone())
		}
	}
	slices.SortFunc(users, func(a, b *model.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

func (r reader) GetTournament(_ context.Context, id int64) (*model.Tournament, error) {
	t, ok := r.st.tournaments[id]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	return t.Clone(), nil
}

func (r reader) listTournaments(keep func(*model.Tournament) bool) []*model.Tournament {
	list := make([]*model.Tournament, 0, len(r.st.tournaments))
	for _, t := range r.st.tournaments {
		if keep(t) {
			list = append(list, t.Clone())
		}
	}
	slices.SortFunc(list, func(a, b *model.Tournament) int { return cmp.Compare(b.ID, a.ID) })
	return list
}

func (r reader) ListTournaments(context.Context) ([]*model.Tournament, error) {
	return r.listTournaments(func(*model.Tournament) bool { return true }), nil
}

func (r reader) ListTournamentsByParticipant(_ context.Context, userID int64) ([]*model.Tournament, error) {
	return r.listTournaments(func(t *model.Tournament) bool { return t.HasParticipant(userID) }), nil
}

func (r reader) ListTransactions(_ context.Context, userID int64) ([]*model.Transaction, error) {
	list := []*model.Transaction{}
	for i := len(r.st.txs) - 1; i >= 0; i-- {
		if tx := r.st.txs[i]; tx.UserID == userID {
			c := *tx
			list = append(list, &c)
		}
	}
	return list, nil
}

func (r reader) GetDeposit(_ context.Context, id int64) (*model.DepositRequest, error) {
	d, ok := r.st.deposits[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	c := *d
	return &c, nil
}

func (r reader) ListDeposits(_ context.Context, filter model.RequestFilter) ([]*model.DepositRequest, error) {
	list := []*model.DepositRequest{}
	for _, d := range r.st.deposits {
		if filter.Match(d.UserID, d.Status) {
			c := *d
			list = append(list, &c)
		}
	}
	slices.SortFunc(list, func(a, b *model.DepositRequest) int { return cmp.Compare(b.ID, a.ID) })
	return list, nil
}

func (r reader) GetWithdrawal(_ context.Context, id int64) (*model.WithdrawalRequest, error) {
	w, ok := r.st.withdrawals[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	c := *w
	return &c, nil
}

func (r reader) ListWithdrawals(_ context.Context, filter model.RequestFilter) ([]*model.WithdrawalRequest, error) {
	list := []*model.WithdrawalRequest{}
	for _, w := range r.st.withdrawals {
		if filter.Match(w.UserID, w.Status) {
			c := *w
			list = append(list, &c)
		}
	}
	slices.SortFunc(list, func(a, b *model.WithdrawalRequest) int { return cmp.Compare(b.ID, a.ID) })
	return list, nil
}

func (r reader) LoadSettings(context.Context) ([]byte, error) {
	return slices.Clone(r.st.settings), nil
}

// Store reads go to a snapshot of the live state.

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.snapshot().GetUser(ctx, id)
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.snapshot().GetUserByUsername(ctx, username)
}

// GetUserByPhone retrieves a user by phone.
func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.snapshot().GetUserByPhone(ctx, phone)
}

// FindUsersByCredential returns the username match, then the phone match.
func (s *Store) FindUsersByCredential(ctx context.Context, credential string) ([]*model.User, error) {
	return s.snapshot().FindUsersByCredential(ctx, credential)
}

// ListUsers returns users in id order.
func (s *Store) ListUsers(ctx context.Context, includeAdmins bool) ([]*model.User, error) {
	return s.snapshot().ListUsers(ctx, includeAdmins)
}

// GetTournament retrieves a tournament with its roster.
func (s *Store) GetTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	return s.snapshot().GetTournament(ctx, id)
}

// ListTournaments returns every tournament, newest first.
func (s *Store) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return s.snapshot().ListTournaments(ctx)
}

// ListTournamentsByParticipant returns the tournaments a user joined, newest first.
func (s *Store) ListTournamentsByParticipant(ctx context.Context, userID int64) ([]*model.Tournament, error) {
	return s.snapshot().ListTournamentsByParticipant(ctx, userID)
}

// ListTransactions returns a user's ledger entries, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	return s.snapshot().ListTransactions(ctx, userID)
}

// GetDeposit retrieves a deposit request.
func (s *Store) GetDeposit(ctx context.Context, id int64) (*model.DepositRequest, error) {
	return s.snapshot().GetDeposit(ctx, id)
}

// ListDeposits returns matching deposit requests, newest first.
func (s *Store) ListDeposits(ctx context.Context, filter model.RequestFilter) ([]*model.DepositRequest, error) {
	return s.snapshot().ListDeposits(ctx, filter)
}

// GetWithdrawal retrieves a withdrawal request.
func (s *Store) GetWithdrawal(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	return s.snapshot().GetWithdrawal(ctx, id)
}

// ListWithdrawals returns matching withdrawal requests, newest first.
func (s *Store) ListWithdrawals(ctx context.Context, filter model.RequestFilter) ([]*model.WithdrawalRequest, error) {
	return s.snapshot().ListWithdrawals(ctx, filter)
}

// LoadSettings returns the stored settings document, or nil.
func (s *Store) LoadSettings(ctx context.Context) ([]byte, error) {
	return s.snapshot().LoadSettings(ctx)
}
