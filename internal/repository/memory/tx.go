package memory

import (
	"context"
	"slices"
	"time"

	"tournament-ledger/internal/model"
)

// tx mutates a private state copy owned by one InTx call.
type tx struct {
	reader
	now func() time.Time
}

// Units of work are already exclusive, so locked reads are plain reads.

func (t *tx) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return t.GetUser(ctx, id)
}

func (t *tx) GetTournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	return t.GetTournament(ctx, id)
}

func (t *tx) GetDepositForUpdate(ctx context.Context, id int64) (*model.DepositRequest, error) {
	return t.GetDeposit(ctx, id)
}

func (t *tx) GetWithdrawalForUpdate(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	return t.GetWithdrawal(ctx, id)
}

// checkUnique enforces the username and phone unique indexes.
func (t *tx) checkUnique(u *model.User) error {
	for id, other := range t.st.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return model.ErrUsernameTaken
		}
		if other.Phone == u.Phone {
			return model.ErrPhoneTaken
		}
	}
	return nil
}

func (t *tx) CreateUser(_ context.Context, in *model.User) (*model.User, error) {
	u := in.Clone()
	if u.ID == 0 {
		u.ID = t.st.nextUserID
	}
	if _, exists := t.st.users[u.ID]; exists {
		return nil, model.ErrUsernameTaken
	}
	if err := t.checkUnique(u); err != nil {
		return nil, err
	}
	if u.WalletBalance < 0 {
		return nil, model.ErrInsufficientBalance
	}
	if u.ID >= t.st.nextUserID {
		t.st.nextUserID = u.ID + 1
	}
	u.CreatedAt = t.now()
	t.st.users[u.ID] = u
	return u.Clone(), nil
}

func (t *tx) UpdateUser(_ context.Context, in *model.User) (*model.User, error) {
	u, ok := t.st.users[in.ID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if err := t.checkUnique(in); err != nil {
		return nil, err
	}
	u.Username = in.Username
	u.Email = in.Email
	u.Password = in.Password
	u.Phone = in.Phone
	u.AvatarURL = in.AvatarURL
	return u.Clone(), nil
}

func (t *tx) DeleteUser(_ context.Context, id int64) error {
	if _, ok := t.st.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(t.st.users, id)
	return nil
}

func (t *tx) AdjustBalance(_ context.Context, userID, delta int64) (*model.User, error) {
	u, ok := t.st.users[userID]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if u.WalletBalance+delta < 0 {
		return nil, model.ErrInsufficientBalance
	}
	u.WalletBalance += delta
	return u.Clone(), nil
}

func (t *tx) CreateTournament(_ context.Context, in *model.Tournament) (*model.Tournament, error) {
	tm := in.Clone()
	tm.ID = t.st.nextTournamentID
	t.st.nextTournamentID++
	tm.Status = model.TournamentOpen
	tm.Participants = []int64{}
	tm.WinnerID = nil
	tm.CreatedAt = t.now()
	t.st.tournaments[tm.ID] = tm
	return tm.Clone(), nil
}

func (t *tx) UpdateTournament(_ context.Context, in *model.Tournament) (*model.Tournament, error) {
	tm, ok := t.st.tournaments[in.ID]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	tm.Title = in.Title
	tm.GameName = in.GameName
	tm.EntryFee = in.EntryFee
	tm.PrizePool = in.PrizePool
	tm.MatchTime = in.MatchTime
	tm.RoomID = in.RoomID
	tm.RoomPassword = in.RoomPassword
	return tm.Clone(), nil
}

func (t *tx) DeleteTournament(_ context.Context, id int64) error {
	if _, ok := t.st.tournaments[id]; !ok {
		return model.ErrTournamentNotFound
	}
	delete(t.st.tournaments, id)
	return nil
}

func (t *tx) AddParticipant(_ context.Context, tournamentID, userID int64) error {
	tm, ok := t.st.tournaments[tournamentID]
	if !ok {
		return model.ErrTournamentNotFound
	}
	if tm.HasParticipant(userID) {
		return model.ErrAlreadyJoined
	}
	tm.Participants = append(tm.Participants, userID)
	return nil
}

func (t *tx) CompleteTournament(_ context.Context, tournamentID, winnerID int64) (*model.Tournament, error) {
	tm, ok := t.st.tournaments[tournamentID]
	if !ok {
		return nil, model.ErrTournamentNotFound
	}
	tm.Status = model.TournamentCompleted
	tm.WinnerID = &winnerID
	return tm.Clone(), nil
}

func (t *tx) CreateTransaction(_ context.Context, userID, amount int64, txType model.TransactionType, description string) (*model.Transaction, error) {
	entry := &model.Transaction{
		ID:          t.st.nextTxID,
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		CreatedAt:   t.now(),
	}
	t.st.nextTxID++
	t.st.txs = append(t.st.txs, entry)
	c := *entry
	return &c, nil
}

// Requests are shared with the live state after clone, so updates replace
// the pointer instead of writing through it.

func (t *tx) CreateDeposit(_ context.Context, in *model.DepositRequest) (*model.DepositRequest, error) {
	d := *in
	d.ID = t.st.nextRequestID
	t.st.nextRequestID++
	d.Status = model.RequestPending
	d.CreatedAt = t.now()
	t.st.deposits[d.ID] = &d
	c := d
	return &c, nil
}

func (t *tx) SetDepositStatus(_ context.Context, id int64, status model.RequestStatus) (*model.DepositRequest, error) {
	old, ok := t.st.deposits[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	d := *old
	d.Status = status
	t.st.deposits[id] = &d
	c := d
	return &c, nil
}

func (t *tx) CreateWithdrawal(_ context.Context, in *model.WithdrawalRequest) (*model.WithdrawalRequest, error) {
	w := *in
	w.ID = t.st.nextRequestID
	t.st.nextRequestID++
	w.Status = model.RequestPending
	w.CreatedAt = t.now()
	t.st.withdrawals[w.ID] = &w
	c := w
	return &c, nil
}

func (t *tx) SetWithdrawalStatus(_ context.Context, id int64, status model.RequestStatus) (*model.WithdrawalRequest, error) {
	old, ok := t.st.withdrawals[id]
	if !ok {
		return nil, model.ErrRequestNotFound
	}
	w := *old
	w.Status = status
	t.st.withdrawals[id] = &w
	c := w
	return &c, nil
}

func (t *tx) SaveSettings(_ context.Context, raw []byte) error {
	t.st.settings = slices.Clone(raw)
	return nil
}
