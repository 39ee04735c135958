package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tournament-ledger/internal/model"
)

const tournamentColumns = `id, title, game_name, entry_fee, prize_pool, match_time, room_id, room_password, status, winner_id, created_at`

func scanTournament(row pgx.Row) (*model.Tournament, error) {
	var t model.Tournament
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.GameName,
		&t.EntryFee,
		&t.PrizePool,
		&t.MatchTime,
		&t.RoomID,
		&t.RoomPassword,
		&t.Status,
		&t.WinnerID,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Participants = []int64{}
	return &t, nil
}

// participants loads the roster of one tournament in join order.
func (r *queries) participants(ctx context.Context, tournamentID int64) ([]int64, error) {
	const query = `
		SELECT user_id FROM tournament_participants
		WHERE tournament_id = $1
		ORDER BY joined_at, user_id
	`
	rows, err := r.q.Query(ctx, query, tournamentID)
	if err != nil {
		return nil, wrapErr(err, nil, "get participants")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrapErr(err, nil, "scan participants")
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func (r *queries) getTournament(ctx context.Context, query string, id int64, op string) (*model.Tournament, error) {
	t, err := scanTournament(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, model.ErrTournamentNotFound, op)
	}
	if t.Participants, err = r.participants(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTournament retrieves a tournament with its roster.
// Returns model.ErrTournamentNotFound if it does not exist.
func (r *queries) GetTournament(ctx context.Context, id int64) (*model.Tournament, error) {
	return r.getTournament(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id, "get tournament")
}

// listTournaments runs a tournament query and attaches every roster with one
// extra round trip.
func (r *queries) listTournaments(ctx context.Context, query string, args ...any) ([]*model.Tournament, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, nil, "list tournaments")
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Tournament, error) {
		return scanTournament(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan tournaments")
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]int64, len(list))
	byID := make(map[int64]*model.Tournament, len(list))
	for i, t := range list {
		ids[i] = t.ID
		byID[t.ID] = t
	}

	const rosterQuery = `
		SELECT tournament_id, user_id FROM tournament_participants
		WHERE tournament_id = ANY($1)
		ORDER BY tournament_id, joined_at, user_id
	`
	rows, err = r.q.Query(ctx, rosterQuery, ids)
	if err != nil {
		return nil, wrapErr(err, nil, "get participants")
	}
	defer rows.Close()

	for rows.Next() {
		var tid, uid int64
		if err := rows.Scan(&tid, &uid); err != nil {
			return nil, wrapErr(err, nil, "scan participant")
		}
		if t, ok := byID[tid]; ok {
			t.Participants = append(t.Participants, uid)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, nil, "iterate participants")
	}
	return list, nil
}

// ListTournaments retrieves every tournament, newest first.
func (r *queries) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	return r.listTournaments(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		ORDER BY created_at DESC, id DESC
	`)
}

// ListTournamentsByParticipant retrieves the tournaments a user joined, newest first.
func (r *queries) ListTournamentsByParticipant(ctx context.Context, userID int64) ([]*model.Tournament, error) {
	return r.listTournaments(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE id IN (SELECT tournament_id FROM tournament_participants WHERE user_id = $1)
		ORDER BY created_at DESC, id DESC
	`, userID)
}

// GetTournamentForUpdate retrieves a tournament and row-locks it.
func (t *pgTx) GetTournamentForUpdate(ctx context.Context, id int64) (*model.Tournament, error) {
	return t.getTournament(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1 FOR UPDATE`, id, "lock tournament")
}

// CreateTournament inserts a new Open tournament with an empty roster.
func (t *pgTx) CreateTournament(ctx context.Context, in *model.Tournament) (*model.Tournament, error) {
	const query = `
		INSERT INTO tournaments (title, game_name, entry_fee, prize_pool, match_time, room_id, room_password, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING ` + tournamentColumns

	created, err := scanTournament(t.q.QueryRow(ctx, query,
		in.Title, in.GameName, in.EntryFee, in.PrizePool, in.MatchTime, in.RoomID, in.RoomPassword,
		string(model.TournamentOpen),
	))
	if err != nil {
		return nil, wrapErr(err, nil, "create tournament")
	}
	return created, nil
}

// UpdateTournament overwrites the admin-editable fields.
func (t *pgTx) UpdateTournament(ctx context.Context, in *model.Tournament) (*model.Tournament, error) {
	const query = `
		UPDATE tournaments
		SET title = $2, game_name = $3, entry_fee = $4, prize_pool = $5,
		    match_time = $6, room_id = $7, room_password = $8
		WHERE id = $1
		RETURNING ` + tournamentColumns

	updated, err := scanTournament(t.q.QueryRow(ctx, query,
		in.ID, in.Title, in.GameName, in.EntryFee, in.PrizePool, in.MatchTime, in.RoomID, in.RoomPassword,
	))
	if err != nil {
		return nil, wrapErr(err, model.ErrTournamentNotFound, "update tournament")
	}
	if updated.Participants, err = t.participants(ctx, updated.ID); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTournament removes a tournament and its roster.
func (t *pgTx) DeleteTournament(ctx context.Context, id int64) error {
	result, err := t.q.Exec(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, nil, "delete tournament")
	}
	if result.RowsAffected() == 0 {
		return model.ErrTournamentNotFound
	}
	return nil
}

// AddParticipant appends a user to the roster.
// Returns model.ErrAlreadyJoined if the user is already on it.
func (t *pgTx) AddParticipant(ctx context.Context, tournamentID, userID int64) error {
	const query = `
		INSERT INTO tournament_participants (tournament_id, user_id, joined_at)
		VALUES ($1, $2, clock_timestamp())
	`
	if _, err := t.q.Exec(ctx, query, tournamentID, userID); err != nil {
		return wrapErr(err, nil, "add participant")
	}
	return nil
}

// CompleteTournament marks a tournament Completed with the given winner.
func (t *pgTx) CompleteTournament(ctx context.Context, tournamentID, winnerID int64) (*model.Tournament, error) {
	const query = `
		UPDATE tournaments
		SET status = $2, winner_id = $3
		WHERE id = $1
		RETURNING ` + tournamentColumns

	done, err := scanTournament(t.q.QueryRow(ctx, query, tournamentID, string(model.TournamentCompleted), winnerID))
	if err != nil {
		return nil, wrapErr(err, model.ErrTournamentNotFound, "complete tournament")
	}
	if done.Participants, err = t.participants(ctx, done.ID); err != nil {
		return nil, err
	}
	return done, nil
}
