package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tournament-ledger/internal/model"
)

const userColumns = `id, username, email, password, wallet_balance, phone, avatar_url, is_admin, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.Password,
		&u.WalletBalance,
		&u.Phone,
		&u.AvatarURL,
		&u.IsAdmin,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *queries) getUser(ctx context.Context, query string, arg any, op string) (*model.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, wrapErr(err, model.ErrUserNotFound, op)
	}
	return u, nil
}

// GetUser retrieves a user by ID.
// Returns model.ErrUserNotFound if the user does not exist.
func (r *queries) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id, "get user")
}

// GetUserByUsername retrieves a user by exact username.
func (r *queries) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username, "get user by username")
}

// GetUserByPhone retrieves a user by phone number.
func (r *queries) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone, "get user by phone")
}

// FindUsersByCredential retrieves the users whose username or phone equals
// credential, the username match first.
func (r *queries) FindUsersByCredential(ctx context.Context, credential string) ([]*model.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR phone = $1
		ORDER BY (username = $1) DESC, id
	`
	rows, err := r.q.Query(ctx, query, credential)
	if err != nil {
		return nil, wrapErr(err, nil, "find users by credential")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan users by credential")
	}
	return users, nil
}

// ListUsers retrieves users ordered by ID.
func (r *queries) ListUsers(ctx context.Context, includeAdmins bool) ([]*model.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE $1::boolean OR NOT is_admin
		ORDER BY id
	`
	rows, err := r.q.Query(ctx, query, includeAdmins)
	if err != nil {
		return nil, wrapErr(err, nil, "list users")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan users")
	}
	return users, nil
}

// GetUserForUpdate retrieves a user and row-locks it until the transaction ends.
func (t *pgTx) GetUserForUpdate(ctx context.Context, id int64) (*model.User, error) {
	return t.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id, "lock user")
}

// CreateUser inserts a new user. A zero ID takes the next sequence value.
func (t *pgTx) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	const query = `
		INSERT INTO users (id, username, email, password, wallet_balance, phone, avatar_url, is_admin, created_at)
		VALUES (COALESCE(NULLIF($1::bigint, 0), nextval('users_id_seq')), $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING ` + userColumns

	created, err := scanUser(t.q.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.Password, u.WalletBalance, u.Phone, u.AvatarURL, u.IsAdmin,
	))
	if err != nil {
		return nil, wrapErr(err, nil, "create user")
	}
	return created, nil
}

// UpdateUser overwrites the profile fields of an existing user.
func (t *pgTx) UpdateUser(ctx context.Context, u *model.User) (*model.User, error) {
	const query = `
		UPDATE users
		SET username = $2, email = $3, password = $4, phone = $5, avatar_url = $6
		WHERE id = $1
		RETURNING ` + userColumns

	updated, err := scanUser(t.q.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.Password, u.Phone, u.AvatarURL,
	))
	if err != nil {
		return nil, wrapErr(err, model.ErrUserNotFound, "update user")
	}
	return updated, nil
}

// DeleteUser removes a user. Transactions and roster entries are kept.
func (t *pgTx) DeleteUser(ctx context.Context, id int64) error {
	result, err := t.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, nil, "delete user")
	}
	if result.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// AdjustBalance adds delta (which may be negative) to the user's balance.
// The balance floor is enforced by a CHECK constraint.
func (t *pgTx) AdjustBalance(ctx context.Context, userID, delta int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET wallet_balance = wallet_balance + $2
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(t.q.QueryRow(ctx, query, userID, delta))
	if err != nil {
		return nil, wrapErr(err, model.ErrUserNotFound, "adjust balance")
	}
	return u, nil
}
