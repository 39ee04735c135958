package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type migration struct {
	name string
	sql  string
}

// Transactions, participants and requests keep plain user_id columns without
// foreign keys: deleting a user must leave their history intact.
var migrations = []migration{
	{"users table", `
		CREATE SEQUENCE IF NOT EXISTS users_id_seq START WITH 1000001;
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
			username VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			password TEXT NOT NULL,
			wallet_balance BIGINT NOT NULL DEFAULT 0 CONSTRAINT users_balance_non_negative CHECK (wallet_balance >= 0),
			phone VARCHAR(10) NOT NULL,
			avatar_url TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		ALTER SEQUENCE users_id_seq OWNED BY users.id;
		CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users(username);
		CREATE UNIQUE INDEX IF NOT EXISTS users_phone_key ON users(phone);
	`},
	{"tournaments table", `
		CREATE TABLE IF NOT EXISTS tournaments (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			game_name VARCHAR(255) NOT NULL,
			entry_fee BIGINT NOT NULL CHECK (entry_fee >= 0),
			prize_pool BIGINT NOT NULL CHECK (prize_pool >= 0),
			match_time TEXT NOT NULL DEFAULT '',
			room_id TEXT NOT NULL DEFAULT '',
			room_password TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Open',
			winner_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_tournaments_created ON tournaments(created_at DESC);
	`},
	{"tournament_participants table", `
		CREATE TABLE IF NOT EXISTS tournament_participants (
			tournament_id BIGINT NOT NULL REFERENCES tournaments(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
			PRIMARY KEY (tournament_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_participants_user ON tournament_participants(user_id);
	`},
	{"transactions table", `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			type VARCHAR(10) NOT NULL,
			description TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
	`},
	{"deposit_requests table", `
		CREATE TABLE IF NOT EXISTS deposit_requests (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			transaction_ref TEXT NOT NULL DEFAULT '',
			screenshot_url TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposit_requests(status, created_at DESC);
	`},
	{"withdrawal_requests table", `
		CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL CHECK (amount > 0),
			qr_code_url TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawal_requests(status, created_at DESC);
	`},
	{"app_settings table", `
		CREATE TABLE IF NOT EXISTS app_settings (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`},
}

// Migrate applies the ledger schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Int("migration", i+1).Str("name", m.name).Msg("Migration applied")
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
