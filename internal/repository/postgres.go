package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-ledger/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries implements Reader on top of any querier.
type queries struct {
	q querier
}

// PostgresStore is the PostgreSQL ledger store.
type PostgresStore struct {
	queries
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
// The schema must already be migrated.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: queries{q: pool}, pool: pool}
}

var _ Store = (*PostgresStore)(nil)

// InTx runs fn inside a database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgTx{queries: queries{q: tx}})
	})
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by the caller.
func (s *PostgresStore) Close() {}

// pgTx is a unit of work bound to one database transaction.
type pgTx struct {
	queries
}

// Constraint names declared by the schema in internal/pkg/db.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"

	constraintUsername     = "users_username_key"
	constraintPhone        = "users_phone_key"
	constraintParticipant  = "tournament_participants_pkey"
	constraintBalanceFloor = "users_balance_non_negative"
)

// mapConstraintError translates constraint violations into ledger errors.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintUsername:
		return model.ErrUsernameTaken
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintPhone:
		return model.ErrPhoneTaken
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraintParticipant:
		return model.ErrAlreadyJoined
	case pgErr.Code == pgCheckViolation && pgErr.ConstraintName == constraintBalanceFloor:
		return model.ErrInsufficientBalance
	}
	return nil
}

// wrapErr maps no-rows to notFound and constraint violations to ledger
// errors, and wraps anything else with the failed operation.
func wrapErr(err error, notFound error, op string) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	if mapped := mapConstraintError(err); mapped != nil {
		return mapped
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
