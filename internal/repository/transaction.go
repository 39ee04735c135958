package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tournament-ledger/internal/model"
)

const transactionColumns = `id, user_id, amount, type, description, created_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Type,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListTransactions retrieves all transactions for a user, newest first.
// Entries of deleted users remain queryable by id.
func (r *queries) ListTransactions(ctx context.Context, userID int64) ([]*model.Transaction, error) {
	const query = `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(err, nil, "get transactions")
	}
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan transactions")
	}
	return txs, nil
}

// CreateTransaction appends a ledger entry.
func (t *pgTx) CreateTransaction(ctx context.Context, userID, amount int64, txType model.TransactionType, description string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + transactionColumns

	tx, err := scanTransaction(t.q.QueryRow(ctx, query, userID, amount, string(txType), description))
	if err != nil {
		return nil, wrapErr(err, nil, "create transaction")
	}
	return tx, nil
}
