package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tournament-ledger/internal/model"
)

const (
	depositColumns    = `id, user_id, amount, transaction_ref, screenshot_url, status, created_at`
	withdrawalColumns = `id, user_id, amount, qr_code_url, status, created_at`
)

// requestFilterClause matches model.RequestFilter semantics: zero values match all.
const requestFilterClause = `($1::bigint = 0 OR user_id = $1) AND ($2::text = '' OR status = $2)`

func scanDeposit(row pgx.Row) (*model.DepositRequest, error) {
	var d model.DepositRequest
	err := row.Scan(&d.ID, &d.UserID, &d.Amount, &d.TransactionRef, &d.ScreenshotURL, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanWithdrawal(row pgx.Row) (*model.WithdrawalRequest, error) {
	var w model.WithdrawalRequest
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &w.QRCodeURL, &w.Status, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// GetDeposit retrieves a deposit request.
func (r *queries) GetDeposit(ctx context.Context, id int64) (*model.DepositRequest, error) {
	d, err := scanDeposit(r.q.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "get deposit request")
	}
	return d, nil
}

// ListDeposits retrieves deposit requests matching filter, newest first.
func (r *queries) ListDeposits(ctx context.Context, filter model.RequestFilter) ([]*model.DepositRequest, error) {
	query := `SELECT ` + depositColumns + ` FROM deposit_requests WHERE ` + requestFilterClause + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, wrapErr(err, nil, "list deposit requests")
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.DepositRequest, error) {
		return scanDeposit(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan deposit requests")
	}
	return list, nil
}

// GetWithdrawal retrieves a withdrawal request.
func (r *queries) GetWithdrawal(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	w, err := scanWithdrawal(r.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "get withdrawal request")
	}
	return w, nil
}

// ListWithdrawals retrieves withdrawal requests matching filter, newest first.
func (r *queries) ListWithdrawals(ctx context.Context, filter model.RequestFilter) ([]*model.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawal_requests WHERE ` + requestFilterClause + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.q.Query(ctx, query, filter.UserID, string(filter.Status))
	if err != nil {
		return nil, wrapErr(err, nil, "list withdrawal requests")
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.WithdrawalRequest, error) {
		return scanWithdrawal(row)
	})
	if err != nil {
		return nil, wrapErr(err, nil, "scan withdrawal requests")
	}
	return list, nil
}

// GetDepositForUpdate retrieves a deposit request and row-locks it.
func (t *pgTx) GetDepositForUpdate(ctx context.Context, id int64) (*model.DepositRequest, error) {
	d, err := scanDeposit(t.q.QueryRow(ctx, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "lock deposit request")
	}
	return d, nil
}

// CreateDeposit inserts a Pending deposit request.
func (t *pgTx) CreateDeposit(ctx context.Context, in *model.DepositRequest) (*model.DepositRequest, error) {
	const query = `
		INSERT INTO deposit_requests (user_id, amount, transaction_ref, screenshot_url, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING ` + depositColumns

	d, err := scanDeposit(t.q.QueryRow(ctx, query,
		in.UserID, in.Amount, in.TransactionRef, in.ScreenshotURL, string(model.RequestPending),
	))
	if err != nil {
		return nil, wrapErr(err, nil, "create deposit request")
	}
	return d, nil
}

// SetDepositStatus moves a deposit request to status.
func (t *pgTx) SetDepositStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.DepositRequest, error) {
	const query = `UPDATE deposit_requests SET status = $2 WHERE id = $1 RETURNING ` + depositColumns
	d, err := scanDeposit(t.q.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "update deposit request")
	}
	return d, nil
}

// GetWithdrawalForUpdate retrieves a withdrawal request and row-locks it.
func (t *pgTx) GetWithdrawalForUpdate(ctx context.Context, id int64) (*model.WithdrawalRequest, error) {
	w, err := scanWithdrawal(t.q.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "lock withdrawal request")
	}
	return w, nil
}

// CreateWithdrawal inserts a Pending withdrawal request.
func (t *pgTx) CreateWithdrawal(ctx context.Context, in *model.WithdrawalRequest) (*model.WithdrawalRequest, error) {
	const query = `
		INSERT INTO withdrawal_requests (user_id, amount, qr_code_url, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING ` + withdrawalColumns

	w, err := scanWithdrawal(t.q.QueryRow(ctx, query,
		in.UserID, in.Amount, in.QRCodeURL, string(model.RequestPending),
	))
	if err != nil {
		return nil, wrapErr(err, nil, "create withdrawal request")
	}
	return w, nil
}

// SetWithdrawalStatus moves a withdrawal request to status.
func (t *pgTx) SetWithdrawalStatus(ctx context.Context, id int64, status model.RequestStatus) (*model.WithdrawalRequest, error) {
	const query = `UPDATE withdrawal_requests SET status = $2 WHERE id = $1 RETURNING ` + withdrawalColumns
	w, err := scanWithdrawal(t.q.QueryRow(ctx, query, id, string(status)))
	if err != nil {
		return nil, wrapErr(err, model.ErrRequestNotFound, "update withdrawal request")
	}
	return w, nil
}
