package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// LoadSettings returns the stored settings document, or nil if none exists.
func (r *queries) LoadSettings(ctx context.Context) ([]byte, error) {
	var raw []byte
	err := r.q.QueryRow(ctx, `SELECT data::text FROM app_settings WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, nil, "load settings")
	}
	return raw, nil
}

// SaveSettings replaces the settings document.
func (t *pgTx) SaveSettings(ctx context.Context, raw []byte) error {
	const query = `
		INSERT INTO app_settings (id, data, updated_at)
		VALUES (1, $1::jsonb, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`
	if _, err := t.q.Exec(ctx, query, string(raw)); err != nil {
		return wrapErr(err, nil, "save settings")
	}
	return nil
}
