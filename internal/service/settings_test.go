package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

func TestSettings_DefaultsWhenEmpty(t *testing.T) {
	env := newTestEnv(t)

	got, err := env.settings.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
}

func TestSettings_UpdateReplacesRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := model.DefaultSettings()
	in.AdminUPIID = "admin@esewa"
	in.BannerAds = []string{"a.png"}
	in.Socials.TikTok = "https://tiktok.com/@arena"

	saved, err := env.settings.Update(ctx, AdminID, in)
	require.NoError(t, err)
	assert.Equal(t, in, saved)

	in.BannerAds[0] = "mutated"
	got, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin@esewa", got.AdminUPIID)
	assert.Equal(t, []string{"a.png"}, got.BannerAds)
	assert.Equal(t, "https://tiktok.com/@arena", got.Socials.TikTok)
}

func TestSettings_PartialRecordKeepsDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveSettings(ctx, []byte(`{"app_name":"Arena"}`))
	}))

	got, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Arena", got.AppName)
	assert.Equal(t, model.DefaultSettings().SupportEmail, got.SupportEmail)
}

func TestSettings_CorruptRecordFallsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveSettings(ctx, []byte(`{bad`))
	}))

	got, err := env.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), got)
}
