package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSettings_EmptyUsesDefaults(t *testing.T) {
	defaults := DefaultSettings()
	defaults.AdminUPIID = "admin@esewa"

	merged, err := MergeSettings(defaults, nil)
	require.NoError(t, err)
	assert.Equal(t, defaults, merged)
}

func TestMergeSettings_MissingKeysKeepDefaults(t *testing.T) {
	defaults := DefaultSettings()
	defaults.BannerAds = []string{"a.png", "b.png"}
	defaults.Socials.YouTube = "https://youtube.com/default"

	raw := []byte(`{"app_name":"Arena","socials":{"facebook":"https://fb.com/arena"}}`)
	merged, err := MergeSettings(defaults, raw)
	require.NoError(t, err)

	assert.Equal(t, "Arena", merged.AppName)
	assert.Equal(t, defaults.SupportEmail, merged.SupportEmail)
	assert.Equal(t, []string{"a.png", "b.png"}, merged.BannerAds)
	assert.Equal(t, "https://fb.com/arena", merged.Socials.Facebook)
	assert.Equal(t, "https://youtube.com/default", merged.Socials.YouTube)
}

func TestMergeSettings_DoesNotMutateDefaults(t *testing.T) {
	defaults := DefaultSettings()
	defaults.BannerAds = []string{"one", "two", "three"}

	_, err := MergeSettings(defaults, []byte(`{"banner_ads":["x"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, defaults.BannerAds)
}

func TestMergeSettings_CorruptFallsBack(t *testing.T) {
	defaults := DefaultSettings()
	merged, err := MergeSettings(defaults, []byte(`{not json`))
	assert.Error(t, err)
	assert.Equal(t, defaults, merged)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{ErrInvalidPhone, ErrValidation},
		{ErrUsernameTaken, ErrConflict},
		{ErrAlreadyJoined, ErrConflict},
		{ErrInvalidCredentials, ErrAuth},
		{ErrTournamentNotFound, ErrNotFound},
		{ErrAlreadyCompleted, ErrState},
		{ErrInsufficientBalance, ErrInsufficientFunds},
		{ErrLedgerBusy, ErrBusy},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, ErrorKind(tt.err), tt.kind)
		})
	}
	assert.Nil(t, ErrorKind(assert.AnError))
}
