package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/model"
	"tournament-ledger/internal/repository"
)

// SettingsService reads and replaces the app-wide settings record.
type SettingsService struct {
	store    repository.Store
	defaults model.AppSettings
}

// NewSettingsService creates a settings service. defaults fill every key the
// stored record lacks.
func NewSettingsService(store repository.Store, defaults model.AppSettings) *SettingsService {
	return &SettingsService{store: store, defaults: defaults.Clone()}
}

// Get returns the stored settings merged over the defaults. A corrupt stored
// record is logged and the defaults are returned.
func (s *SettingsService) Get(ctx context.Context) (model.AppSettings, error) {
	raw, err := s.store.LoadSettings(ctx)
	if err != nil {
		return model.AppSettings{}, err
	}
	merged, err := model.MergeSettings(s.defaults, raw)
	if err != nil {
		log.Warn().Err(err).Msg("Stored settings are corrupt, using defaults")
	}
	return merged, nil
}

// Update replaces the settings record.
func (s *SettingsService) Update(ctx context.Context, adminID int64, settings model.AppSettings) (model.AppSettings, error) {
	settings = settings.Clone()
	raw, err := json.Marshal(settings)
	if err != nil {
		return model.AppSettings{}, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.SaveSettings(ctx, raw)
	}); err != nil {
		return model.AppSettings{}, err
	}

	log.Info().
		Int64("admin_id", adminID).
		Str("operation", "update_settings").
		Msg("Admin operation executed")
	return settings, nil
}
