// Package app wires configuration, the record store and the notifier into a
// badge lookup service shared by the server and function entry points.
package app

import (
	"context"
	"fmt"

	"github.com/gdg-garage/badge-api/internal/airtable"
	"github.com/gdg-garage/badge-api/internal/badges"
	"github.com/gdg-garage/badge-api/internal/config"
	"github.com/gdg-garage/badge-api/internal/database"
	"github.com/gdg-garage/badge-api/internal/notifier"
	"github.com/gdg-garage/badge-api/internal/records"
	"go.uber.org/zap"
)

// NewService builds the lookup service. An invalid configuration is logged
// and still yields a service, which then rejects every lookup.
func NewService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*badges.Service, error) {
	var store records.Store
	if err := cfg.Validate(); err != nil {
		logger.Warn("record store not configured", zap.Error(err))
	} else {
		s, err := NewStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store = s
	}

	return badges.NewService(cfg, store, newNotifier(cfg, logger), logger), nil
}

// NewStore opens the backend selected by RECORD_STORE.
func NewStore(ctx context.Context, cfg *config.Config) (records.Store, error) {
	switch cfg.RecordStore {
	case config.StoreSQLite:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		return database.NewStore(db), nil
	case config.StoreAirtable:
		return airtable.NewClient(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
	}
}

func newNotifier(cfg *config.Config, logger *zap.Logger) notifier.Notifier {
	if !cfg.DiscordAlertsEnabled() {
		return nil
	}
	session, err := notifier.NewDiscordSession(cfg.DiscordBotToken)
	if err != nil {
		logger.Warn("Discord notifier not initialized", zap.Error(err))
		return nil
	}
	return notifier.NewDiscordNotifier(session, cfg.DiscordAlertsChannelID)
}
