package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fdeconsole/db"
	"fdeconsole/models"
)

// Settings keeps per-entity alert configuration and channel selection in a
// key/value store.
type Settings struct {
	store db.Store
}

func NewSettings(store db.Store) *Settings {
	return &Settings{store: store}
}

func alertConfigKey(entityID string) string { return "alert-config:" + entityID }
func channelKey(entityID string) string     { return "channel:" + entityID }

// AlertConfig falls back to the defaults when nothing was saved.
func (s *Settings) AlertConfig(ctx context.Context, entityID string) (models.AlertConfig, error) {
	raw, err := s.store.Get(ctx, alertConfigKey(entityID))
	if errors.Is(err, db.ErrNotFound) {
		return models.DefaultAlertConfig(), nil
	}
	if err != nil {
		return models.AlertConfig{}, fmt.Errorf("load alert config for %s: %w", entityID, err)
	}

	var cfg models.AlertConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return models.AlertConfig{}, fmt.Errorf("decode alert config for %s: %w", entityID, err)
	}
	return cfg, nil
}

func (s *Settings) SetAlertConfig(ctx context.Context, entityID string, cfg models.AlertConfig) error {
	if cfg.ErrorRateThreshold < 0 || cfg.MinErrorCount < 0 || cfg.CooldownMinutes < 0 {
		return fmt.Errorf("alert config values must be non-negative")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, alertConfigKey(entityID), string(raw))
}

func (s *Settings) Channel(ctx context.Context, entityID string) (models.Channel, error) {
	raw, err := s.store.Get(ctx, channelKey(entityID))
	if errors.Is(err, db.ErrNotFound) {
		return models.ChannelNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("load channel for %s: %w", entityID, err)
	}
	return models.Channel(raw), nil
}

func (s *Settings) SetChannel(ctx context.Context, entityID string, channel models.Channel) error {
	if !channel.Valid() {
		return fmt.Errorf("unknown channel %q", channel)
	}
	return s.store.Set(ctx, channelKey(entityID), string(channel))
}
