package cmd

import (
	"context"
	"fmt"
	"time"

	"fdeconsole/config"
	"fdeconsole/db"
	"fdeconsole/handlers"
	"fdeconsole/models"
	"fdeconsole/services"

	"github.com/sirupsen/logrus"
)

// app is everything the commands need, wired from one Config.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	store    db.Store
	jobs     *services.JobStore
	engine   *services.Engine
	monitor  *services.Monitor
	handler  *handlers.Handler
	interval time.Duration
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return db.NewMemoryStore(), nil
	case "postgres":
		conn, err := db.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db.NewPostgresStore(conn), nil
	case "redis":
		return db.NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*app, error) {
	if err := services.ValidateEntities(cfg.Simulation.Entities); err != nil {
		return nil, fmt.Errorf("simulation entities: %w", err)
	}
	interval := time.Duration(cfg.Simulation.IntervalMs) * time.Millisecond
	if interval <= 0 {
		return nil, fmt.Errorf("simulation.interval_ms must be positive")
	}
	if err := validateMonitor(cfg); err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	settings := services.NewSettings(store)
	deliveries := services.NewDeliveries()
	slack := services.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.RatePerSec, cfg.Slack.Burst)
	notifiers := services.Notifiers{
		models.ChannelSlack: slack,
		models.ChannelEmail: services.NewEmailNotifier(cfg.Email.SendGridAPIKey, cfg.Email.AlertEmail),
	}

	jobs := services.NewJobStore(log.WithField("component", "jobs"))
	alerter := services.NewSimulationAlerter(settings, notifiers, deliveries, log.WithField("component", "sim-alerts")).
		WithPublicURL(cfg.Server.PublicURL)
	engine := services.NewEngine(log.WithField("component", "simulation"), services.WithAlerter(alerter, false))
	if err := engine.Load(cfg.Simulation.Entities); err != nil {
		return nil, err
	}
	monitor := services.NewMonitor(engine, settings, services.NewAlertPolicy(), notifiers, deliveries, log.WithField("component", "monitor")).
		WithPublicURL(cfg.Server.PublicURL)

	copilot := services.NewCopilot(engine, jobs, log.WithField("component", "copilot"))
	if cfg.Features.CopilotLLM {
		copilot.WithLLM(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	}

	h := &handlers.Handler{
		Jobs:       jobs,
		Engine:     engine,
		Settings:   settings,
		Monitor:    monitor,
		Deliveries: deliveries,
		Notifiers:  notifiers,
		Slack:      slack,
		GitHub:     services.NewGitHubClient(cfg.GitHub.BaseURL, cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo),
		Copilot:    copilot,
		Auth: handlers.AuthSettings{
			Secret:   []byte(cfg.Auth.JWTSecret),
			Operator: models.Operator{Email: cfg.Auth.AdminEmail, PasswordHash: cfg.Auth.AdminPasswordHash},
			TokenTTL: time.Duration(cfg.Auth.TokenTTLHours) * time.Hour,
		},
		Catalog:         cfg.Simulation.Entities,
		DefaultInterval: interval,
		Log:             log.WithField("component", "http"),
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		jobs:     jobs,
		engine:   engine,
		monitor:  monitor,
		handler:  h,
		interval: interval,
	}, nil
}

// validateMonitor checks the watch settings only when watching is switched on.
func validateMonitor(cfg *config.Config) error {
	if !cfg.Features.MonitorWatching || cfg.Simulation.MonitorEntity == "" {
		return nil
	}
	if cfg.Simulation.MonitorIntervalS <= 0 {
		return fmt.Errorf("simulation.monitor_interval_s must be positive")
	}
	for _, e := range cfg.Simulation.Entities {
		if e.ID == cfg.Simulation.MonitorEntity {
			return nil
		}
	}
	return fmt.Errorf("simulation.monitor_entity %q is not in the entity catalog", cfg.Simulation.MonitorEntity)
}

func (a *app) Close() {
	a.engine.Stop()
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("closing store")
	}
}
