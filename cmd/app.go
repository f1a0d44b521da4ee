package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/gym-scheduler/internal/catalog"
	"github.com/example/gym-scheduler/internal/config"
	"github.com/example/gym-scheduler/internal/db"
	"github.com/example/gym-scheduler/internal/gym"
	"github.com/example/gym-scheduler/internal/journal"
	"github.com/example/gym-scheduler/internal/logging"
	"github.com/example/gym-scheduler/internal/migrate"
	"github.com/example/gym-scheduler/internal/notify"
	"github.com/example/gym-scheduler/internal/orders"
)

// app bundles the collaborators every subcommand builds from the config.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	gym     *gym.Client
	catalog *catalog.Catalog
	closers []func()
}

func loadConfig(opts *rootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}
	log := logging.Init(logging.ParseLevel(cfg.LogLevel))
	return cfg, log, nil
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	if err := cfg.RequireSession(); err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	a.gym = gym.New(gym.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		OpenID:  cfg.OpenID,
		SportID: cfg.SportID,
	}, log)

	var store catalog.Store
	if cfg.RedisURL != "" {
		rs, err := catalog.NewRedisStore(ctx, cfg.RedisURL, cfg.SportID)
		if err != nil {
			// the static tables still cover a missing cache
			log.Warn("catalog cache unavailable", "error", err)
		} else {
			store = rs
			a.closers = append(a.closers, func() { _ = rs.Close() })
		}
	}
	a.catalog = catalog.New(a.gym, catalog.DefaultStatic(), store, log)
	return a, nil
}

// journal opens the attempt journal when a database is configured.
func (a *app) journal(ctx context.Context, migrateUp bool) (journal.Recorder, error) {
	if a.cfg.DatabaseURL == "" {
		return journal.Nop{}, nil
	}
	d, err := db.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, d.Close)

	if err := d.Ping(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if err := migrate.Up(ctx, d, a.log); err != nil {
			return nil, err
		}
	}
	return journal.NewRepo(d), nil
}

func (a *app) orchestrator(rec journal.Recorder, huntID string) (*orders.Orchestrator, error) {
	prefs, err := a.cfg.PreferenceTable()
	if err != nil {
		return nil, err
	}
	return &orders.Orchestrator{
		Upstream:   a.gym,
		Slots:      a.catalog,
		Prefs:      prefs,
		Notifier:   &notify.ServerChan{Key: a.cfg.SendKey, Log: a.log},
		Journal:    rec,
		PaymentURL: a.gym.PaymentURL,
		Log:        a.log.With("component", "orders", "hunt_id", huntID),
		HuntID:     huntID,
		Cfg: orders.Config{
			MaxRetries:  a.cfg.MaxRetries,
			ReqInterval: a.cfg.ReqIntervalDuration(),
			Concurrency: a.cfg.Concurrency,
			AllowSolo:   a.cfg.AllowSolo,
			RefreshAt:   a.cfg.RefreshAt(),
		},
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
