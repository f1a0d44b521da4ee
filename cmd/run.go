package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/gym-scheduler/internal/config"
	"github.com/example/gym-scheduler/internal/scheduler"
	"github.com/example/gym-scheduler/internal/web"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		days          []int
		reqInterval   int
		interval      int
		eagerInterval int
		concurrency   int
		refreshTime   string
		maxRetries    int
		allowSolo     bool
		migrateUp     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the booking daemon until a court is booked",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(opts)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			override := func(name string, apply func()) {
				if flags.Changed(name) {
					apply()
				}
			}
			override("days", func() { cfg.Days = days })
			override("req-interval", func() { cfg.ReqInterval = &reqInterval })
			override("interval", func() { cfg.Interval = interval })
			override("eager-interval", func() { cfg.EagerInterval = eagerInterval })
			override("concurrency", func() { cfg.Concurrency = concurrency })
			override("refresh-time", func() { cfg.RefreshTime = refreshTime })
			override("max-retries", func() { cfg.MaxRetries = maxRetries })
			override("consider-solo-fields", func() { cfg.AllowSolo = allowSolo })
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.journal(ctx, migrateUp)
			if err != nil {
				return err
			}

			huntID := uuid.New().String()
			orch, err := a.orchestrator(rec, huntID)
			if err != nil {
				return err
			}
			daemon, err := newDaemon(cfg, orch, a, huntID)
			if err != nil {
				return err
			}

			ctx, stop := context.WithCancel(ctx)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				// a booking ends the hunt and takes the status server down with it
				defer stop()
				return daemon.Run(gctx)
			})
			if cfg.StatusAddr != "" {
				ws := &web.Server{Status: daemon, Slots: a.catalog, Log: log}
				g.Go(func() error {
					return web.Start(gctx, cfg.StatusAddr, ws.Routes(), log)
				})
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("hunt finished", "hunt_id", huntID, "booked", daemon.Snapshot().Booked)
			return nil
		},
	}

	f := cmd.Flags()
	f.IntSliceVar(&days, "days", nil, "day offsets to hunt in NORMAL mode (0 = today)")
	f.IntVar(&reqInterval, "req-interval", 0, "seconds between order requests")
	f.IntVar(&interval, "interval", 0, "seconds between NORMAL iterations")
	f.IntVar(&eagerInterval, "eager-interval", 0, "seconds between EAGER iterations")
	f.IntVar(&concurrency, "concurrency", 0, "orders submitted in parallel when the refresh opens")
	f.StringVar(&refreshTime, "refresh-time", "", "daily slot refresh time (HH:MM)")
	f.IntVar(&maxRetries, "max-retries", 0, "retries per order request")
	f.BoolVar(&allowSolo, "consider-solo-fields", false, "also book fields reserved for solo play")
	f.BoolVar(&migrateUp, "migrate", true, "apply journal migrations on startup")

	return cmd
}

func newDaemon(cfg config.Config, orch scheduler.Runner, a *app, huntID string) (*scheduler.Daemon, error) {
	windows, err := cfg.SchedulerWindows()
	if err != nil {
		return nil, err
	}
	return &scheduler.Daemon{
		Runner:      orch,
		Catalog:     a.catalog,
		Windows:     windows,
		Intervals:   cfg.Intervals(),
		Days:        cfg.Days,
		ReqInterval: cfg.ReqIntervalDuration(),
		HuntID:      huntID,
		Log:         a.log,
	}, nil
}
