// Package scheduler runs the hunt loop: resolve the mode from the wall clock,
// run that mode's orchestration, sleep, repeat until a booking succeeds.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/gym-scheduler/internal/gymerr"
	"github.com/example/gym-scheduler/internal/metrics"
	"github.com/example/gym-scheduler/internal/retry"
)

// Runner executes the per-mode orchestrations. *orders.Orchestrator implements it.
type Runner interface {
	RunNormal(ctx context.Context, offsets []int) (bool, error)
	RunEager(ctx context.Context) (bool, error)
}

// Refresher reloads facility metadata. *catalog.Catalog implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Status is what the status endpoint reports.
type Status struct {
	HuntID     string    `json:"hunt_id"`
	StartedAt  time.Time `json:"started_at"`
	Mode       string    `json:"mode"`
	Iterations int       `json:"iterations"`
	LastRunAt  time.Time `json:"last_run_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Booked     bool      `json:"booked"`
}

type Daemon struct {
	Runner      Runner
	Catalog     Refresher
	Windows     Windows
	Intervals   Intervals
	Days        []int
	ReqInterval time.Duration
	HuntID      string
	Log         *slog.Logger

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	status Status
}

func (d *Daemon) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Daemon) sleep(ctx context.Context, dur time.Duration) error {
	if d.Sleep != nil {
		return d.Sleep(ctx, dur)
	}
	return retry.SleepCtx(ctx, dur)
}

// actions maps each mode to its orchestration.
func (d *Daemon) actions() map[Mode]func(context.Context) (bool, error) {
	return map[Mode]func(context.Context) (bool, error){
		Hibernate: func(context.Context) (bool, error) { return false, nil },
		Eager:     d.Runner.RunEager,
		Normal: func(ctx context.Context) (bool, error) {
			return d.Runner.RunNormal(ctx, d.Days)
		},
	}
}

// Run loops until a booking succeeds (nil) or ctx is done (ctx.Err()).
func (d *Daemon) Run(ctx context.Context) error {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "daemon", "hunt_id", d.HuntID)

	d.mu.Lock()
	d.status = Status{HuntID: d.HuntID, StartedAt: d.now()}
	d.mu.Unlock()

	actions := d.actions()
	log.Info("hunt started", "days", d.Days)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := d.now()
		mode := d.Windows.ModeAt(now)
		metrics.SetMode(mode.String(), modeNames())

		if mode != Hibernate && d.Catalog != nil {
			if err := d.Catalog.Refresh(ctx); err != nil {
				log.Warn("catalog refresh failed, using fallback data", "error", err)
			}
		}

		log.Info("strategy resolved", "mode", mode.String(), "time", now.Format("15:04:05"))
		booked, err := actions[mode](ctx)
		d.record(mode, now, booked, err)

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			delay := d.errorDelay(err)
			if gymerr.KindOf(err) == gymerr.KindUnknown {
				log.Error("unexpected error in daemon loop", "mode", mode.String(), "retry_in", delay, "error", err)
			} else {
				log.Error("strategy execution failed", "mode", mode.String(), "kind", gymerr.KindOf(err).String(), "retry_in", delay, "error", err)
			}
			if err := d.sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		if booked {
			log.Info("booking succeeded, stopping")
			return nil
		}

		wait := d.Windows.SleepFor(mode, d.now(), d.Intervals)
		log.Debug("sleeping", "mode", mode.String(), "duration", wait)
		if err := d.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// errorDelay is the pause before restarting after a failed iteration.
func (d *Daemon) errorDelay(err error) time.Duration {
	switch gymerr.KindOf(err) {
	case gymerr.KindUnknown:
		return d.ReqInterval
	case gymerr.KindRateLimited:
		return d.ReqInterval
	default:
		return retry.DefaultDelay
	}
}

func (d *Daemon) record(mode Mode, at time.Time, booked bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.Mode = mode.String()
	d.status.Iterations++
	d.status.LastRunAt = at
	d.status.Booked = booked
	d.status.LastError = ""
	if err != nil {
		d.status.LastError = err.Error()
	}
}

// Snapshot returns the current loop status. Safe for concurrent use.
func (d *Daemon) Snapshot() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}
