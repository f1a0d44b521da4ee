// Package retry wraps a single upstream call with per-kind backoff.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/gym-scheduler/internal/gymerr"
	"github.com/example/gym-scheduler/internal/metrics"
)

// DefaultDelay is the pause after an ordinary transient failure.
const DefaultDelay = 500 * time.Millisecond

// Policy bounds the retries of one operation.
type Policy struct {
	MaxRetries  int
	ReqInterval time.Duration // cooldown after a rate-limited attempt
}

// Executor applies a Policy. The zero value retries once with no logging.
type Executor struct {
	Policy Policy
	Log    *slog.Logger

	// Sleep defaults to SleepCtx; tests replace it to count delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DelayFor returns the wait before retrying after a failure of kind k.
func (p Policy) DelayFor(k gymerr.Kind) time.Duration {
	if k == gymerr.KindRateLimited && p.ReqInterval > 0 {
		return p.ReqInterval
	}
	return DefaultDelay
}

// Do invokes op up to MaxRetries times. Only classified upstream failures are
// retried; the last failure is returned unchanged.
func Do[T any](ctx context.Context, ex Executor, op func(context.Context) (T, error)) (T, error) {
	attempts := ex.Policy.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	sleep := ex.Sleep
	if sleep == nil {
		sleep = SleepCtx
	}

	var zero T
	for i := 1; ; i++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		kind := gymerr.KindOf(err)
		metrics.UpstreamErrorsTotal.WithLabelValues(kind.String()).Inc()
		if kind == gymerr.KindUnknown || i >= attempts || ctx.Err() != nil {
			return zero, err
		}

		delay := ex.Policy.DelayFor(kind)
		if ex.Log != nil {
			ex.Log.Warn("attempt failed, retrying",
				"attempt", i, "max_retries", attempts, "kind", kind.String(), "delay", delay, "error", err)
		}
		metrics.RetriesTotal.WithLabelValues(kind.String()).Inc()
		if serr := sleep(ctx, delay); serr != nil {
			return zero, serr
		}
	}
}

// SleepCtx waits for d or until ctx is done.
func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
