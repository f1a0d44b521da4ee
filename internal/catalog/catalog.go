// Package catalog caches the facility description (resources and hours) and
// answers price and open-slot queries, falling back to last-known-good or
// static data whenever the upstream misbehaves.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/metrics"
)

// Snapshot is the persisted form of a successful refresh.
type Snapshot struct {
	Resources map[string]string    `json:"resources"`
	Hours     map[int]booking.Hour `json:"hours"`
	SavedAt   time.Time            `json:"saved_at"`
}

// Store persists the last good snapshot across restarts.
type Store interface {
	Load(ctx context.Context) (Snapshot, bool, error)
	Save(ctx context.Context, s Snapshot) error
}

type Catalog struct {
	up     booking.Upstream
	static Static
	store  Store
	log    *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	resources map[string]string
	hours     map[int]booking.Hour
}

// New builds a catalog. store may be nil.
func New(up booking.Upstream, static Static, store Store, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{
		up:     up,
		static: static,
		store:  store,
		log:    log.With("component", "catalog"),
		now:    time.Now,
	}
}

// Refresh reloads resources and hours. It never leaves the catalog empty: a
// failed table keeps its previous value, then the stored snapshot, then the
// static default. The returned error only reports what failed.
func (c *Catalog) Refresh(ctx context.Context) error {
	resources, rerr := c.up.ListResources(ctx)
	if rerr == nil && len(resources) == 0 {
		rerr = errors.New("empty resource list")
	}
	hours, herr := c.up.ListHours(ctx)
	if herr == nil && len(hours) == 0 {
		herr = errors.New("empty hour list")
	}

	var snap *Snapshot
	loadSnap := func() *Snapshot {
		if snap != nil || c.store == nil {
			return snap
		}
		s, ok, err := c.store.Load(ctx)
		if err != nil {
			c.log.Warn("catalog store load failed", "error", err)
			return nil
		}
		if ok {
			snap = &s
		}
		return snap
	}

	c.mu.Lock()
	if rerr == nil {
		c.resources = resources
	} else {
		c.resources = pickResources(c.resources, loadSnap, c.static.Resources)
	}
	if herr == nil {
		c.hours = hours
	} else {
		c.hours = pickHours(c.hours, loadSnap, c.static.Hours)
	}
	c.mu.Unlock()

	if rerr == nil && herr == nil {
		if c.store != nil {
			if err := c.store.Save(ctx, Snapshot{Resources: resources, Hours: hours, SavedAt: c.now()}); err != nil {
				c.log.Warn("catalog store save failed", "error", err)
			}
		}
		c.log.Debug("catalog refreshed", "resources", len(resources), "hours", len(hours))
		return nil
	}

	var errs []error
	if rerr != nil {
		errs = append(errs, fmt.Errorf("list resources: %w", rerr))
	}
	if herr != nil {
		errs = append(errs, fmt.Errorf("list hours: %w", herr))
	}
	return errors.Join(errs...)
}

func pickResources(current map[string]string, snap func() *Snapshot, static map[string]string) map[string]string {
	if len(current) > 0 {
		metrics.CatalogFallbackTotal.WithLabelValues("resources", "cached").Inc()
		return current
	}
	if s := snap(); s != nil && len(s.Resources) > 0 {
		metrics.CatalogFallbackTotal.WithLabelValues("resources", "store").Inc()
		return s.Resources
	}
	metrics.CatalogFallbackTotal.WithLabelValues("resources", "static").Inc()
	return static
}

func pickHours(current map[int]booking.Hour, snap func() *Snapshot, static map[int]booking.Hour) map[int]booking.Hour {
	if len(current) > 0 {
		metrics.CatalogFallbackTotal.WithLabelValues("hours", "cached").Inc()
		return current
	}
	if s := snap(); s != nil && len(s.Hours) > 0 {
		metrics.CatalogFallbackTotal.WithLabelValues("hours", "store").Inc()
		return s.Hours
	}
	metrics.CatalogFallbackTotal.WithLabelValues("hours", "static").Inc()
	return static
}

// Resources returns the current resource names, loading them on first use.
func (c *Catalog) Resources(ctx context.Context) map[string]string {
	c.ensure(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resources
}

// Hours returns the current hour table, loading it on first use.
func (c *Catalog) Hours(ctx context.Context) map[int]booking.Hour {
	c.ensure(ctx)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hours
}

func (c *Catalog) ensure(ctx context.Context) {
	c.mu.RLock()
	loaded := c.resources != nil && c.hours != nil
	c.mu.RUnlock()
	if loaded {
		return
	}
	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("catalog refresh failed, using fallback data", "error", err)
	}
}

// Prices returns the per-segment price for day. Upstream failures, and upstream
// tables missing a segment, fall back to the static weekday or weekend table.
func (c *Catalog) Prices(ctx context.Context, dayOffset int, day string) (map[booking.DaySegment]int, error) {
	prices, err := c.up.GetPrice(ctx, dayOffset, day)
	if err == nil {
		missing := c.missingSegments(prices)
		if len(missing) == 0 {
			return prices, nil
		}
		err = fmt.Errorf("upstream prices lack segments %v", missing)
	}

	weekend, perr := booking.IsWeekend(day)
	if perr != nil {
		return nil, perr
	}
	c.log.Warn("price lookup failed, using static prices", "day", day, "weekend", weekend, "error", err)
	if weekend {
		metrics.CatalogFallbackTotal.WithLabelValues("prices", "static_weekend").Inc()
		return c.static.Weekend, nil
	}
	metrics.CatalogFallbackTotal.WithLabelValues("prices", "static_weekday").Inc()
	return c.static.Weekday, nil
}

// OpenSlots fetches fresh availability for day and lists the free slots.
// Availability is never cached.
func (c *Catalog) OpenSlots(ctx context.Context, day string) ([]booking.TimeSlot, error) {
	resources := c.Resources(ctx)
	hours := c.Hours(ctx)

	avail, err := c.up.GetAvailability(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("availability for %s: %w", day, err)
	}
	return booking.OpenSlots(resources, hours, avail), nil
}

// missingSegments lists the static segments absent from prices.
func (c *Catalog) missingSegments(prices map[booking.DaySegment]int) []booking.DaySegment {
	var missing []booking.DaySegment
	for _, seg := range []booking.DaySegment{booking.SegmentMorning, booking.SegmentDay, booking.SegmentNight} {
		if _, ok := c.static.Weekday[seg]; !ok {
			continue
		}
		if _, ok := prices[seg]; !ok {
			missing = append(missing, seg)
		}
	}
	return missing
}

var ErrNoPrice = errors.New("no price for segment")

// Price sums the segment prices of the candidate's slots. A slot whose
// segment is unpriced fails the whole sum.
func Price(cand booking.Candidate, prices map[booking.DaySegment]int) (int, error) {
	total := 0
	for _, s := range cand.Slots {
		p, ok := prices[s.Segment]
		if !ok {
			return 0, fmt.Errorf("%w %q (%s)", ErrNoPrice, s.Segment, s.Label)
		}
		total += p
	}
	return total, nil
}
