// Package orders turns ranked candidates into at most one booking.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/gym-scheduler/internal/catalog"
	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/gymerr"
	"github.com/example/gym-scheduler/internal/journal"
	"github.com/example/gym-scheduler/internal/metrics"
	"github.com/example/gym-scheduler/internal/notify"
	"github.com/example/gym-scheduler/internal/retry"
)

// EagerOffset is the day the daily refresh opens: the day after tomorrow.
const EagerOffset = 2

// SlotSource answers the read-side questions of an attempt. *catalog.Catalog implements it.
type SlotSource interface {
	OpenSlots(ctx context.Context, day string) ([]booking.TimeSlot, error)
	Prices(ctx context.Context, dayOffset int, day string) (map[booking.DaySegment]int, error)
}

type Config struct {
	MaxRetries  int
	ReqInterval time.Duration
	Concurrency int
	AllowSolo   bool
	RefreshAt   booking.ClockTime
}

// Outcome describes a successful attempt.
type Outcome struct {
	OrderID    string
	PaymentURL string
	Day        string
	Candidate  booking.Candidate
	Recovered  bool
}

// Plan is the warm-up result reused across an EAGER firing window.
type Plan struct {
	Offset     int
	Day        string
	Candidates []booking.Candidate
}

type Orchestrator struct {
	Upstream   booking.Upstream
	Slots      SlotSource
	Prefs      booking.PreferenceTable
	Notifier   notify.Notifier
	Journal    journal.Recorder
	PaymentURL func(orderID string) string
	Log        *slog.Logger
	Cfg        Config
	HuntID     string

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	failNotice map[string]bool
	recovered  map[string]bool
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return retry.SleepCtx(ctx, d)
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.Default()
}

func (o *Orchestrator) executor() retry.Executor {
	return retry.Executor{
		Policy: retry.Policy{MaxRetries: o.Cfg.MaxRetries, ReqInterval: o.Cfg.ReqInterval},
		Log:    o.log(),
		Sleep:  o.Sleep,
	}
}

// Candidates lists and ranks the open slots of one day.
func (o *Orchestrator) Candidates(ctx context.Context, day string) ([]booking.TimeSlot, []booking.Candidate, error) {
	slots, err := o.Slots.OpenSlots(ctx, day)
	if err != nil {
		return nil, nil, err
	}
	return slots, booking.BuildCandidates(slots, o.Prefs, o.Cfg.AllowSolo), nil
}

// Attempt tries to book one candidate. A nil error means a booking exists,
// either freshly created or recovered after an Overbooked rejection.
func (o *Orchestrator) Attempt(ctx context.Context, mode string, offset int, day string, cand booking.Candidate) (Outcome, error) {
	log := o.log().With("day", day, "candidate", cand.String())
	if err := cand.Validate(); err != nil {
		return Outcome{}, err
	}

	prices, err := o.Slots.Prices(ctx, offset, day)
	if err != nil {
		return Outcome{}, fmt.Errorf("prices for %s: %w", day, err)
	}
	total, err := catalog.Price(cand, prices)
	if err != nil {
		return Outcome{}, err
	}
	req := booking.OrderRequest{
		Day:        day,
		ResourceID: cand.ResourceID(),
		HourIDs:    cand.HourIDs(),
		TotalPrice: total,
	}

	log.Info("submitting order", "price", req.TotalPrice)
	tradeNumber, err := retry.Do(ctx, o.executor(), func(ctx context.Context) (string, error) {
		return o.Upstream.SubmitOrder(ctx, req)
	})
	if err == nil {
		out := Outcome{OrderID: tradeNumber, PaymentURL: o.paymentURL(tradeNumber), Day: day, Candidate: cand}
		o.succeed(ctx, mode, out)
		return out, nil
	}

	if errors.Is(err, gymerr.ErrOverbooked) {
		log.Warn("daily limit reached, recovering latest created order", "error", err)
		out, rerr := o.recover(ctx, day, cand)
		if rerr == nil {
			if o.claimRecovered(out.OrderID) {
				o.succeed(ctx, mode, out)
			} else {
				log.Info("order already recovered by a sibling attempt", "order_id", out.OrderID)
			}
			return out, nil
		}
		err = errors.Join(err, rerr)
	}

	log.Error("order attempt failed", "kind", gymerr.KindOf(err).String(), "error", err)
	metrics.AttemptsTotal.WithLabelValues(mode, "failed").Inc()
	o.record(ctx, journal.Entry{
		Mode: mode, Day: day, ResourceID: req.ResourceID, HourIDs: req.HourIDs,
		Outcome: journal.OutcomeFailed, ErrorKind: gymerr.KindOf(err).String(), Error: err.Error(),
	})
	return Outcome{}, err
}

var ErrNoCreatedOrder = errors.New("no created order to recover")

// recover treats the most recent unpaid order as the result of an attempt the
// upstream rejected as Overbooked; the rejection often means an earlier retry
// of the same submit went through.
func (o *Orchestrator) recover(ctx context.Context, day string, cand booking.Candidate) (Outcome, error) {
	orders, err := o.Upstream.ListOrders(ctx, booking.StatusCreated, 1)
	if err != nil {
		return Outcome{}, fmt.Errorf("list created orders: %w", err)
	}
	if len(orders) == 0 {
		return Outcome{}, ErrNoCreatedOrder
	}
	id := orders[0].ID
	return Outcome{OrderID: id, PaymentURL: o.paymentURL(id), Day: day, Candidate: cand, Recovered: true}, nil
}

// claimRecovered reports whether id is recovered for the first time. Batch
// members hitting Overbooked together all find the same created order.
func (o *Orchestrator) claimRecovered(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recovered == nil {
		o.recovered = make(map[string]bool)
	}
	if o.recovered[id] {
		return false
	}
	o.recovered[id] = true
	return true
}

func (o *Orchestrator) paymentURL(id string) string {
	if o.PaymentURL == nil {
		return ""
	}
	return o.PaymentURL(id)
}

func (o *Orchestrator) succeed(ctx context.Context, mode string, out Outcome) {
	o.log().Info("order created, continue to payment",
		"day", out.Day, "order_id", out.OrderID, "recovered", out.Recovered, "payment_url", out.PaymentURL)

	metrics.AttemptsTotal.WithLabelValues(mode, "booked").Inc()
	metrics.BookingsTotal.WithLabelValues(strconv.FormatBool(out.Recovered)).Inc()

	outcome := journal.OutcomeBooked
	if out.Recovered {
		outcome = journal.OutcomeRecovered
	}
	o.record(ctx, journal.Entry{
		Mode: mode, Day: out.Day, ResourceID: out.Candidate.ResourceID(), HourIDs: out.Candidate.HourIDs(),
		Outcome: outcome, OrderID: out.OrderID,
	})

	what := out.Day + " " + out.Candidate.String()
	if out.Recovered {
		what = out.OrderID
	}
	o.notify(ctx, "羽毛球订单创建成功！",
		fmt.Sprintf("订单 **%s** 已创建！\n请在10分钟内完成支付：\n\n[%s](%s)", what, out.PaymentURL, out.PaymentURL))
}

// notifyDayFailed reports a day whose every candidate failed, once per day.
func (o *Orchestrator) notifyDayFailed(ctx context.Context, day string, tried int) {
	o.mu.Lock()
	if o.failNotice == nil {
		o.failNotice = make(map[string]bool)
	}
	seen := o.failNotice[day]
	o.failNotice[day] = true
	o.mu.Unlock()
	if seen {
		return
	}
	o.notify(ctx, "羽毛球订单创建失败",
		fmt.Sprintf("%s 的 %d 个候选场地均未能下单，将继续监控。", day, tried))
}

func (o *Orchestrator) notify(ctx context.Context, title, body string) {
	if o.Notifier == nil {
		return
	}
	if err := o.Notifier.Notify(ctx, title, body); err != nil {
		o.log().Warn("notification failed", "title", title, "error", err)
	}
}

func (o *Orchestrator) record(ctx context.Context, e journal.Entry) {
	if o.Journal == nil {
		return
	}
	e.HuntID = o.HuntID
	e.At = o.now()
	if err := o.Journal.Record(ctx, e); err != nil {
		o.log().Warn("journal write failed", "error", err)
	}
}

// RunNormal walks offsets in order and each day's candidates by score,
// stopping at the first booking.
func (o *Orchestrator) RunNormal(ctx context.Context, offsets []int) (bool, error) {
	now := o.now()
	for _, offset := range offsets {
		day := booking.DayFor(now, offset)
		slots, cands, err := o.Candidates(ctx, day)
		if err != nil {
			return false, err
		}
		if len(slots) > 0 {
			o.log().Info("available slots", "day", day, "count", len(slots), "slots", booking.SummarizeSlots(slots))
		}
		if len(cands) == 0 {
			o.log().Info("no preferred slots available, skipping", "day", day)
			continue
		}
		o.log().Info("ranked candidates", "day", day, "count", len(cands), "candidates", booking.SummarizeCandidates(cands))

		for _, cand := range cands {
			if _, err := o.Attempt(ctx, "normal", offset, day, cand); err == nil {
				return true, nil
			}
			if err := o.sleep(ctx, o.Cfg.ReqInterval); err != nil {
				return false, err
			}
		}
		o.notifyDayFailed(ctx, day, len(cands))
	}
	return false, nil
}

// Warmup ranks the EAGER day's candidates ahead of the refresh instant.
func (o *Orchestrator) Warmup(ctx context.Context) (Plan, error) {
	day := booking.DayFor(o.now(), EagerOffset)
	slots, cands, err := o.Candidates(ctx, day)
	if err != nil {
		return Plan{}, err
	}
	if len(cands) > 0 {
		o.log().Info("warmed up", "day", day, "slots", len(slots), "candidates", booking.SummarizeCandidates(cands))
	}
	return Plan{Offset: EagerOffset, Day: day, Candidates: cands}, nil
}

// RunEager warms up, waits for the refresh instant and fires the plan.
func (o *Orchestrator) RunEager(ctx context.Context) (bool, error) {
	plan, err := o.Warmup(ctx)
	if err != nil {
		return false, err
	}
	if len(plan.Candidates) == 0 {
		o.log().Info("no preferred slots available", "day", plan.Day)
		return false, nil
	}

	now := o.now()
	if fire := o.Cfg.RefreshAt.On(now); now.Before(fire) {
		wait := fire.Sub(now)
		o.log().Info("waiting for refresh", "refresh_at", o.Cfg.RefreshAt.String(), "wait", wait.Round(time.Second))
		if err := o.sleep(ctx, wait); err != nil {
			return false, err
		}
	}
	return o.Fire(ctx, plan)
}

// Fire submits the plan in batches of Concurrency. Every member of a batch is
// awaited before the batch is judged; siblings are never cancelled.
func (o *Orchestrator) Fire(ctx context.Context, plan Plan) (bool, error) {
	size := o.Cfg.Concurrency
	if size < 1 {
		size = 1
	}
	cands := plan.Candidates
	for start := 0; start < len(cands); start += size {
		end := min(start+size, len(cands))
		batch := cands[start:end]

		booked := make([]bool, len(batch))
		var g errgroup.Group
		for i, cand := range batch {
			i, cand := i, cand
			g.Go(func() error {
				_, err := o.Attempt(ctx, "eager", plan.Offset, plan.Day, cand)
				booked[i] = err == nil
				return nil
			})
		}
		_ = g.Wait()

		for _, ok := range booked {
			if ok {
				return true, nil
			}
		}
		if end < len(cands) {
			if err := o.sleep(ctx, o.Cfg.ReqInterval); err != nil {
				return false, err
			}
		}
	}
	o.notifyDayFailed(ctx, plan.Day, len(cands))
	return false, nil
}
