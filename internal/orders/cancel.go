package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/gym-scheduler/internal/domain/booking"
)

var ErrOrderNotFound = errors.New("no paid order covers that slot")

// paidSearchLimit bounds the order listing scanned by CancelBySlot.
const paidSearchLimit = 10

// CancelOrder cancels the order with the given id.
func (o *Orchestrator) CancelOrder(ctx context.Context, id string) error {
	ok, err := o.Upstream.CancelOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("cancel %s: rejected by upstream", id)
	}
	o.log().Info("order cancelled", "order_id", id)
	return nil
}

// CancelBySlot finds the paid order booking (day, resource, hour) and cancels it.
func (o *Orchestrator) CancelBySlot(ctx context.Context, day, resourceID string, hourID int) (string, error) {
	orders, err := o.Upstream.ListOrders(ctx, booking.StatusPaid, paidSearchLimit)
	if err != nil {
		return "", fmt.Errorf("list paid orders: %w", err)
	}
	for _, ord := range orders {
		if ord.Covers(day, resourceID, hourID) {
			return ord.ID, o.CancelOrder(ctx, ord.ID)
		}
	}
	return "", ErrOrderNotFound
}
