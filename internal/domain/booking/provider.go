package booking

import "context"

// Upstream is the booking service as seen by the scheduling core. Failures are
// *gymerr.Error values so callers can branch on their kind.
type Upstream interface {
	ListResources(ctx context.Context) (map[string]string, error)
	ListHours(ctx context.Context) (map[int]Hour, error)
	GetPrice(ctx context.Context, dayOffset int, day string) (map[DaySegment]int, error)
	GetAvailability(ctx context.Context, day string) (AvailabilityMap, error)
	// SubmitOrder returns the upstream trade number of the created order.
	SubmitOrder(ctx context.Context, req OrderRequest) (string, error)
	ListOrders(ctx context.Context, status OrderStatus, limit int) ([]Order, error)
	CancelOrder(ctx context.Context, orderID string) (bool, error)
}
