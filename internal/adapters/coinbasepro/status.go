package coinbasepro

import (
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/schema"
)

func doneStatus(o Order) schema.OrderStatus {
	switch o.DoneReason {
	case "filled":
		return schema.OrderStatusFilled
	case "canceled":
		return schema.OrderStatusCanceled
	default:
		return schema.OrderStatusUnknown
	}
}

// statusRules is evaluated in order; the first match wins.
var statusRules = shared.StatusRules[Order]{
	{
		Name: "pending",
		When: func(o Order) bool { return o.Status == "pending" },
		Then: shared.Always[Order](schema.OrderStatusPendingNew),
	},
	{
		Name: "done",
		When: func(o Order) bool { return o.Status == "done" || o.Status == "settled" },
		Then: doneStatus,
	},
	{
		// a stop that triggered but has not executed yet
		Name: "triggered-stop",
		When: func(o Order) bool { return o.FilledSize.IsZero() && o.Status == "open" && o.HasStop() },
		Then: shared.Always[Order](schema.OrderStatusStopped),
	},
	{
		Name: "unfilled",
		When: func(o Order) bool { return o.FilledSize.IsZero() },
		Then: shared.Always[Order](schema.OrderStatusNew),
	},
	{
		Name: "partially-filled",
		When: func(o Order) bool { return o.FilledSize.IsPositive() && o.Size.GreaterThanOrEqual(o.FilledSize) },
		Then: shared.Always[Order](schema.OrderStatusPartiallyFilled),
	},
}

// AdaptOrderStatus infers the unified status of an order.
func AdaptOrderStatus(o Order) schema.OrderStatus {
	return statusRules.Resolve(o)
}

// AdaptOrderStatuses maps each order to its status, preserving order.
func AdaptOrderStatuses(orders []Order) []schema.OrderStatus {
	out := make([]schema.OrderStatus, len(orders))
	for i, o := range orders {
		out[i] = AdaptOrderStatus(o)
	}
	return out
}
