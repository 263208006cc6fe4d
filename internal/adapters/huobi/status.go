package huobi

import (
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/schema"
)

func stateIn(states ...string) func(Order) bool {
	return func(o Order) bool {
		for _, s := range states {
			if o.State == s {
				return true
			}
		}
		return false
	}
}

var statusRules = shared.StatusRules[Order]{
	{Name: "created", When: stateIn("created"), Then: shared.Always[Order](schema.OrderStatusPendingNew)},
	{Name: "submitted", When: stateIn("pre-submitted", "submitting", "submitted"), Then: shared.Always[Order](schema.OrderStatusNew)},
	{Name: "partial-filled", When: stateIn("partial-filled"), Then: shared.Always[Order](schema.OrderStatusPartiallyFilled)},
	{Name: "filled", When: stateIn("filled"), Then: shared.Always[Order](schema.OrderStatusFilled)},
	{Name: "canceled", When: stateIn("canceled", "partial-canceled"), Then: shared.Always[Order](schema.OrderStatusCanceled)},
}

// AdaptOrderStatus maps an order state to the unified status.
func AdaptOrderStatus(o Order) schema.OrderStatus {
	return statusRules.Resolve(o)
}
