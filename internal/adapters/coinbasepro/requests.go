package coinbasepro

import (
	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/precision"
	"github.com/coachpo/xvenue/internal/schema"
)

func placeSide(side schema.Side) string {
	if side == schema.SideAsk {
		return "sell"
	}
	return "buy"
}

// StopDirection returns the stop instruction for side: sells stop out a
// loss, buys enter a position.
func StopDirection(side schema.Side) string {
	if side == schema.SideAsk {
		return "loss"
	}
	return "entry"
}

// BuildPlaceOrder converts a unified order into a POST /orders body. Amounts
// and prices are rounded toward zero by table; a nil table leaves them as is.
func BuildPlaceOrder(order schema.Order, table *precision.Table) (PlaceOrderRequest, error) {
	if err := order.Validate(); err != nil {
		return PlaceOrderRequest{}, errs.New(venueName, errs.CodeInvalid,
			errs.WithMessage(err.Error()),
			errs.WithCanonicalCode(errs.CanonicalUnsupportedOrder))
	}
	pair := order.Pair
	req := PlaceOrderRequest{
		Side:      placeSide(order.Side),
		ProductID: ProductID(pair),
		Size:      table.Round(pair, precision.AxisQuantity, order.OriginalAmount),
	}
	price := func(v decimal.Decimal) *decimal.Decimal {
		rounded := table.Round(pair, precision.AxisPrice, v)
		return &rounded
	}

	switch order.Kind {
	case schema.OrderKindMarket:
		req.Type = "market"
	case schema.OrderKindLimit:
		req.Type = "limit"
		req.Price = price(*order.LimitPrice)
		if order.HasFlag(schema.FlagPostOnly) {
			req.PostOnly = true
		}
		if order.HasFlag(schema.FlagFillOrKill) {
			req.TimeInForce = "FOK"
		}
		// applied last, so it overrides FOK when both are set
		if order.HasFlag(schema.FlagImmediateOrCancel) {
			req.TimeInForce = "IOC"
		}
	case schema.OrderKindStop:
		req.Stop = StopDirection(order.Side)
		req.StopPrice = price(*order.StopPrice)
		if order.LimitPrice == nil {
			req.Type = "market"
			break
		}
		req.Type = "limit"
		req.Price = price(*order.LimitPrice)
	}
	return req, nil
}
