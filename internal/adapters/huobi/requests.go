package huobi

import (
	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/precision"
	"github.com/coachpo/xvenue/internal/schema"
)

// MarginSource tags orders placed against a margin account.
const MarginSource = "margin-api"

func createOrderType(side schema.Side, kind schema.OrderKind) string {
	prefix := "buy-"
	if side == schema.SideAsk {
		prefix = "sell-"
	}
	return prefix + string(kind)
}

// BuildCreateOrder converts a market or limit order into a place request for
// accountID. Amount and price are truncated to the table scale of the pair.
func BuildCreateOrder(order schema.Order, accountID string, table *precision.Table, margin bool) (CreateOrderRequest, error) {
	if err := order.Validate(); err != nil {
		return CreateOrderRequest{}, errs.Invalid(venueName, err.Error())
	}
	if order.Kind != schema.OrderKindMarket && order.Kind != schema.OrderKindLimit {
		return CreateOrderRequest{}, errs.New(venueName, errs.CodeInvalid,
			errs.WithMessage("unsupported order kind"),
			errs.WithCanonicalCode(errs.CanonicalUnsupportedOrder),
			errs.WithField("kind", string(order.Kind)))
	}
	if accountID == "" {
		return CreateOrderRequest{}, errs.Invalid(venueName, "account id required")
	}
	pair := order.Pair
	req := CreateOrderRequest{
		AccountID: accountID,
		Amount:    table.Format(pair, precision.AxisQuantity, order.OriginalAmount),
		Symbol:    Symbol(pair),
		Type:      createOrderType(order.Side, order.Kind),
	}
	if order.Kind == schema.OrderKindLimit {
		req.Price = table.Format(pair, precision.AxisPrice, *order.LimitPrice)
	}
	if margin {
		req.Source = MarginSource
	}
	return req, nil
}

// BuildBorrowRequest builds a margin loan request for currency on pair.
func BuildBorrowRequest(pair schema.CurrencyPair, currency string, amount decimal.Decimal) (BorrowRequest, error) {
	if !pair.Contains(currency) {
		return BorrowRequest{}, errs.New(venueName, errs.CodeInvalid,
			errs.WithMessage("currency is not a leg of the pair"),
			errs.WithField("pair", pair.String()),
			errs.WithField("currency", currency))
	}
	if !amount.IsPositive() {
		return BorrowRequest{}, errs.Invalid(venueName, "borrow amount must be positive")
	}
	return BorrowRequest{
		Symbol:   Symbol(pair),
		Currency: Asset(currency),
		Amount:   amount.String(),
	}, nil
}
