package schema

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order from the owner's point of view.
type Side string

const (
	// SideBid buys the base currency.
	SideBid Side = "bid"
	// SideAsk sells the base currency.
	SideAsk Side = "ask"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// Valid reports whether the side is recognised.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// OrderKind tags the variant carried by an Order.
type OrderKind string

const (
	// OrderKindMarket executes immediately at the best available price.
	OrderKindMarket OrderKind = "market"
	// OrderKindLimit rests at a limit price.
	OrderKindLimit OrderKind = "limit"
	// OrderKindStop activates once a trigger price is crossed.
	OrderKindStop OrderKind = "stop"
)

// OrderStatus is the unified order lifecycle state.
type OrderStatus string

const (
	OrderStatusPendingNew      OrderStatus = "pending_new"
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	// OrderStatusStopped marks a triggered stop order that has not executed yet.
	OrderStatusStopped OrderStatus = "stopped"
	OrderStatusUnknown OrderStatus = "unknown"
)

// IsFinal reports whether no further transitions are expected.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusFilled || s == OrderStatusCanceled
}

// OrderFlag is an execution instruction attached to an order.
type OrderFlag string

const (
	// FlagPostOnly rejects the order if it would take liquidity.
	FlagPostOnly OrderFlag = "post_only"
	// FlagFillOrKill fills the order entirely and immediately or cancels it.
	FlagFillOrKill OrderFlag = "fill_or_kill"
	// FlagImmediateOrCancel fills what it can immediately and cancels the rest.
	FlagImmediateOrCancel OrderFlag = "immediate_or_cancel"
)

// Order is a tagged union over market, limit and stop orders. Fields that do
// not belong to the variant named by Kind are left zero; use the constructors
// to keep them consistent.
type Order struct {
	Kind             OrderKind
	Side             Side
	Pair             CurrencyPair
	OriginalAmount   decimal.Decimal
	ID               string
	Timestamp        *time.Time
	AveragePrice     decimal.Decimal
	CumulativeAmount decimal.Decimal
	Fee              decimal.Decimal
	Status           OrderStatus
	Flags            []OrderFlag

	// LimitPrice is set for limit orders and optionally for stop orders.
	LimitPrice *decimal.Decimal
	// StopPrice is set for stop orders only.
	StopPrice *decimal.Decimal
}

// Fill carries the execution state shared by every variant.
type Fill struct {
	ID               string
	Timestamp        *time.Time
	AveragePrice     decimal.Decimal
	CumulativeAmount decimal.Decimal
	Fee              decimal.Decimal
	Status           OrderStatus
}

func newOrder(kind OrderKind, side Side, amount decimal.Decimal, pair CurrencyPair, fill Fill) Order {
	status := fill.Status
	if status == "" {
		status = OrderStatusPendingNew
	}
	return Order{
		Kind:             kind,
		Side:             side,
		Pair:             pair,
		OriginalAmount:   amount,
		ID:               fill.ID,
		Timestamp:        fill.Timestamp,
		AveragePrice:     fill.AveragePrice,
		CumulativeAmount: fill.CumulativeAmount,
		Fee:              fill.Fee,
		Status:           status,
	}
}

// NewMarketOrder builds a market order.
func NewMarketOrder(side Side, amount decimal.Decimal, pair CurrencyPair, fill Fill) Order {
	return newOrder(OrderKindMarket, side, amount, pair, fill)
}

// NewLimitOrder builds a limit order resting at limitPrice.
func NewLimitOrder(side Side, amount decimal.Decimal, pair CurrencyPair, limitPrice decimal.Decimal, fill Fill) Order {
	o := newOrder(OrderKindLimit, side, amount, pair, fill)
	o.LimitPrice = &limitPrice
	return o
}

// NewStopOrder builds a stop order. A nil limitPrice executes as a market
// order once stopPrice is crossed.
func NewStopOrder(side Side, amount decimal.Decimal, pair CurrencyPair, stopPrice decimal.Decimal, limitPrice *decimal.Decimal, fill Fill) Order {
	o := newOrder(OrderKindStop, side, amount, pair, fill)
	o.StopPrice = &stopPrice
	if limitPrice != nil {
		lp := *limitPrice
		o.LimitPrice = &lp
	}
	return o
}

// WithFlags returns a copy of the order carrying the given flags.
func (o Order) WithFlags(flags ...OrderFlag) Order {
	o.Flags = append(append([]OrderFlag(nil), o.Flags...), flags...)
	return o
}

// HasFlag reports whether flag is set on the order.
func (o Order) HasFlag(flag OrderFlag) bool {
	for _, f := range o.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Validate checks that the fields present match the variant.
func (o Order) Validate() error {
	if !o.Side.Valid() {
		return fmt.Errorf("order side %q invalid", o.Side)
	}
	if !o.Pair.Valid() {
		return errors.New("order currency pair required")
	}
	switch o.Kind {
	case OrderKindMarket:
		if o.LimitPrice != nil || o.StopPrice != nil {
			return errors.New("market order cannot carry limit or stop price")
		}
	case OrderKindLimit:
		if o.LimitPrice == nil {
			return errors.New("limit order requires a limit price")
		}
		if o.StopPrice != nil {
			return errors.New("limit order cannot carry a stop price")
		}
	case OrderKindStop:
		if o.StopPrice == nil {
			return errors.New("stop order requires a stop price")
		}
	default:
		return fmt.Errorf("order kind %q invalid", o.Kind)
	}
	return nil
}

// OpenOrders partitions open orders into resting limit orders and the rest.
type OpenOrders struct {
	Open   []Order
	Hidden []Order
}
