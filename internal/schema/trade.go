package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSortType names the key a trade collection is ordered by.
type TradeSortType string

const (
	// SortByID orders trades by venue trade id.
	SortByID TradeSortType = "id"
	// SortByTimestamp orders trades by execution time.
	SortByTimestamp TradeSortType = "timestamp"
)

// Trade is a public market trade.
type Trade struct {
	Side         Side
	Amount       decimal.Decimal
	Pair         CurrencyPair
	Price        decimal.Decimal
	Timestamp    *time.Time
	ID           string
	MakerOrderID string
	TakerOrderID string
}

// Trades is a batch of public trades. LastID carries the venue's numeric id
// of the most recent trade and is not re-derived from the slice order.
type Trades struct {
	Trades   []Trade
	LastID   int64
	SortType TradeSortType
}

// UserTrade is a fill of one of the account's own orders.
type UserTrade struct {
	Side        Side
	Amount      decimal.Decimal
	Pair        CurrencyPair
	Price       decimal.Decimal
	Timestamp   *time.Time
	ID          string
	OrderID     string
	Fee         decimal.Decimal
	FeeCurrency string
}

// UserTrades is a batch of account fills.
type UserTrades struct {
	Trades   []UserTrade
	SortType TradeSortType
}
