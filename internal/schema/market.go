package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticker summarises the current market for a pair.
type Ticker struct {
	Pair      CurrencyPair
	Last      decimal.Decimal
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Volume    decimal.Decimal
	Timestamp *time.Time
}

// OrderBook holds aggregated resting liquidity. Each level is a limit order
// with id "0" whose amount is the level volume.
type OrderBook struct {
	Timestamp *time.Time
	Asks      []Order
	Bids      []Order
}

// Kline is one candlestick bar.
type Kline struct {
	ID        int64
	Open      decimal.Decimal
	Close     decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Amount    decimal.Decimal
	Count     int64
	Volume    decimal.Decimal
	Timestamp time.Time
}

// PairMeta captures trading constraints for a currency pair.
type PairMeta struct {
	TradingFee         decimal.Decimal
	MinAmount          decimal.Decimal
	MaxAmount          decimal.Decimal
	MinMarketFunds     decimal.Decimal
	MaxMarketFunds     decimal.Decimal
	BaseScale          int
	PriceScale         int
	FeeCurrency        string
	MarketOrderAllowed bool
}

// CurrencyMeta captures per-currency withdrawal constraints.
type CurrencyMeta struct {
	Scale         int
	WithdrawalFee decimal.Decimal
}

// ExchangeMeta aggregates static venue metadata.
type ExchangeMeta struct {
	Pairs      map[CurrencyPair]PairMeta
	Currencies map[string]CurrencyMeta
}

// NewExchangeMeta returns metadata with initialised maps.
func NewExchangeMeta() ExchangeMeta {
	return ExchangeMeta{
		Pairs:      make(map[CurrencyPair]PairMeta),
		Currencies: make(map[string]CurrencyMeta),
	}
}
