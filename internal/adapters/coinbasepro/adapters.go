// Package coinbasepro adapts Coinbase Pro REST payloads to the unified model
// and builds outbound order requests.
package coinbasepro

import (
	"context"
	"log"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/numeric"
	"github.com/coachpo/xvenue/internal/schema"
	"github.com/coachpo/xvenue/internal/telemetry"
)

// DefaultTradingFee is the taker fee in percent applied to every product.
var DefaultTradingFee = decimal.RequireFromString("0.25")

func adaptSide(side string) schema.Side {
	if side == "buy" {
		return schema.SideBid
	}
	return schema.SideAsk
}

// AdaptCurrencyPair parses a product id such as "BTC-USD".
func AdaptCurrencyPair(productID string) schema.CurrencyPair {
	base, counter, _ := strings.Cut(productID, "-")
	return schema.NewCurrencyPair(base, counter)
}

// ProductID renders a pair as a product id.
func ProductID(pair schema.CurrencyPair) string {
	return pair.Symbol("-")
}

func dropped(record, reason, detail string) {
	log.Printf("coinbasepro: dropping %s (%s): %s", record, reason, detail)
	telemetry.Venue().RecordDropped(context.Background(), telemetry.VenueCoinbasePro, record, reason)
}

// AdaptOrder converts an order payload. It reports false for order types the
// unified model cannot express and for product ids missing a leg.
func AdaptOrder(o Order) (schema.Order, bool) {
	pair := AdaptCurrencyPair(o.ProductID)
	if !pair.Valid() {
		return schema.Order{}, false
	}
	side := adaptSide(o.Side)
	fill := schema.Fill{
		ID:               o.ID,
		Timestamp:        shared.VenueTimestamp(o.CreatedAt),
		AveragePrice:     numeric.DivSignificant(o.ExecutedValue, o.FilledSize, numeric.AveragePriceDigits),
		CumulativeAmount: o.FilledSize,
		Fee:              o.FillFees,
		Status:           AdaptOrderStatus(o),
	}

	switch o.Type {
	case "market":
		return schema.NewMarketOrder(side, o.Size, pair, fill), true
	case "limit":
		if !o.HasStop() {
			return schema.NewLimitOrder(side, o.Size, pair, o.Price, fill), true
		}
		// stop orders carry no fee and no limit price
		fill.Fee = decimal.Zero
		return schema.NewStopOrder(side, o.Size, pair, o.StopPrice, nil, fill), true
	default:
		return schema.Order{}, false
	}
}

// AdaptOpenOrders splits orders into limit orders and everything else.
// Unrecognised orders are dropped.
func AdaptOpenOrders(orders []Order) schema.OpenOrders {
	var out schema.OpenOrders
	for _, raw := range orders {
		o, ok := AdaptOrder(raw)
		if !ok {
			dropped("order", "unrecognized", raw.ID+" type="+raw.Type+" product="+raw.ProductID)
			continue
		}
		if o.Kind == schema.OrderKindLimit {
			out.Open = append(out.Open, o)
			continue
		}
		out.Hidden = append(out.Hidden, o)
	}
	return out
}

// AdaptTrades converts public trades. The venue reports the maker's side,
// so the side is inverted to describe the taker. LastID is the id of the
// first record, which the venue sends newest first.
func AdaptTrades(trades []Trade, pair schema.CurrencyPair) schema.Trades {
	out := schema.Trades{
		Trades:   make([]schema.Trade, 0, len(trades)),
		SortType: schema.SortByID,
	}
	for _, t := range trades {
		side := schema.SideAsk
		if t.Side == "sell" {
			side = schema.SideBid
		}
		out.Trades = append(out.Trades, schema.Trade{
			Side:         side,
			Amount:       t.Size,
			Pair:         pair,
			Price:        t.Price,
			Timestamp:    shared.VenueTimestamp(t.Time),
			ID:           tradeIDString(t.TradeID),
			MakerOrderID: t.MakerOrderID,
			TakerOrderID: t.TakerOrderID,
		})
	}
	if len(trades) > 0 {
		out.LastID = trades[0].TradeID
	}
	return out
}

// AdaptFills converts the account's fills. Unlike public trades the side is
// the account's own side and is not inverted. Fills on a product id missing a
// leg are dropped.
func AdaptFills(fills []Fill) schema.UserTrades {
	out := schema.UserTrades{
		Trades:   make([]schema.UserTrade, 0, len(fills)),
		SortType: schema.SortByID,
	}
	for _, f := range fills {
		pair := AdaptCurrencyPair(f.ProductID)
		if !pair.Valid() {
			dropped("fill", "unknown_product", f.ProductID)
			continue
		}
		out.Trades = append(out.Trades, schema.UserTrade{
			Side:        adaptSide(f.Side),
			Amount:      f.Size,
			Pair:        pair,
			Price:       f.Price,
			Timestamp:   shared.VenueTimestamp(f.CreatedAt),
			ID:          tradeIDString(f.TradeID),
			OrderID:     f.OrderID,
			Fee:         f.Fee,
			FeeCurrency: pair.Counter,
		})
	}
	return out
}

// AdaptWallet builds a wallet keyed by the first account's profile id.
// An empty input yields an empty wallet.
func AdaptWallet(accounts []Account) schema.Wallet {
	if len(accounts) == 0 {
		return schema.NewWallet("", nil)
	}
	balances := make([]schema.Balance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, schema.Balance{
			Currency:  strings.ToUpper(strings.TrimSpace(a.Currency)),
			Total:     a.Balance,
			Available: a.Available,
			Frozen:    a.Hold,
		})
	}
	return schema.NewWallet(accounts[0].ProfileID, balances)
}

// AdaptTicker merges the ticker and 24h stats payloads.
func AdaptTicker(ticker ProductTicker, stats ProductStats, pair schema.CurrencyPair) schema.Ticker {
	return schema.Ticker{
		Pair:      pair,
		Last:      ticker.Price,
		Open:      stats.Open,
		High:      stats.High,
		Low:       stats.Low,
		Bid:       ticker.Bid,
		Ask:       ticker.Ask,
		Volume:    ticker.Volume,
		Timestamp: shared.VenueTimestamp(ticker.Time),
	}
}

// AdaptOrderBook converts book levels to limit orders with id "0". ts may be nil.
func AdaptOrderBook(book ProductBook, pair schema.CurrencyPair, ts *time.Time) schema.OrderBook {
	return schema.OrderBook{
		Timestamp: ts,
		Asks:      bookLevels(book.Asks, schema.SideAsk, pair),
		Bids:      bookLevels(book.Bids, schema.SideBid, pair),
	}
}

func bookLevels(levels []BookEntry, side schema.Side, pair schema.CurrencyPair) []schema.Order {
	out := make([]schema.Order, 0, len(levels))
	for _, level := range levels {
		out = append(out, schema.NewLimitOrder(side, level.Volume, pair, level.Price, schema.Fill{ID: "0"}))
	}
	return out
}

// transferTimestampLayout matches the transfers endpoint, which reports
// "2019-06-18 01:37:48.78953+00" rather than ISO 8601.
const transferTimestampLayout = "2006-01-02 15:04:05.999999999-07"

// transferTimestamp parses a transfer timestamp to UTC with millisecond
// precision, falling back to the ISO form used elsewhere.
func transferTimestamp(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(transferTimestampLayout, raw); err == nil {
		ts = ts.UTC().Truncate(time.Millisecond)
		return &ts
	}
	return shared.VenueTimestamp(raw)
}

// AdaptFundingRecord converts a transfer of currency. The status follows
// which of canceled_at and processed_at is present, whatever their format.
func AdaptFundingRecord(currency string, t Transfer) schema.FundingRecord {
	status := schema.FundingProcessing
	switch {
	case strings.TrimSpace(t.CanceledAt) != "":
		status = schema.FundingCancelled
	case strings.TrimSpace(t.ProcessedAt) != "":
		status = schema.FundingComplete
	}
	address := t.Details.CryptoAddress
	if address == "" {
		address = t.Details.SentToAddress
	}
	return schema.FundingRecord{
		Address:          address,
		DestinationTag:   t.Details.DestinationTag,
		Timestamp:        transferTimestamp(t.CreatedAt),
		Currency:         strings.ToUpper(strings.TrimSpace(currency)),
		Amount:           t.Amount,
		ID:               t.ID,
		BlockchainTxHash: t.Details.CryptoTransactionHash,
		Type:             adaptFundingType(t.Type),
		Status:           status,
	}
}

func adaptFundingType(kind string) schema.FundingType {
	if strings.EqualFold(kind, "deposit") {
		return schema.FundingDeposit
	}
	return schema.FundingWithdrawal
}

// AdaptFundingRecords converts every transfer of currency.
func AdaptFundingRecords(currency string, transfers []Transfer) []schema.FundingRecord {
	out := make([]schema.FundingRecord, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, AdaptFundingRecord(currency, t))
	}
	return out
}

// AdaptExchangeMeta returns meta with online products and currencies merged
// in. meta is not modified. tradingFee applies to every pair.
func AdaptExchangeMeta(meta schema.ExchangeMeta, products []Product, currencies []Currency, tradingFee decimal.Decimal) schema.ExchangeMeta {
	pairs := make(map[schema.CurrencyPair]schema.PairMeta, len(meta.Pairs)+len(products))
	maps.Copy(pairs, meta.Pairs)
	codes := make(map[string]schema.CurrencyMeta, len(meta.Currencies)+len(currencies))
	maps.Copy(codes, meta.Currencies)
	meta.Pairs = pairs
	meta.Currencies = codes

	for _, p := range products {
		if p.Status != "online" {
			continue
		}
		pair := schema.NewCurrencyPair(p.BaseCurrency, p.QuoteCurrency)
		if !pair.Valid() {
			dropped("product", "unknown_product", p.ID)
			continue
		}
		meta.Pairs[pair] = schema.PairMeta{
			TradingFee:         tradingFee,
			MinAmount:          p.BaseMinSize,
			MaxAmount:          p.BaseMaxSize,
			MinMarketFunds:     p.MinMarketFunds,
			MaxMarketFunds:     p.MaxMarketFunds,
			BaseScale:          numeric.ScaleFromIncrement(p.BaseIncrement),
			PriceScale:         numeric.ScaleFromIncrement(p.QuoteIncrement),
			FeeCurrency:        pair.Counter,
			MarketOrderAllowed: !p.LimitOnly,
		}
	}
	for _, c := range currencies {
		if c.Status != "online" {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(c.ID))
		meta.Currencies[code] = schema.CurrencyMeta{
			Scale:         numeric.ScaleFromIncrement(c.MaxPrecision),
			WithdrawalFee: decimal.Zero,
		}
	}
	return meta
}
