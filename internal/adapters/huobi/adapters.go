package huobi

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/internal/numeric"
	"github.com/coachpo/xvenue/internal/schema"
	"github.com/coachpo/xvenue/internal/telemetry"
)

// Symbol renders a pair the way Huobi expects it: "btcusdt".
func Symbol(pair schema.CurrencyPair) string {
	return strings.ToLower(pair.Symbol(""))
}

// Asset renders a currency code the way Huobi expects it: "btc".
func Asset(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

func millis(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	ts := time.UnixMilli(ms).UTC()
	return &ts
}

func dropped(record, reason, detail string) {
	log.Printf("huobi: dropping %s (%s): %s", record, reason, detail)
	telemetry.Venue().RecordDropped(context.Background(), telemetry.VenueHuobi, record, reason)
}

// orderShape splits an order type such as "buy-limit-maker" into its parts.
type orderShape struct {
	side  schema.Side
	kind  schema.OrderKind
	flags []schema.OrderFlag
}

func parseOrderType(kind string) (orderShape, bool) {
	sidePart, rest, ok := strings.Cut(kind, "-")
	if !ok {
		return orderShape{}, false
	}
	var shape orderShape
	switch sidePart {
	case "buy":
		shape.side = schema.SideBid
	case "sell":
		shape.side = schema.SideAsk
	default:
		return orderShape{}, false
	}
	switch rest {
	case "market":
		shape.kind = schema.OrderKindMarket
	case "limit":
		shape.kind = schema.OrderKindLimit
	case "limit-maker":
		shape.kind = schema.OrderKindLimit
		shape.flags = []schema.OrderFlag{schema.FlagPostOnly}
	case "ioc":
		shape.kind = schema.OrderKindLimit
		shape.flags = []schema.OrderFlag{schema.FlagImmediateOrCancel}
	case "limit-fok":
		shape.kind = schema.OrderKindLimit
		shape.flags = []schema.OrderFlag{schema.FlagFillOrKill}
	case "stop-limit":
		shape.kind = schema.OrderKindStop
	default:
		return orderShape{}, false
	}
	return shape, true
}

// AdaptOrder converts an order for pair. It reports false for order types
// the unified model cannot express and for a pair missing a leg.
func AdaptOrder(o Order, pair schema.CurrencyPair) (schema.Order, bool) {
	shape, ok := parseOrderType(o.Type)
	if !ok || !pair.Valid() {
		return schema.Order{}, false
	}
	fill := schema.Fill{
		ID:               strconv.FormatInt(o.ID, 10),
		Timestamp:        millis(o.CreatedAt),
		AveragePrice:     numeric.DivSignificant(o.FilledCashValue, o.FilledAmount, numeric.AveragePriceDigits),
		CumulativeAmount: o.FilledAmount,
		Fee:              o.FilledFees,
		Status:           AdaptOrderStatus(o),
	}
	var order schema.Order
	switch shape.kind {
	case schema.OrderKindMarket:
		order = schema.NewMarketOrder(shape.side, o.Amount, pair, fill)
	case schema.OrderKindLimit:
		order = schema.NewLimitOrder(shape.side, o.Amount, pair, o.Price, fill)
	default:
		limit := o.Price
		order = schema.NewStopOrder(shape.side, o.Amount, pair, o.StopPrice, &limit, fill)
	}
	if len(shape.flags) > 0 {
		order = order.WithFlags(shape.flags...)
	}
	return order, true
}

// AdaptOrders converts orders, resolving each symbol through pairs. Orders
// with an unknown type or symbol are dropped.
func AdaptOrders(orders []Order, pairs func(symbol string) (schema.CurrencyPair, bool)) []schema.Order {
	out := make([]schema.Order, 0, len(orders))
	for _, raw := range orders {
		pair, ok := pairs(raw.Symbol)
		if !ok {
			dropped("order", "unknown_symbol", raw.Symbol)
			continue
		}
		order, ok := AdaptOrder(raw, pair)
		if !ok {
			dropped("order", "unknown_type", strconv.FormatInt(raw.ID, 10)+" type="+raw.Type)
			continue
		}
		out = append(out, order)
	}
	return out
}

// AdaptOpenOrders splits orders into limit orders and everything else.
func AdaptOpenOrders(orders []schema.Order) schema.OpenOrders {
	var out schema.OpenOrders
	for _, o := range orders {
		if o.Kind == schema.OrderKindLimit {
			out.Open = append(out.Open, o)
			continue
		}
		out.Hidden = append(out.Hidden, o)
	}
	return out
}

// AdaptWallet merges the "trade" and "frozen" line items of each currency.
// Other line item types are ignored.
func AdaptWallet(balance Balance) schema.Wallet {
	type amounts struct{ available, frozen decimal.Decimal }
	byCurrency := make(map[string]*amounts)
	var order []string
	for _, rec := range balance.List {
		if rec.Type != "trade" && rec.Type != "frozen" {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(rec.Currency))
		a, ok := byCurrency[code]
		if !ok {
			a = &amounts{}
			byCurrency[code] = a
			order = append(order, code)
		}
		if rec.Type == "trade" {
			a.available = a.available.Add(rec.Balance)
		} else {
			a.frozen = a.frozen.Add(rec.Balance)
		}
	}
	balances := make([]schema.Balance, 0, len(order))
	for _, code := range order {
		a := byCurrency[code]
		balances = append(balances, schema.Balance{
			Currency:  code,
			Total:     a.available.Add(a.frozen),
			Available: a.available,
			Frozen:    a.frozen,
		})
	}
	return schema.NewWallet(strconv.FormatInt(balance.ID, 10), balances)
}

func fundingStatus(state string) schema.FundingStatus {
	switch state {
	case "safe", "confirmed":
		return schema.FundingComplete
	case "canceled", "repealed":
		return schema.FundingCancelled
	case "orphan", "reject", "wallet-reject", "confirm-error", "failed":
		return schema.FundingFailed
	default:
		return schema.FundingProcessing
	}
}

// AdaptFundingRecord converts a deposit or withdrawal record.
func AdaptFundingRecord(r FundingRecord) schema.FundingRecord {
	kind := schema.FundingWithdrawal
	if r.Type == "deposit" {
		kind = schema.FundingDeposit
	}
	return schema.FundingRecord{
		Address:          r.Address,
		DestinationTag:   r.AddressTag,
		Timestamp:        millis(r.CreatedAt),
		Currency:         strings.ToUpper(strings.TrimSpace(r.Currency)),
		Amount:           r.Amount,
		ID:               strconv.FormatInt(r.ID, 10),
		BlockchainTxHash: r.TxHash,
		Type:             kind,
		Status:           fundingStatus(r.State),
		Fee:              r.Fee,
		Description:      r.State,
	}
}

// AdaptFundingRecords converts every record.
func AdaptFundingRecords(records []FundingRecord) []schema.FundingRecord {
	out := make([]schema.FundingRecord, 0, len(records))
	for _, r := range records {
		out = append(out, AdaptFundingRecord(r))
	}
	return out
}

// KlinePeriod returns the period suffix of a kline channel such as
// "market.btcusdt.kline.1min".
func KlinePeriod(ch string) string {
	if i := strings.LastIndexByte(ch, '.'); i >= 0 {
		return ch[i+1:]
	}
	return ch
}

// stepBack moves ts one period earlier. Unknown periods leave it unchanged.
func stepBack(ts time.Time, period string) time.Time {
	switch period {
	case "1min":
		return ts.Add(-time.Minute)
	case "15min":
		return ts.Add(-15 * time.Minute)
	case "30min":
		return ts.Add(-30 * time.Minute)
	case "60min":
		return ts.Add(-time.Hour)
	case "1day":
		return ts.AddDate(0, 0, -1)
	case "1week":
		return ts.AddDate(0, 0, -7)
	case "1month":
		return ts.AddDate(0, -1, 0)
	case "1year":
		return ts.AddDate(-1, 0, 0)
	default:
		return ts
	}
}

// Klines converts the bars and assigns their timestamps. The payload has no
// per-bar time, so walking from the last bar backwards each bar is stamped
// one period before the previous stamp, starting from the server time.
func (r KlineResult) Klines() []schema.Kline {
	out := make([]schema.Kline, len(r.Data))
	period := KlinePeriod(r.Ch)
	ts := time.UnixMilli(r.Ts).UTC()
	for i := len(r.Data) - 1; i >= 0; i-- {
		ts = stepBack(ts, period)
		k := r.Data[i]
		out[i] = schema.Kline{
			ID:        k.ID,
			Open:      k.Open,
			Close:     k.Close,
			High:      k.High,
			Low:       k.Low,
			Amount:    k.Amount,
			Count:     k.Count,
			Volume:    k.Vol,
			Timestamp: ts,
		}
	}
	return out
}
