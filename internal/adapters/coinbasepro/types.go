package coinbasepro

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Order is an order as returned by /orders.
type Order struct {
	ID            string          `json:"id"`
	Price         decimal.Decimal `json:"price"`
	Size          decimal.Decimal `json:"size"`
	ProductID     string          `json:"product_id"`
	Side          string          `json:"side"`
	Stp           string          `json:"stp,omitempty"`
	Type          string          `json:"type"`
	TimeInForce   string          `json:"time_in_force,omitempty"`
	PostOnly      bool            `json:"post_only"`
	CreatedAt     string          `json:"created_at"`
	FillFees      decimal.Decimal `json:"fill_fees"`
	FilledSize    decimal.Decimal `json:"filled_size"`
	ExecutedValue decimal.Decimal `json:"executed_value"`
	Status        string          `json:"status"`
	Settled       bool            `json:"settled"`
	Stop          string          `json:"stop,omitempty"`
	StopPrice     decimal.Decimal `json:"stop_price"`
	DoneReason    string          `json:"done_reason,omitempty"`
	DoneAt        string          `json:"done_at,omitempty"`
}

// HasStop reports whether the order carries a stop instruction.
func (o Order) HasStop() bool {
	return strings.TrimSpace(o.Stop) != ""
}

// Trade is a public trade from /products/{id}/trades.
type Trade struct {
	Time         string          `json:"time"`
	TradeID      int64           `json:"trade_id"`
	Price        decimal.Decimal `json:"price"`
	Size         decimal.Decimal `json:"size"`
	Side         string          `json:"side"`
	MakerOrderID string          `json:"maker_order_id,omitempty"`
	TakerOrderID string          `json:"taker_order_id,omitempty"`
}

// Fill is one of the account's executions from /fills.
type Fill struct {
	TradeID   int64           `json:"trade_id"`
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	OrderID   string          `json:"order_id"`
	CreatedAt string          `json:"created_at"`
	Liquidity string          `json:"liquidity"`
	Fee       decimal.Decimal `json:"fee"`
	Settled   bool            `json:"settled"`
	Side      string          `json:"side"`
}

// Account is a per-currency account from /accounts.
type Account struct {
	ID        string          `json:"id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	Available decimal.Decimal `json:"available"`
	Hold      decimal.Decimal `json:"hold"`
	ProfileID string          `json:"profile_id"`
}

// ProductTicker is the payload of /products/{id}/ticker.
type ProductTicker struct {
	TradeID int64           `json:"trade_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
	Bid     decimal.Decimal `json:"bid"`
	Ask     decimal.Decimal `json:"ask"`
	Volume  decimal.Decimal `json:"volume"`
	Time    string          `json:"time"`
}

// ProductStats is the payload of /products/{id}/stats.
type ProductStats struct {
	Open        decimal.Decimal `json:"open"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Volume      decimal.Decimal `json:"volume"`
	Last        decimal.Decimal `json:"last"`
	Volume30Day decimal.Decimal `json:"volume_30day"`
}

// BookEntry is one level of an order book. The venue encodes it as a
// positional array: [price, size, num_orders] at level 2 or
// [price, size, order_id] at level 3.
type BookEntry struct {
	Price     decimal.Decimal
	Volume    decimal.Decimal
	NumOrders int64
	OrderID   string
}

// UnmarshalJSON decodes the positional array form.
func (e *BookEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("book entry: %w", err)
	}
	if len(parts) < 2 {
		return fmt.Errorf("book entry: expected at least 2 fields, got %d", len(parts))
	}
	if err := json.Unmarshal(parts[0], &e.Price); err != nil {
		return fmt.Errorf("book entry price: %w", err)
	}
	if err := json.Unmarshal(parts[1], &e.Volume); err != nil {
		return fmt.Errorf("book entry size: %w", err)
	}
	if len(parts) > 2 {
		var count int64
		if err := json.Unmarshal(parts[2], &count); err == nil {
			e.NumOrders = count
			return nil
		}
		var id string
		if err := json.Unmarshal(parts[2], &id); err != nil {
			return fmt.Errorf("book entry third field: %w", err)
		}
		e.OrderID = id
	}
	return nil
}

// MarshalJSON renders the level 2 positional form.
func (e BookEntry) MarshalJSON() ([]byte, error) {
	third := any(e.NumOrders)
	if e.OrderID != "" {
		third = e.OrderID
	}
	return json.Marshal([]any{e.Price.String(), e.Volume.String(), third})
}

// ProductBook is the payload of /products/{id}/book.
type ProductBook struct {
	Sequence int64       `json:"sequence"`
	Bids     []BookEntry `json:"bids"`
	Asks     []BookEntry `json:"asks"`
}

// Product describes a tradable product from /products.
type Product struct {
	ID             string          `json:"id"`
	BaseCurrency   string          `json:"base_currency"`
	QuoteCurrency  string          `json:"quote_currency"`
	BaseMinSize    decimal.Decimal `json:"base_min_size"`
	BaseMaxSize    decimal.Decimal `json:"base_max_size"`
	BaseIncrement  decimal.Decimal `json:"base_increment"`
	QuoteIncrement decimal.Decimal `json:"quote_increment"`
	MinMarketFunds decimal.Decimal `json:"min_market_funds"`
	MaxMarketFunds decimal.Decimal `json:"max_market_funds"`
	DisplayName    string          `json:"display_name"`
	Status         string          `json:"status"`
	LimitOnly      bool            `json:"limit_only"`
}

// Currency describes a currency from /currencies.
type Currency struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	MinSize      decimal.Decimal `json:"min_size"`
	Status       string          `json:"status"`
	MaxPrecision decimal.Decimal `json:"max_precision"`
}

// TransferDetails carries the crypto-specific fields of a transfer.
type TransferDetails struct {
	CryptoAddress         string `json:"crypto_address,omitempty"`
	DestinationTag        string `json:"destination_tag,omitempty"`
	SentToAddress         string `json:"sent_to_address,omitempty"`
	CryptoTransactionHash string `json:"crypto_transaction_hash,omitempty"`
	CoinbaseAccountID     string `json:"coinbase_account_id,omitempty"`
}

// Transfer is a deposit or withdrawal from /accounts/{id}/transfers.
type Transfer struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	CreatedAt   string          `json:"created_at"`
	CompletedAt string          `json:"completed_at,omitempty"`
	CanceledAt  string          `json:"canceled_at,omitempty"`
	ProcessedAt string          `json:"processed_at,omitempty"`
	AccountID   string          `json:"account_id"`
	UserNonce   string          `json:"user_nonce,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Details     TransferDetails `json:"details"`
}

// PlaceOrderRequest is the body of POST /orders. Size is always present;
// Price only on limit-shaped orders and StopPrice only on stop orders.
type PlaceOrderRequest struct {
	ClientOID   string           `json:"client_oid,omitempty"`
	Type        string           `json:"type"`
	Side        string           `json:"side"`
	ProductID   string           `json:"product_id"`
	Size        decimal.Decimal  `json:"size"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	TimeInForce string           `json:"time_in_force,omitempty"`
	PostOnly    bool             `json:"post_only,omitempty"`
	Stop        string           `json:"stop,omitempty"`
	StopPrice   *decimal.Decimal `json:"stop_price,omitempty"`
}

// APIError is the error body returned with non-2xx responses.
type APIError struct {
	Message string `json:"message"`
}

// tradeIDString renders a numeric trade id.
func tradeIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
