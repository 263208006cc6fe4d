package huobi

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/errs"
)

// Result is the envelope every Huobi REST response is wrapped in.
type Result[T any] struct {
	Status  string `json:"status"`
	ErrCode string `json:"err-code,omitempty"`
	ErrMsg  string `json:"err-msg,omitempty"`
	Data    T      `json:"data"`
}

// OK reports whether the venue accepted the request.
func (r Result[T]) OK() bool {
	return r.Status == "ok"
}

// Unwrap returns the payload, or the venue's rejection as an *errs.E.
func (r Result[T]) Unwrap() (T, error) {
	if r.OK() {
		return r.Data, nil
	}
	var zero T
	return zero, resultError(r.Status, r.ErrCode, r.ErrMsg)
}

func resultError(status, code, msg string) error {
	opts := []errs.Option{
		errs.WithRawCode(code),
		errs.WithRawMessage(msg),
		errs.WithField("status", status),
	}
	errCode := errs.CodeExchange
	lower := strings.ToLower(code)
	switch {
	case strings.Contains(lower, "insufficient"):
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalInsufficientBalance))
	case lower == "base-record-invalid", strings.Contains(lower, "order-orderstate"), strings.Contains(lower, "order-not-found"):
		errCode = errs.CodeNotFound
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalOrderNotFound))
	case lower == "base-symbol-error", lower == "invalid-symbol":
		errCode = errs.CodeInvalid
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalInvalidSymbol))
	case strings.Contains(lower, "rate-limit"), lower == "api-signature-not-valid-too-many-requests":
		errCode = errs.CodeRateLimited
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalRateLimited))
	case strings.HasPrefix(lower, "api-signature"), strings.HasPrefix(lower, "login-required"):
		errCode = errs.CodeAuth
	}
	return errs.New(venueName, errCode, opts...)
}

// Account is an entry of /v1/account/accounts.
type Account struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	State   string `json:"state"`
}

// IsMargin reports whether the account trades on margin.
func (a Account) IsMargin() bool {
	return a.Type == "margin" || a.Type == "super-margin"
}

// BalanceRecord is one line item of an account balance. Type is "trade"
// for the available amount and "frozen" for the held amount; margin
// accounts add "loan" and "interest".
type BalanceRecord struct {
	Currency string          `json:"currency"`
	Type     string          `json:"type"`
	Balance  decimal.Decimal `json:"balance"`
}

// Balance is the payload of /v1/account/accounts/{id}/balance.
type Balance struct {
	ID     int64           `json:"id"`
	Type   string          `json:"type"`
	State  string          `json:"state"`
	Symbol string          `json:"symbol,omitempty"`
	List   []BalanceRecord `json:"list"`
}

// Order is an order as returned by /v1/order/orders.
type Order struct {
	ID              int64           `json:"id"`
	Symbol          string          `json:"symbol"`
	AccountID       int64           `json:"account-id"`
	Amount          decimal.Decimal `json:"amount"`
	Price           decimal.Decimal `json:"price"`
	CreatedAt       int64           `json:"created-at"`
	Type            string          `json:"type"`
	FilledAmount    decimal.Decimal `json:"field-amount"`
	FilledCashValue decimal.Decimal `json:"field-cash-amount"`
	FilledFees      decimal.Decimal `json:"field-fees"`
	FinishedAt      int64           `json:"finished-at"`
	CanceledAt      int64           `json:"canceled-at"`
	Source          string          `json:"source"`
	State           string          `json:"state"`
	StopPrice       decimal.Decimal `json:"stop-price"`
	Operator        string          `json:"operator,omitempty"`
}

// CreateOrderRequest is the body of /v1/order/orders/place.
type CreateOrderRequest struct {
	AccountID string `json:"account-id"`
	Amount    string `json:"amount"`
	Price     string `json:"price,omitempty"`
	Symbol    string `json:"symbol"`
	Type      string `json:"type"`
	Source    string `json:"source,omitempty"`
}

// BorrowRequest is the body of /v1/margin/orders.
type BorrowRequest struct {
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
}

// WithdrawRequest is the body of /v1/dw/withdraw/api/create.
type WithdrawRequest struct {
	Address  string          `json:"address"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Fee      decimal.Decimal `json:"fee"`
	AddrTag  string          `json:"addr-tag,omitempty"`
}

// Kline is one candlestick of /market/history/kline. Timestamp is not part
// of the payload and is filled in by KlineResult.Klines.
type Kline struct {
	ID     int64           `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count"`
	Open   decimal.Decimal `json:"open"`
	Close  decimal.Decimal `json:"close"`
	Low    decimal.Decimal `json:"low"`
	High   decimal.Decimal `json:"high"`
	Vol    decimal.Decimal `json:"vol"`
}

// KlineResult is the kline envelope, which adds the channel and server time.
type KlineResult struct {
	Result[[]Kline]
	Ch string `json:"ch"`
	Ts int64  `json:"ts"`
}

// FundingRecord is an entry of /v1/query/deposit-withdraw.
type FundingRecord struct {
	ID         int64           `json:"id"`
	Type       string          `json:"type"`
	Currency   string          `json:"currency"`
	TxHash     string          `json:"tx-hash"`
	Amount     decimal.Decimal `json:"amount"`
	Address    string          `json:"address"`
	AddressTag string          `json:"address-tag"`
	Fee        decimal.Decimal `json:"fee"`
	State      string          `json:"state"`
	CreatedAt  int64           `json:"created-at"`
	UpdatedAt  int64           `json:"updated-at"`
}

// DepositAddress is an entry of /v2/account/deposit/address.
type DepositAddress struct {
	Currency   string `json:"currency"`
	Address    string `json:"address"`
	AddressTag string `json:"addressTag"`
	Chain      string `json:"chain"`
}

// v2Result is the envelope of the /v2 endpoints, which report a numeric code.
type v2Result[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

func (r v2Result[T]) unwrap() (T, error) {
	if r.Code == 200 {
		return r.Data, nil
	}
	var zero T
	return zero, errs.New(venueName, errs.CodeExchange,
		errs.WithRawCode(strconv.Itoa(r.Code)),
		errs.WithRawMessage(r.Message))
}
