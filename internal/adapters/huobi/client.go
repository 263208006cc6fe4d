// Package huobi adapts Huobi spot and margin REST payloads to the unified
// model, resolves margin accounts and builds order requests.
package huobi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/precision"
	"github.com/coachpo/xvenue/internal/schema"
	"github.com/coachpo/xvenue/internal/telemetry"
)

const venueName = telemetry.VenueHuobi

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.huobi.pro"

const (
	openOrderStates    = "pre-submitted,submitted,partial-filled"
	historyOrderStates = "partial-filled,partial-canceled,filled"
	fundingPageSize    = "100"
)

// quoteAssets are tried in order when splitting a symbol such as "btcusdt".
var quoteAssets = []string{"usdt", "husd", "usdc", "btc", "eth", "ht", "trx"}

// ParseSymbol splits a Huobi symbol into a pair using the known quote assets.
func ParseSymbol(symbol string) (schema.CurrencyPair, bool) {
	lower := strings.ToLower(strings.TrimSpace(symbol))
	for _, quote := range quoteAssets {
		base, ok := strings.CutSuffix(lower, quote)
		if !ok || base == "" {
			continue
		}
		pair := schema.NewCurrencyPair(base, quote)
		if pair.Base == "" || pair.Counter == "" {
			continue
		}
		return pair, true
	}
	return schema.CurrencyPair{}, false
}

// Credentials authenticate private endpoints.
type Credentials struct {
	APIKey string
	Secret string
}

// Configured reports whether both credential parts are present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.Secret != ""
}

// Options configures a Client.
type Options struct {
	REST        shared.RESTConfig
	Credentials Credentials
	// Precision overrides DefaultPrecision when set.
	Precision  *precision.Table
	HTTPClient *http.Client
	Clock      shared.Clock
}

// Client wraps the Huobi REST API and returns unified values.
type Client struct {
	rest      *shared.RESTClient
	accounts  *AccountService
	precision *precision.Table
	private   bool
}

// NewClient builds a client.
func NewClient(opts Options) (*Client, error) {
	cfg := opts.REST
	cfg.Venue = venueName
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	restOpts := []shared.RESTOption{
		shared.WithHTTPClient(opts.HTTPClient),
		shared.WithErrorDecoder(decodeError),
	}
	if opts.Credentials.Configured() {
		signer, err := NewSigner(opts.Credentials, opts.Clock)
		if err != nil {
			return nil, err
		}
		restOpts = append(restOpts, shared.WithSigner(signer))
	}
	table := opts.Precision
	if table == nil {
		table = DefaultPrecision()
	}
	c := &Client{
		rest:      shared.NewRESTClient(cfg, restOpts...),
		precision: table,
		private:   opts.Credentials.Configured(),
	}
	c.accounts = NewAccountService(c)
	return c, nil
}

// AccountService exposes the client's cached account resolver.
func (c *Client) AccountService() *AccountService {
	return c.accounts
}

// Precision returns the table used to round order amounts and prices.
func (c *Client) Precision() *precision.Table {
	return c.precision
}

func (c *Client) requirePrivate() error {
	if c.private {
		return nil
	}
	return errs.New(venueName, errs.CodeAuth, errs.WithMessage("credentials required"))
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var res Result[T]
	if err := c.rest.Get(ctx, path, query, &res); err != nil {
		var zero T
		return zero, err
	}
	return res.Unwrap()
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var res Result[T]
	if err := c.rest.Post(ctx, path, body, &res); err != nil {
		var zero T
		return zero, err
	}
	return res.Unwrap()
}

// Accounts lists the user's accounts. It implements AccountAPI.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	if err := c.requirePrivate(); err != nil {
		return nil, err
	}
	return get[[]Account](ctx, c, "/v1/account/accounts", nil)
}

// Balance fetches the line items of one account. It implements AccountAPI.
func (c *Client) Balance(ctx context.Context, id int64) (Balance, error) {
	if err := c.requirePrivate(); err != nil {
		return Balance{}, err
	}
	return get[Balance](ctx, c, "/v1/account/accounts/"+strconv.FormatInt(id, 10)+"/balance", nil)
}

// Wallet fetches the spot account balances.
func (c *Client) Wallet(ctx context.Context) (schema.Wallet, error) {
	account, err := c.accounts.SpotAccount(ctx)
	if err != nil {
		return schema.Wallet{}, err
	}
	balance, err := c.Balance(ctx, account.ID)
	if err != nil {
		return schema.Wallet{}, err
	}
	return AdaptWallet(balance), nil
}

// MarginAccount resolves the margin account trading pair.
func (c *Client) MarginAccount(ctx context.Context, pair schema.CurrencyPair) (Account, error) {
	return c.accounts.MarginAccount(ctx, pair)
}

// PrepareOrder resolves the target account and builds the place request.
// Margin orders go to the margin account holding both legs of the pair.
func (c *Client) PrepareOrder(ctx context.Context, order schema.Order, margin bool) (CreateOrderRequest, error) {
	var (
		account Account
		err     error
	)
	if margin {
		account, err = c.accounts.MarginAccount(ctx, order.Pair)
	} else {
		account, err = c.accounts.SpotAccount(ctx)
	}
	if err != nil {
		return CreateOrderRequest{}, err
	}
	return BuildCreateOrder(order, accountID(account), c.precision, margin)
}

// PlaceOrder submits order and returns the venue order id.
func (c *Client) PlaceOrder(ctx context.Context, order schema.Order, margin bool) (string, error) {
	req, err := c.PrepareOrder(ctx, order, margin)
	if err != nil {
		return "", err
	}
	return post[string](ctx, c, "/v1/order/orders/place", req)
}

// CancelOrder requests cancellation and returns the venue order id.
func (c *Client) CancelOrder(ctx context.Context, id string) (string, error) {
	if err := c.requirePrivate(); err != nil {
		return "", err
	}
	return post[string](ctx, c, "/v1/order/orders/"+url.PathEscape(id)+"/submitcancel", nil)
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id string) (schema.Order, error) {
	if err := c.requirePrivate(); err != nil {
		return schema.Order{}, err
	}
	raw, err := get[Order](ctx, c, "/v1/order/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return schema.Order{}, err
	}
	orders := AdaptOrders([]Order{raw}, ParseSymbol)
	if len(orders) == 0 {
		return schema.Order{}, errs.New(venueName, errs.CodeExchange,
			errs.WithMessage("unsupported order"),
			errs.WithCanonicalCode(errs.CanonicalUnsupportedOrder),
			errs.WithField("type", raw.Type),
			errs.WithField("symbol", raw.Symbol))
	}
	return orders[0], nil
}

func (c *Client) orders(ctx context.Context, pair schema.CurrencyPair, states string) ([]schema.Order, error) {
	if err := c.requirePrivate(); err != nil {
		return nil, err
	}
	query := url.Values{"states": {states}}
	if !pair.IsZero() {
		query.Set("symbol", Symbol(pair))
	}
	raw, err := get[[]Order](ctx, c, "/v1/order/orders", query)
	if err != nil {
		return nil, err
	}
	return AdaptOrders(raw, ParseSymbol), nil
}

// OpenOrders fetches working orders, optionally restricted to pair.
func (c *Client) OpenOrders(ctx context.Context, pair schema.CurrencyPair) (schema.OpenOrders, error) {
	orders, err := c.orders(ctx, pair, openOrderStates)
	if err != nil {
		return schema.OpenOrders{}, err
	}
	return AdaptOpenOrders(orders), nil
}

// OrderHistory fetches orders that have at least partially executed.
func (c *Client) OrderHistory(ctx context.Context, pair schema.CurrencyPair) ([]schema.Order, error) {
	return c.orders(ctx, pair, historyOrderStates)
}

// Klines fetches the latest size bars of period for pair.
func (c *Client) Klines(ctx context.Context, pair schema.CurrencyPair, period string, size int) ([]schema.Kline, error) {
	query := url.Values{
		"symbol": {Symbol(pair)},
		"period": {period},
	}
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}
	var res KlineResult
	if err := c.rest.Get(ctx, "/market/history/kline", query, &res); err != nil {
		return nil, err
	}
	if _, err := res.Unwrap(); err != nil {
		return nil, err
	}
	return res.Klines(), nil
}

// DepositAddress fetches the first deposit address for currency.
func (c *Client) DepositAddress(ctx context.Context, currency string) (DepositAddress, error) {
	if err := c.requirePrivate(); err != nil {
		return DepositAddress{}, err
	}
	var res v2Result[[]DepositAddress]
	if err := c.rest.Get(ctx, "/v2/account/deposit/address", url.Values{"currency": {Asset(currency)}}, &res); err != nil {
		return DepositAddress{}, err
	}
	addresses, err := res.unwrap()
	if err != nil {
		return DepositAddress{}, err
	}
	if len(addresses) == 0 {
		return DepositAddress{}, errs.NotFound(venueName, errs.CanonicalUnknown, "no deposit address for "+currency)
	}
	return addresses[0], nil
}

// FundingHistory fetches deposits or withdrawals of currency starting at
// record id from (empty for the latest page).
func (c *Client) FundingHistory(ctx context.Context, currency string, kind schema.FundingType, from string) ([]schema.FundingRecord, error) {
	if err := c.requirePrivate(); err != nil {
		return nil, err
	}
	venueType := "withdraw"
	if kind == schema.FundingDeposit {
		venueType = "deposit"
	}
	query := url.Values{
		"currency": {Asset(currency)},
		"type":     {venueType},
		"size":     {fundingPageSize},
	}
	if from != "" {
		query.Set("from", from)
	}
	records, err := get[[]FundingRecord](ctx, c, "/v1/query/deposit-withdraw", query)
	if err != nil {
		return nil, err
	}
	return AdaptFundingRecords(records), nil
}

// Withdraw creates a withdrawal and returns its id.
func (c *Client) Withdraw(ctx context.Context, currency string, amount, fee decimal.Decimal, address, tag string) (int64, error) {
	if err := c.requirePrivate(); err != nil {
		return 0, err
	}
	req := WithdrawRequest{
		Address:  address,
		Amount:   amount,
		Currency: Asset(currency),
		Fee:      fee,
		AddrTag:  tag,
	}
	return post[int64](ctx, c, "/v1/dw/withdraw/api/create", req)
}

// Borrow requests a margin loan of currency on pair and returns the loan id.
func (c *Client) Borrow(ctx context.Context, pair schema.CurrencyPair, currency string, amount decimal.Decimal) (int64, error) {
	if err := c.requirePrivate(); err != nil {
		return 0, err
	}
	req, err := BuildBorrowRequest(pair, currency, amount)
	if err != nil {
		return 0, err
	}
	return post[int64](ctx, c, "/v1/margin/orders", req)
}

func decodeError(status int, body []byte) error {
	var res Result[json.RawMessage]
	if err := json.Unmarshal(body, &res); err == nil && res.ErrCode != "" {
		apiErr := resultError(res.Status, res.ErrCode, res.ErrMsg)
		var e *errs.E
		if errors.As(apiErr, &e) {
			e.HTTP = status
		}
		return apiErr
	}
	return errs.New(venueName, shared.CodeForStatus(status),
		errs.WithHTTP(status),
		errs.WithRawMessage(strings.TrimSpace(string(body))))
}

// Signer appends the version 2 signature query parameters.
type Signer struct {
	creds Credentials
	clock shared.Clock
}

// NewSigner returns a signer for creds. A nil clock uses time.Now.
func NewSigner(creds Credentials, clock shared.Clock) (*Signer, error) {
	if !creds.Configured() {
		return nil, errors.New("huobi: api key and secret are required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Signer{creds: creds, clock: clock}, nil
}

// Sign implements shared.Signer.
func (s *Signer) Sign(req *http.Request, _ []byte) error {
	query := req.URL.Query()
	query.Del("Signature")
	query.Set("AccessKeyId", s.creds.APIKey)
	query.Set("SignatureMethod", "HmacSHA256")
	query.Set("SignatureVersion", "2")
	query.Set("Timestamp", s.clock().UTC().Format("2006-01-02T15:04:05"))
	query.Set("Signature", s.Signature(req.Method, req.URL.Host, req.URL.Path, query))
	req.URL.RawQuery = query.Encode()
	return nil
}

// Signature signs "METHOD\nhost\npath\nsorted-query" with the secret.
// Any Signature parameter already in query is ignored.
func (s *Signer) Signature(method, host, path string, query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		if k != "Signature" {
			params[k] = v
		}
	}
	payload := strings.ToUpper(method) + "\n" + strings.ToLower(host) + "\n" + path + "\n" + params.Encode()
	return shared.HMACSHA256Base64([]byte(s.creds.Secret), payload)
}
