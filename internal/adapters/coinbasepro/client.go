package coinbasepro

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/precision"
	"github.com/coachpo/xvenue/internal/schema"
	"github.com/coachpo/xvenue/internal/telemetry"
)

const venueName = telemetry.VenueCoinbasePro

// DefaultBaseURL is the production REST endpoint.
const DefaultBaseURL = "https://api.pro.coinbase.com"

// Credentials authenticate private endpoints. Secret is base64 encoded.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Configured reports whether all three credential parts are present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.Secret != "" && c.Passphrase != ""
}

// Options configures a Client.
type Options struct {
	REST        shared.RESTConfig
	Credentials Credentials
	Precision   *precision.Table
	TradingFee  decimal.Decimal
	HTTPClient  *http.Client
	Clock       shared.Clock
}

// Client wraps the Coinbase Pro REST API and returns unified values.
type Client struct {
	rest       *shared.RESTClient
	precision  *precision.Table
	tradingFee decimal.Decimal
	private    bool
}

// NewClient builds a client. Private endpoints fail with CodeAuth unless
// credentials are configured.
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
	fee := opts.TradingFee
	if fee.IsZero() {
		fee = DefaultTradingFee
	}
	return &Client{
		rest:       shared.NewRESTClient(cfg, restOpts...),
		precision:  opts.Precision,
		tradingFee: fee,
		private:    opts.Credentials.Configured(),
	}, nil
}

func (c *Client) requirePrivate() error {
	if c.private {
		return nil
	}
	return errs.New(venueName, errs.CodeAuth, errs.WithMessage("credentials required"))
}

// Ticker fetches the ticker and 24h stats of pair.
func (c *Client) Ticker(ctx context.Context, pair schema.CurrencyPair) (schema.Ticker, error) {
	id := ProductID(pair)
	var ticker ProductTicker
	if err := c.rest.Get(ctx, "/products/"+id+"/ticker", nil, &ticker); err != nil {
		return schema.Ticker{}, err
	}
	var stats ProductStats
	if err := c.rest.Get(ctx, "/products/"+id+"/stats", nil, &stats); err != nil {
		return schema.Ticker{}, err
	}
	return AdaptTicker(ticker, stats, pair), nil
}

// OrderBook fetches the aggregated level 2 book of pair.
func (c *Client) OrderBook(ctx context.Context, pair schema.CurrencyPair) (schema.OrderBook, error) {
	var book ProductBook
	if err := c.rest.Get(ctx, "/products/"+ProductID(pair)+"/book", url.Values{"level": {"2"}}, &book); err != nil {
		return schema.OrderBook{}, err
	}
	return AdaptOrderBook(book, pair, nil), nil
}

// Trades fetches the latest public trades of pair.
func (c *Client) Trades(ctx context.Context, pair schema.CurrencyPair) (schema.Trades, error) {
	var trades []Trade
	if err := c.rest.Get(ctx, "/products/"+ProductID(pair)+"/trades", nil, &trades); err != nil {
		return schema.Trades{}, err
	}
	return AdaptTrades(trades, pair), nil
}

// ExchangeMeta fetches products and currencies.
func (c *Client) ExchangeMeta(ctx context.Context) (schema.ExchangeMeta, error) {
	var products []Product
	if err := c.rest.Get(ctx, "/products", nil, &products); err != nil {
		return schema.ExchangeMeta{}, err
	}
	var currencies []Currency
	if err := c.rest.Get(ctx, "/currencies", nil, &currencies); err != nil {
		return schema.ExchangeMeta{}, err
	}
	return AdaptExchangeMeta(schema.NewExchangeMeta(), products, currencies, c.tradingFee), nil
}

// Wallet fetches all account balances.
func (c *Client) Wallet(ctx context.Context) (schema.Wallet, error) {
	if err := c.requirePrivate(); err != nil {
		return schema.Wallet{}, err
	}
	var accounts []Account
	if err := c.rest.Get(ctx, "/accounts", nil, &accounts); err != nil {
		return schema.Wallet{}, err
	}
	return AdaptWallet(accounts), nil
}

// OpenOrders fetches the account's open orders.
func (c *Client) OpenOrders(ctx context.Context) (schema.OpenOrders, error) {
	if err := c.requirePrivate(); err != nil {
		return schema.OpenOrders{}, err
	}
	var orders []Order
	query := url.Values{"status": {"open", "pending", "active"}}
	if err := c.rest.Get(ctx, "/orders", query, &orders); err != nil {
		return schema.OpenOrders{}, err
	}
	return AdaptOpenOrders(orders), nil
}

// Order fetches one order by id.
func (c *Client) Order(ctx context.Context, id string) (schema.Order, error) {
	if err := c.requirePrivate(); err != nil {
		return schema.Order{}, err
	}
	var raw Order
	if err := c.rest.Get(ctx, "/orders/"+url.PathEscape(id), nil, &raw); err != nil {
		return schema.Order{}, err
	}
	order, ok := AdaptOrder(raw)
	if !ok {
		return schema.Order{}, errs.New(venueName, errs.CodeExchange,
			errs.WithMessage("unsupported order type"),
			errs.WithCanonicalCode(errs.CanonicalUnsupportedOrder),
			errs.WithField("type", raw.Type))
	}
	return order, nil
}

// Fills fetches the account's fills on pair.
func (c *Client) Fills(ctx context.Context, pair schema.CurrencyPair) (schema.UserTrades, error) {
	if err := c.requirePrivate(); err != nil {
		return schema.UserTrades{}, err
	}
	var fills []Fill
	if err := c.rest.Get(ctx, "/fills", url.Values{"product_id": {ProductID(pair)}}, &fills); err != nil {
		return schema.UserTrades{}, err
	}
	return AdaptFills(fills), nil
}

// FundingRecords fetches the transfers of the account holding currency.
func (c *Client) FundingRecords(ctx context.Context, accountID, currency string) ([]schema.FundingRecord, error) {
	if err := c.requirePrivate(); err != nil {
		return nil, err
	}
	var transfers []Transfer
	if err := c.rest.Get(ctx, "/accounts/"+url.PathEscape(accountID)+"/transfers", nil, &transfers); err != nil {
		return nil, err
	}
	return AdaptFundingRecords(currency, transfers), nil
}

// PreparePlaceOrder builds the request body PlaceOrder would send, with a
// fresh client order id.
func (c *Client) PreparePlaceOrder(order schema.Order) (PlaceOrderRequest, error) {
	req, err := BuildPlaceOrder(order, c.precision)
	if err != nil {
		return PlaceOrderRequest{}, err
	}
	req.ClientOID = uuid.NewString()
	return req, nil
}

// PlaceOrder submits order and returns the venue order id.
func (c *Client) PlaceOrder(ctx context.Context, order schema.Order) (string, error) {
	if err := c.requirePrivate(); err != nil {
		return "", err
	}
	req, err := c.PreparePlaceOrder(order)
	if err != nil {
		return "", err
	}
	var placed Order
	if err := c.rest.PostIdempotent(ctx, "/orders", req, &placed); err != nil {
		return "", err
	}
	return placed.ID, nil
}

// CancelOrder cancels an order by id.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	if err := c.requirePrivate(); err != nil {
		return err
	}
	return c.rest.Delete(ctx, "/orders/"+url.PathEscape(id), nil, nil)
}

func decodeError(status int, body []byte) error {
	var apiErr APIError
	_ = json.Unmarshal(body, &apiErr)
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	opts := []errs.Option{errs.WithHTTP(status), errs.WithRawMessage(msg)}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "insufficient funds"):
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalInsufficientBalance))
	case strings.Contains(lower, "notfound"), strings.Contains(lower, "order not found"):
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalOrderNotFound))
	case strings.Contains(lower, "product not found"):
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalInvalidSymbol))
	case status == http.StatusTooManyRequests:
		opts = append(opts, errs.WithCanonicalCode(errs.CanonicalRateLimited))
	}
	return errs.New(venueName, shared.CodeForStatus(status), opts...)
}

// Signer adds the CB-ACCESS-* headers to private requests.
type Signer struct {
	creds Credentials
	key   []byte
	clock shared.Clock
}

// NewSigner decodes the secret once. A nil clock uses time.Now.
func NewSigner(creds Credentials, clock shared.Clock) (*Signer, error) {
	if !creds.Configured() {
		return nil, errors.New("coinbasepro: api key, secret and passphrase are required")
	}
	key, err := shared.DecodeSecret(creds.Secret)
	if err != nil {
		return nil, errs.New(venueName, errs.CodeAuth, errs.WithCause(err))
	}
	if clock == nil {
		clock = time.Now
	}
	return &Signer{creds: creds, key: key, clock: clock}, nil
}

// Sign implements shared.Signer.
func (s *Signer) Sign(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(s.clock().UTC().Unix(), 10)
	req.Header.Set("CB-ACCESS-KEY", s.creds.APIKey)
	req.Header.Set("CB-ACCESS-SIGN", s.Signature(ts, req.Method, req.URL.RequestURI(), body))
	req.Header.Set("CB-ACCESS-TIMESTAMP", ts)
	req.Header.Set("CB-ACCESS-PASSPHRASE", s.creds.Passphrase)
	return nil
}

// Signature signs timestamp + method + request path + body.
func (s *Signer) Signature(ts, method, requestPath string, body []byte) string {
	return shared.HMACSHA256Base64(s.key, ts+strings.ToUpper(method)+requestPath+string(body))
}
