package huobi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/schema"
)

var testCreds = Credentials{APIKey: "access", Secret: "secret"}

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func newTestClient(t *testing.T, creds Credentials, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{
		REST:        shared.RESTConfig{BaseURL: srv.URL, MaxRetries: 1},
		Credentials: creds,
		Clock:       fixedClock,
	})
	require.NoError(t, err)
	return client
}

func TestClientPlacesMarginOrderOnResolvedAccount(t *testing.T) {
	var accountCalls atomic.Int32
	var placed CreateOrderRequest
	client := newTestClient(t, testCreds, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "access", q.Get("AccessKeyId"))
		require.Equal(t, "2024-05-06T07:08:09", q.Get("Timestamp"))
		signer, err := NewSigner(testCreds, fixedClock)
		require.NoError(t, err)
		require.Equal(t, signer.Signature(r.Method, r.Host, r.URL.Path, q), q.Get("Signature"))

		switch r.URL.Path {
		case "/v1/account/accounts":
			accountCalls.Add(1)
			_, _ = w.Write([]byte(`{"status":"ok","data":[{"id":1,"type":"spot","state":"working"},{"id":2,"type":"margin","subtype":"btcusdt","state":"working"}]}`))
		case "/v1/account/accounts/2/balance":
			_, _ = w.Write([]byte(`{"status":"ok","data":{"id":2,"type":"margin","list":[{"currency":"btc","type":"trade","balance":"0.1"},{"currency":"usdt","type":"trade","balance":"50"}]}}`))
		case "/v1/order/orders/place":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &placed))
			_, _ = w.Write([]byte(`{"status":"ok","data":"59378"}`))
		default:
			http.NotFound(w, r)
		}
	})

	order := schema.NewLimitOrder(schema.SideBid, dec("0.123456"), btcUSDT, dec("100.129"), schema.Fill{})
	id, err := client.PlaceOrder(context.Background(), order, true)
	require.NoError(t, err)
	require.Equal(t, "59378", id)
	require.Equal(t, CreateOrderRequest{AccountID: "2", Amount: "0.1234", Price: "100.12", Symbol: "btcusdt", Type: "buy-limit", Source: MarginSource}, placed)

	_, err = client.PlaceOrder(context.Background(), order, false)
	require.NoError(t, err)
	require.Equal(t, "1", placed.AccountID)
	require.Empty(t, placed.Source)
	require.Equal(t, int32(1), accountCalls.Load())
}

func TestClientPlaceOrderIsNotResubmitted(t *testing.T) {
	var places atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/account/accounts":
			_, _ = w.Write([]byte(`{"status":"ok","data":[{"id":1,"type":"spot","state":"working"}]}`))
		case "/v1/order/orders/place":
			if places.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"status":"ok","data":"42"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{
		REST: shared.RESTConfig{
			BaseURL:        srv.URL,
			MaxRetries:     3,
			InitialBackoff: time.Millisecond,
		},
		Credentials: testCreds,
		Clock:       fixedClock,
	})
	require.NoError(t, err)

	order := schema.NewMarketOrder(schema.SideBid, dec("1"), btcUSDT, schema.Fill{})
	id, err := client.PlaceOrder(context.Background(), order, false)
	require.Error(t, err)
	require.True(t, errs.HasCode(err, errs.CodeUnavailable), "got %v", err)
	require.Empty(t, id)
	require.Equal(t, int32(1), places.Load())
}

func TestClientResultErrorIsReturned(t *testing.T) {
	client := newTestClient(t, testCreds, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","err-code":"base-record-invalid","err-msg":"record invalid","data":null}`))
	})
	_, err := client.Order(context.Background(), "1")
	require.True(t, errs.HasCanonical(err, errs.CanonicalOrderNotFound))
}

func TestClientHTTPErrorWithEnvelope(t *testing.T) {
	client := newTestClient(t, testCreds, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"error","err-code":"base-symbol-error","err-msg":"bad symbol"}`))
	})
	_, err := client.CancelOrder(context.Background(), "1")
	var e *errs.E
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusBadRequest, e.HTTP)
	require.Equal(t, errs.CanonicalInvalidSymbol, e.Canonical)
}

func TestClientKlinesIsPublic(t *testing.T) {
	client := newTestClient(t, Credentials{}, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.Query().Get("Signature"))
		require.Equal(t, "btcusdt", r.URL.Query().Get("symbol"))
		require.Equal(t, "1min", r.URL.Query().Get("period"))
		require.Equal(t, "2", r.URL.Query().Get("size"))
		_, _ = w.Write([]byte(`{"status":"ok","ch":"market.btcusdt.kline.1min","ts":1546300800000,"data":[{"id":1,"open":1,"close":1,"low":1,"high":1,"amount":1,"vol":1,"count":1},{"id":2,"open":2,"close":2,"low":2,"high":2,"amount":2,"vol":2,"count":2}]}`))
	})
	bars, err := client.Klines(context.Background(), btcUSDT, "1min", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.Equal(t, time.Date(2018, 12, 31, 23, 58, 0, 0, time.UTC), bars[0].Timestamp)

	_, err = client.Wallet(context.Background())
	require.True(t, errs.HasCode(err, errs.CodeAuth))
}

func TestClientFundingHistoryAndDepositAddress(t *testing.T) {
	client := newTestClient(t, testCreds, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/query/deposit-withdraw":
			require.Equal(t, "deposit", r.URL.Query().Get("type"))
			require.Equal(t, "btc", r.URL.Query().Get("currency"))
			require.Equal(t, "100", r.URL.Query().Get("size"))
			_, _ = w.Write([]byte(`{"status":"ok","data":[{"id":1,"type":"deposit","currency":"btc","amount":"0.5","state":"safe","created-at":1546300800000}]}`))
		case "/v2/account/deposit/address":
			_, _ = w.Write([]byte(`{"code":200,"data":[{"currency":"btc","address":"1abc","addressTag":"","chain":"btc"}]}`))
		default:
			http.NotFound(w, r)
		}
	})
	records, err := client.FundingHistory(context.Background(), "BTC", schema.FundingDeposit, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, schema.FundingComplete, records[0].Status)

	addr, err := client.DepositAddress(context.Background(), "BTC")
	require.NoError(t, err)
	require.Equal(t, "1abc", addr.Address)
}

func TestSignatureIgnoresExistingSignature(t *testing.T) {
	signer, err := NewSigner(testCreds, fixedClock)
	require.NoError(t, err)
	q := url.Values{"a": {"1"}}
	withSig := url.Values{"a": {"1"}, "Signature": {"stale"}}
	require.Equal(t, signer.Signature("get", "API.huobi.pro", "/v1/x", q), signer.Signature("GET", "api.huobi.pro", "/v1/x", withSig))

	_, err = NewSigner(Credentials{}, nil)
	require.Error(t, err)
}
