package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/config"
	"github.com/coachpo/xvenue/internal/schema"
)

func newTestCLI(venue config.Venue) (*cli, *bytes.Buffer) {
	var out bytes.Buffer
	return &cli{
		cfg:    config.Default(),
		venue:  venue,
		out:    &out,
		logger: log.New(io.Discard, "", 0),
	}, &out
}

func TestRunUsage(t *testing.T) {
	c, _ := newTestCLI(config.VenueCoinbasePro)
	require.ErrorIs(t, c.run(context.Background(), nil), errUsage)
	require.ErrorIs(t, c.run(context.Background(), []string{"launch"}), errUsage)
	require.ErrorIs(t, c.run(context.Background(), []string{"book"}), errUsage)
}

func TestRunRejectsWrongVenue(t *testing.T) {
	c, _ := newTestCLI(config.VenueCoinbasePro)
	err := c.run(context.Background(), []string{"klines", "BTC/USDT", "1min", "5"})
	require.EqualError(t, err, "klines is only available on huobi")

	c, _ = newTestCLI(config.VenueHuobi)
	err = c.run(context.Background(), []string{"ticker", "BTC/USD"})
	require.EqualError(t, err, "ticker is only available on coinbasepro")
}

func TestPlaceDryRunCoinbase(t *testing.T) {
	c, out := newTestCLI(config.VenueCoinbasePro)
	err := c.run(context.Background(), []string{
		"place", "-side", "bid", "-amount", "1.5", "-price", "100.25", "-post-only", "-dry-run", "BTC-USD",
	})
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &req))
	require.Equal(t, "BTC-USD", req["product_id"])
	require.Equal(t, "buy", req["side"])
	require.Equal(t, "limit", req["type"])
	require.Equal(t, "1.5", req["size"])
	require.Equal(t, "100.25", req["price"])
	require.Equal(t, true, req["post_only"])
	require.NotEmpty(t, req["client_oid"])
}

func TestPlaceDryRunHuobiNeedsAccount(t *testing.T) {
	c, _ := newTestCLI(config.VenueHuobi)
	err := c.run(context.Background(), []string{
		"place", "-side", "ask", "-amount", "1", "-price", "90", "-dry-run", "BTC/USDT",
	})
	require.True(t, errs.HasCode(err, errs.CodeAuth), "got %v", err)
}

func TestPlaceFlagsOrder(t *testing.T) {
	pair := schema.NewCurrencyPair("BTC", "USD")

	order, err := placeFlags{side: "ask", kind: "stop", amount: "2", stop: "95", price: "94.5", ioc: true}.order(pair)
	require.NoError(t, err)
	require.Equal(t, schema.OrderKindStop, order.Kind)
	require.Equal(t, "95", order.StopPrice.String())
	require.Equal(t, "94.5", order.LimitPrice.String())
	require.True(t, order.HasFlag(schema.FlagImmediateOrCancel))
	require.NoError(t, order.Validate())

	order, err = placeFlags{side: "bid", kind: "market", amount: "0.1"}.order(pair)
	require.NoError(t, err)
	require.Nil(t, order.LimitPrice)
	require.Empty(t, order.Flags)

	_, err = placeFlags{side: "long", kind: "market", amount: "1"}.order(pair)
	require.ErrorContains(t, err, "must be bid or ask")
	_, err = placeFlags{side: "bid", kind: "limit", amount: "1"}.order(pair)
	require.ErrorContains(t, err, "requires -price")
	_, err = placeFlags{side: "bid", kind: "market", amount: "lots"}.order(pair)
	require.ErrorContains(t, err, `amount "lots" is not a decimal`)
	_, err = placeFlags{side: "bid", kind: "iceberg", amount: "1"}.order(pair)
	require.ErrorContains(t, err, "must be market, limit or stop")
}

func TestTickersFetchesEveryPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/products/BTC-USD/ticker":
			_, _ = w.Write([]byte(`{"trade_id":1,"price":"100.5","bid":"100","ask":"101","volume":"10","time":"2020-01-01T00:00:00.000Z"}`))
		case "/products/ETH-USD/ticker":
			_, _ = w.Write([]byte(`{"trade_id":2,"price":"20.5","bid":"20","ask":"21","volume":"5","time":"2020-01-01T00:00:00.000Z"}`))
		case "/products/BTC-USD/stats", "/products/ETH-USD/stats":
			_, _ = w.Write([]byte(`{"open":"1","high":"2","low":"0.5","volume":"3"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, out := newTestCLI(config.VenueCoinbasePro)
	c.cfg.Venues.CoinbasePro.BaseURL = srv.URL
	c.cfg.Venues.CoinbasePro.RequestsPerSecond = 0

	require.NoError(t, c.run(context.Background(), []string{"ticker", "ETH/USD", "BTC/USD"}))

	var tickers []struct {
		Pair schema.CurrencyPair
		Last string
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &tickers))
	require.Len(t, tickers, 2)
	require.Equal(t, "BTC", tickers[0].Pair.Base)
	require.Equal(t, "100.5", tickers[0].Last)
	require.Equal(t, "ETH", tickers[1].Pair.Base)
	require.Equal(t, "20.5", tickers[1].Last)
}
