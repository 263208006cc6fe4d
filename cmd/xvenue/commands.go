package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"

	"github.com/coachpo/xvenue/internal/adapters/coinbasepro"
	"github.com/coachpo/xvenue/internal/adapters/huobi"
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/config"
	"github.com/coachpo/xvenue/internal/schema"
)

const maxConcurrentFetches = 4

var errUsage = errors.New("usage")

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ticker":
		return c.tickers(ctx, rest)
	case "watch":
		return c.watch(ctx, rest)
	case "book":
		return c.book(ctx, rest)
	case "trades":
		return c.trades(ctx, rest)
	case "fills":
		return c.fills(ctx, rest)
	case "meta":
		return c.meta(ctx)
	case "balances":
		return c.balances(ctx)
	case "open-orders":
		return c.openOrders(ctx, rest)
	case "order":
		return c.order(ctx, rest)
	case "margin-account":
		return c.marginAccount(ctx, rest)
	case "klines":
		return c.klines(ctx, rest)
	case "accounts":
		return c.accounts(ctx)
	case "order-history":
		return c.orderHistory(ctx, rest)
	case "funding":
		return c.funding(ctx, rest)
	case "deposit-address":
		return c.depositAddress(ctx, rest)
	case "withdraw":
		return c.withdraw(ctx, rest)
	case "borrow":
		return c.borrow(ctx, rest)
	case "place":
		return c.place(ctx, rest)
	case "cancel":
		return c.cancel(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (c *cli) requireVenue(cmd string, want config.Venue) error {
	if c.venue != want {
		return fmt.Errorf("%s is only available on %s", cmd, want)
	}
	return nil
}

func (c *cli) coinbase() (*coinbasepro.Client, error) {
	opts, err := c.cfg.CoinbaseOptions()
	if err != nil {
		return nil, err
	}
	return coinbasepro.NewClient(opts)
}

func (c *cli) huobi() (*huobi.Client, error) {
	opts, err := c.cfg.HuobiOptions()
	if err != nil {
		return nil, err
	}
	return huobi.NewClient(opts)
}

func parsePairs(args []string) ([]schema.CurrencyPair, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("currency pair required: %w", errUsage)
	}
	pairs := make([]schema.CurrencyPair, 0, len(args))
	for _, arg := range args {
		pair, err := schema.ParseCurrencyPair(arg)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

func singlePair(args []string) (schema.CurrencyPair, error) {
	if len(args) != 1 {
		return schema.CurrencyPair{}, fmt.Errorf("exactly one currency pair required: %w", errUsage)
	}
	return schema.ParseCurrencyPair(args[0])
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (c *cli) tickers(ctx context.Context, args []string) error {
	if err := c.requireVenue("ticker", config.VenueCoinbasePro); err != nil {
		return err
	}
	pairs, err := parsePairs(args)
	if err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}

	p := pool.NewWithResults[schema.Ticker]().WithContext(ctx).WithMaxGoroutines(maxConcurrentFetches)
	for _, pair := range pairs {
		p.Go(func(ctx context.Context) (schema.Ticker, error) {
			return client.Ticker(ctx, pair)
		})
	}
	tickers, err := p.Wait()
	sort.Slice(tickers, func(i, j int) bool { return tickers[i].Pair.String() < tickers[j].Pair.String() })
	if len(tickers) > 0 {
		if perr := printJSON(c.out, tickers); perr != nil {
			return perr
		}
	}
	return err
}

func (c *cli) watch(ctx context.Context, args []string) error {
	if err := c.requireVenue("watch", config.VenueCoinbasePro); err != nil {
		return err
	}
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", 5*time.Second, "Poll interval per pair")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	pairs, err := parsePairs(fs.Args())
	if err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}

	tasks := make([]shared.PollTask[schema.Ticker], 0, len(pairs))
	for _, pair := range pairs {
		tasks = append(tasks, shared.PollTask[schema.Ticker]{
			Name:     pair.String(),
			Interval: *interval,
			Fetch: func(ctx context.Context) (schema.Ticker, error) {
				return client.Ticker(ctx, pair)
			},
		})
	}

	snapshots, errs := shared.NewPoller[schema.Ticker](nil).Poll(ctx, tasks)
	enc := json.NewEncoder(c.out)
	for snapshots != nil || errs != nil {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			if err := enc.Encode(snap); err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			c.logger.Printf("watch: %v", err)
		}
	}
	return nil
}

func (c *cli) book(ctx context.Context, args []string) error {
	if err := c.requireVenue("book", config.VenueCoinbasePro); err != nil {
		return err
	}
	pair, err := singlePair(args)
	if err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}
	book, err := client.OrderBook(ctx, pair)
	if err != nil {
		return err
	}
	return printJSON(c.out, book)
}

func (c *cli) trades(ctx context.Context, args []string) error {
	if err := c.requireVenue("trades", config.VenueCoinbasePro); err != nil {
		return err
	}
	pair, err := singlePair(args)
	if err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}
	trades, err := client.Trades(ctx, pair)
	if err != nil {
		return err
	}
	return printJSON(c.out, trades)
}

func (c *cli) fills(ctx context.Context, args []string) error {
	if err := c.requireVenue("fills", config.VenueCoinbasePro); err != nil {
		return err
	}
	pair, err := singlePair(args)
	if err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}
	fills, err := client.Fills(ctx, pair)
	if err != nil {
		return err
	}
	return printJSON(c.out, fills)
}

func (c *cli) meta(ctx context.Context) error {
	if err := c.requireVenue("meta", config.VenueCoinbasePro); err != nil {
		return err
	}
	client, err := c.coinbase()
	if err != nil {
		return err
	}
	meta, err := client.ExchangeMeta(ctx)
	if err != nil {
		return err
	}
	pairs := make(map[string]schema.PairMeta, len(meta.Pairs))
	for pair, pm := range meta.Pairs {
		pairs[pair.String()] = pm
	}
	return printJSON(c.out, map[string]any{"pairs": pairs, "currencies": meta.Currencies})
}

func (c *cli) balances(ctx context.Context) error {
	var (
		wallet schema.Wallet
		err    error
	)
	switch c.venue {
	case config.VenueCoinbasePro:
		client, cerr := c.coinbase()
		if cerr != nil {
			return cerr
		}
		wallet, err = client.Wallet(ctx)
	case config.VenueHuobi:
		client, cerr := c.huobi()
		if cerr != nil {
			return cerr
		}
		wallet, err = client.Wallet(ctx)
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, wallet)
}

func (c *cli) openOrders(ctx context.Context, args []string) error {
	var (
		orders schema.OpenOrders
		err    error
	)
	switch c.venue {
	case config.VenueCoinbasePro:
		client, cerr := c.coinbase()
		if cerr != nil {
			return cerr
		}
		orders, err = client.OpenOrders(ctx)
	case config.VenueHuobi:
		pair, perr := singlePair(args)
		if perr != nil {
			return perr
		}
		client, cerr := c.huobi()
		if cerr != nil {
			return cerr
		}
		orders, err = client.OpenOrders(ctx, pair)
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, orders)
}

func (c *cli) order(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("order id required: %w", errUsage)
	}
	var (
		order schema.Order
		err   error
	)
	switch c.venue {
	case config.VenueCoinbasePro:
		client, cerr := c.coinbase()
		if cerr != nil {
			return cerr
		}
		order, err = client.Order(ctx, args[0])
	case config.VenueHuobi:
		client, cerr := c.huobi()
		if cerr != nil {
			return cerr
		}
		order, err = client.Order(ctx, args[0])
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, order)
}

func (c *cli) marginAccount(ctx context.Context, args []string) error {
	if err := c.requireVenue("margin-account", config.VenueHuobi); err != nil {
		return err
	}
	pair, err := singlePair(args)
	if err != nil {
		return err
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	account, err := client.MarginAccount(ctx, pair)
	if err != nil {
		return err
	}
	return printJSON(c.out, account)
}

func (c *cli) klines(ctx context.Context, args []string) error {
	if err := c.requireVenue("klines", config.VenueHuobi); err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("klines needs PAIR PERIOD SIZE: %w", errUsage)
	}
	pair, err := schema.ParseCurrencyPair(args[0])
	if err != nil {
		return err
	}
	size, err := strconv.Atoi(args[2])
	if err != nil || size <= 0 {
		return fmt.Errorf("kline size %q must be a positive integer", args[2])
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	klines, err := client.Klines(ctx, pair, args[1], size)
	if err != nil {
		return err
	}
	return printJSON(c.out, klines)
}

func (c *cli) accounts(ctx context.Context) error {
	if err := c.requireVenue("accounts", config.VenueHuobi); err != nil {
		return err
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	accounts, err := client.AccountService().Accounts(ctx)
	if err != nil {
		return err
	}
	return printJSON(c.out, accounts)
}

func (c *cli) orderHistory(ctx context.Context, args []string) error {
	if err := c.requireVenue("order-history", config.VenueHuobi); err != nil {
		return err
	}
	pair, err := singlePair(args)
	if err != nil {
		return err
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	orders, err := client.OrderHistory(ctx, pair)
	if err != nil {
		return err
	}
	return printJSON(c.out, orders)
}

func (c *cli) funding(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("funding needs CURRENCY and ACCOUNT_ID or TYPE: %w", errUsage)
	}
	currency := args[0]
	var (
		records []schema.FundingRecord
		err     error
	)
	switch c.venue {
	case config.VenueCoinbasePro:
		client, cerr := c.coinbase()
		if cerr != nil {
			return cerr
		}
		records, err = client.FundingRecords(ctx, args[1], currency)
	case config.VenueHuobi:
		kind := schema.FundingType(args[1])
		if kind != schema.FundingDeposit && kind != schema.FundingWithdrawal {
			return fmt.Errorf("funding type %q must be deposit or withdrawal", args[1])
		}
		client, cerr := c.huobi()
		if cerr != nil {
			return cerr
		}
		records, err = client.FundingHistory(ctx, currency, kind, "")
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, records)
}

func (c *cli) depositAddress(ctx context.Context, args []string) error {
	if err := c.requireVenue("deposit-address", config.VenueHuobi); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("currency required: %w", errUsage)
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	addr, err := client.DepositAddress(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(c.out, addr)
}

func (c *cli) withdraw(ctx context.Context, args []string) error {
	if err := c.requireVenue("withdraw", config.VenueHuobi); err != nil {
		return err
	}
	if len(args) < 4 || len(args) > 5 {
		return fmt.Errorf("withdraw needs CURRENCY AMOUNT FEE ADDRESS [TAG]: %w", errUsage)
	}
	amount, err := parseDecimal("amount", args[1])
	if err != nil {
		return err
	}
	fee, err := parseDecimal("fee", args[2])
	if err != nil {
		return err
	}
	var tag string
	if len(args) == 5 {
		tag = args[4]
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	id, err := client.Withdraw(ctx, args[0], amount, fee, args[3], tag)
	if err != nil {
		return err
	}
	return printJSON(c.out, map[string]int64{"id": id})
}

func (c *cli) borrow(ctx context.Context, args []string) error {
	if err := c.requireVenue("borrow", config.VenueHuobi); err != nil {
		return err
	}
	if len(args) != 3 {
		return fmt.Errorf("borrow needs PAIR CURRENCY AMOUNT: %w", errUsage)
	}
	pair, err := schema.ParseCurrencyPair(args[0])
	if err != nil {
		return err
	}
	amount, err := parseDecimal("amount", args[2])
	if err != nil {
		return err
	}
	client, err := c.huobi()
	if err != nil {
		return err
	}
	id, err := client.Borrow(ctx, pair, args[1], amount)
	if err != nil {
		return err
	}
	return printJSON(c.out, map[string]int64{"id": id})
}

type placeFlags struct {
	side     string
	kind     string
	amount   string
	price    string
	stop     string
	postOnly bool
	ioc      bool
	fok      bool
	margin   bool
	dryRun   bool
}

func parsePlaceFlags(args []string) (placeFlags, []string, error) {
	var f placeFlags
	fs := flag.NewFlagSet("place", flag.ContinueOnError)
	fs.StringVar(&f.side, "side", "", "bid or ask")
	fs.StringVar(&f.kind, "type", "limit", "market, limit or stop")
	fs.StringVar(&f.amount, "amount", "", "Order amount in the base currency")
	fs.StringVar(&f.price, "price", "", "Limit price; optional for stop orders")
	fs.StringVar(&f.stop, "stop", "", "Stop trigger price")
	fs.BoolVar(&f.postOnly, "post-only", false, "Reject the order if it would take liquidity")
	fs.BoolVar(&f.ioc, "ioc", false, "Immediate or cancel")
	fs.BoolVar(&f.fok, "fok", false, "Fill or kill")
	fs.BoolVar(&f.margin, "margin", false, "Place on the huobi margin account of the pair")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Print the venue request without sending it")
	if err := fs.Parse(args); err != nil {
		return placeFlags{}, nil, errUsage
	}
	return f, fs.Args(), nil
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a decimal", name, value)
	}
	return d, nil
}

func (f placeFlags) order(pair schema.CurrencyPair) (schema.Order, error) {
	side := schema.Side(f.side)
	if !side.Valid() {
		return schema.Order{}, fmt.Errorf("side %q must be bid or ask", f.side)
	}
	amount, err := parseDecimal("amount", f.amount)
	if err != nil {
		return schema.Order{}, err
	}
	var limit *decimal.Decimal
	if f.price != "" {
		p, err := parseDecimal("price", f.price)
		if err != nil {
			return schema.Order{}, err
		}
		limit = &p
	}

	var order schema.Order
	switch schema.OrderKind(f.kind) {
	case schema.OrderKindMarket:
		order = schema.NewMarketOrder(side, amount, pair, schema.Fill{})
	case schema.OrderKindLimit:
		if limit == nil {
			return schema.Order{}, errors.New("limit order requires -price")
		}
		order = schema.NewLimitOrder(side, amount, pair, *limit, schema.Fill{})
	case schema.OrderKindStop:
		stop, err := parseDecimal("stop", f.stop)
		if err != nil {
			return schema.Order{}, err
		}
		order = schema.NewStopOrder(side, amount, pair, stop, limit, schema.Fill{})
	default:
		return schema.Order{}, fmt.Errorf("order type %q must be market, limit or stop", f.kind)
	}

	var flags []schema.OrderFlag
	if f.postOnly {
		flags = append(flags, schema.FlagPostOnly)
	}
	if f.fok {
		flags = append(flags, schema.FlagFillOrKill)
	}
	if f.ioc {
		flags = append(flags, schema.FlagImmediateOrCancel)
	}
	return order.WithFlags(flags...), nil
}

func (c *cli) place(ctx context.Context, args []string) error {
	f, rest, err := parsePlaceFlags(args)
	if err != nil {
		return err
	}
	pair, err := singlePair(rest)
	if err != nil {
		return err
	}
	order, err := f.order(pair)
	if err != nil {
		return err
	}

	switch c.venue {
	case config.VenueCoinbasePro:
		client, err := c.coinbase()
		if err != nil {
			return err
		}
		if f.dryRun {
			req, err := client.PreparePlaceOrder(order)
			if err != nil {
				return err
			}
			return printJSON(c.out, req)
		}
		id, err := client.PlaceOrder(ctx, order)
		if err != nil {
			return err
		}
		return printJSON(c.out, map[string]string{"id": id})
	case config.VenueHuobi:
		client, err := c.huobi()
		if err != nil {
			return err
		}
		if f.dryRun {
			req, err := client.PrepareOrder(ctx, order, f.margin)
			if err != nil {
				return err
			}
			return printJSON(c.out, req)
		}
		id, err := client.PlaceOrder(ctx, order, f.margin)
		if err != nil {
			return err
		}
		return printJSON(c.out, map[string]string{"id": id})
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
}

func (c *cli) cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("order id required: %w", errUsage)
	}
	id := args[0]
	switch c.venue {
	case config.VenueCoinbasePro:
		client, err := c.coinbase()
		if err != nil {
			return err
		}
		if err := client.CancelOrder(ctx, id); err != nil {
			return err
		}
	case config.VenueHuobi:
		client, err := c.huobi()
		if err != nil {
			return err
		}
		if id, err = client.CancelOrder(ctx, id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown venue %q", c.venue)
	}
	return printJSON(c.out, map[string]string{"canceled": id})
}
