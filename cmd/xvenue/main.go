// Command xvenue queries Coinbase Pro and Huobi through the unified model
// and prints the results as JSON.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/config"
	"github.com/coachpo/xvenue/internal/telemetry"
)

const (
	cliLoggerPrefix          = "xvenue "
	telemetryShutdownTimeout = 5 * time.Second
)

const usage = `usage: xvenue [-config path] [-venue coinbasepro|huobi] <command> [args]

commands:
  ticker PAIR...                  coinbasepro tickers, fetched concurrently
  watch [-interval d] PAIR...     poll coinbasepro tickers until interrupted
  book PAIR                       coinbasepro level-2 order book
  trades PAIR                     coinbasepro public trades
  fills PAIR                      coinbasepro account fills
  meta                            coinbasepro products and currencies
  balances                        account wallet
  open-orders [PAIR]              open orders (PAIR required on huobi)
  order ID                        single order
  margin-account PAIR             huobi margin account for PAIR
  klines PAIR PERIOD SIZE         huobi candles, e.g. klines BTC/USDT 15min 10
  accounts                        huobi accounts
  order-history PAIR              huobi filled and canceled orders
  funding CURRENCY ACCOUNT_ID     coinbasepro transfers of an account
  funding CURRENCY TYPE           huobi deposits or withdrawals (TYPE deposit|withdrawal)
  deposit-address CURRENCY        huobi deposit address
  withdraw CUR AMT FEE ADDR [TAG] huobi withdrawal
  borrow PAIR CURRENCY AMOUNT     huobi margin loan
  place [flags] PAIR              place an order, see place -h
  cancel ID                       cancel an order
`

func main() {
	cfgPath, venue := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := newCLILogger()

	appCfg, loadedFromFile, err := config.LoadOrDefault(ctx, cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using defaults")
	}

	provider, err := initTelemetry(ctx, logger, appCfg)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, stop := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer stop()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown telemetry: %v", err)
		}
	}()

	logCredentials(logger, appCfg)

	app := &cli{cfg: appCfg, venue: venue, out: os.Stdout, logger: logger}
	if err := app.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Printf("%v", err)
		os.Exit(1)
	}
}

func parseFlags() (string, config.Venue) {
	cfgPath := flag.String("config", "", fmt.Sprintf("Path to configuration file (default: $XVENUE_CONFIG or %s)", config.DefaultPath))
	venue := flag.String("venue", string(config.VenueCoinbasePro), "Venue to query: coinbasepro or huobi")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()
	return *cfgPath, config.Venue(strings.ToLower(strings.TrimSpace(*venue)))
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Results go to stdout, so diagnostics go to stderr.
func newCLILogger() *log.Logger {
	return log.New(os.Stderr, cliLoggerPrefix, log.LstdFlags|log.Lmicroseconds)
}

func initTelemetry(ctx context.Context, logger *log.Logger, cfg config.AppConfig) (*telemetry.Provider, error) {
	provider, err := telemetry.NewProvider(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry provider: %w", err)
	}
	if cfg.Telemetry.Enabled {
		logger.Printf("telemetry initialized: endpoint=%s, service=%s", cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	}
	return provider, nil
}

func logCredentials(logger *log.Logger, cfg config.AppConfig) {
	for _, name := range []config.Venue{config.VenueCoinbasePro, config.VenueHuobi} {
		v, _ := cfg.Venue(name)
		if v.Credentials.Configured() {
			logger.Printf("%s credentials loaded: key=%s", name, shared.RedactKey(v.Credentials.APIKey))
		}
	}
}

type cli struct {
	cfg    config.AppConfig
	venue  config.Venue
	out    io.Writer
	logger *log.Logger
}
