package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/coachpo/xvenue/internal/adapters/coinbasepro"
	"github.com/coachpo/xvenue/internal/adapters/huobi"
	"github.com/coachpo/xvenue/internal/precision"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"XVENUE_ENV", "XVENUE_CONFIG",
		"XVENUE_COINBASEPRO_API_KEY", "XVENUE_COINBASEPRO_API_SECRET", "XVENUE_COINBASEPRO_PASSPHRASE",
		"XVENUE_HUOBI_API_KEY", "XVENUE_HUOBI_API_SECRET",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME", "OTEL_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, loaded, err := LoadOrDefault(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.False(t, loaded)
	require.Equal(t, EnvProd, cfg.Environment)
	require.Equal(t, coinbasepro.DefaultBaseURL, cfg.Venues.CoinbasePro.BaseURL)
	require.Equal(t, huobi.DefaultBaseURL, cfg.Venues.Huobi.BaseURL)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
environment: DEV
venues:
  coinbasepro:
    baseURL: https://api-public.sandbox.pro.coinbase.com/
    timeout: 5s
    requestsPerSecond: 2
    tradingFee: "0.15"
    credentials:
      apiKey: key
      apiSecret: c2VjcmV0
      passphrase: pass
  huobi:
    maxRetries: 5
telemetry:
  serviceName: test-service
`)
	cfg, loaded, err := LoadOrDefault(context.Background(), path)
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, EnvDev, cfg.Environment)

	cb := cfg.Venues.CoinbasePro
	require.Equal(t, "https://api-public.sandbox.pro.coinbase.com", cb.BaseURL)
	require.Equal(t, 5*time.Second, cb.Timeout)
	require.Equal(t, 2.0, cb.RequestsPerSecond)
	require.Equal(t, 6, cb.Burst, "absent keys keep defaults")
	require.True(t, cb.TradingFee.Equal(decimal.RequireFromString("0.15")))
	require.True(t, cb.Credentials.Configured())

	require.Equal(t, uint(5), cfg.Venues.Huobi.MaxRetries)
	require.Equal(t, huobi.DefaultBaseURL, cfg.Venues.Huobi.BaseURL)
	require.Equal(t, "test-service", cfg.Telemetry.ServiceName)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "venues:\n  kraken:\n    baseURL: https://api.kraken.com\n")
	_, _, err := LoadOrDefault(context.Background(), path)
	require.ErrorContains(t, err, "unmarshal config")
}

func TestLoadEmptyDocumentUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, loaded, err := LoadOrDefault(context.Background(), writeConfig(t, ""))
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, Default().Venues, cfg.Venues)
}

func TestEnvOverridesCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("XVENUE_ENV", "Staging")
	t.Setenv("XVENUE_HUOBI_API_KEY", "hk")
	t.Setenv("XVENUE_HUOBI_API_SECRET", "hs")
	t.Setenv("XVENUE_COINBASEPRO_PASSPHRASE", "pp")

	path := writeConfig(t, `
venues:
  huobi:
    credentials:
      apiKey: from-file
      apiSecret: from-file
`)
	cfg, _, err := LoadOrDefault(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, EnvStaging, cfg.Environment)
	require.Equal(t, Credentials{APIKey: "hk", APISecret: "hs"}, cfg.Venues.Huobi.Credentials)
	require.Equal(t, "pp", cfg.Venues.CoinbasePro.Credentials.Passphrase)
}

func TestConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "environment: dev\n")
	t.Setenv("XVENUE_CONFIG", path)
	cfg, loaded, err := LoadOrDefault(context.Background(), "")
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, EnvDev, cfg.Environment)
}

func TestValidateAggregatesProblems(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Environment = "qa"
	cfg.Venues.CoinbasePro.BaseURL = "api.pro.coinbase.com"
	cfg.Venues.CoinbasePro.TradingFee = Decimal{decimal.NewFromInt(101)}
	cfg.Venues.Huobi.Timeout = 0
	cfg.Venues.Huobi.Credentials.APIKey = "only-key"

	err := cfg.Validate(context.Background())
	require.Error(t, err)
	for _, want := range []string{
		`invalid environment: "qa"`,
		"venues.coinbasepro.baseURL",
		"venues.coinbasepro.tradingFee 101",
		"venues.huobi.timeout must be >0",
		"venues.huobi.credentials need both apiKey and apiSecret",
	} {
		require.ErrorContains(t, err, want)
	}
}

func TestValidateTelemetry(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.OTLPEndpoint = ""
	cfg.Telemetry.MetricInterval = 0
	err := cfg.Validate(context.Background())
	require.ErrorContains(t, err, "telemetry.otlpEndpoint required")
	require.ErrorContains(t, err, "telemetry.metricInterval must be >0")
}

func TestVenueLookup(t *testing.T) {
	cfg := Default()
	v, ok := cfg.Venue(" HUOBI ")
	require.True(t, ok)
	require.Equal(t, cfg.Venues.Huobi, v)
	_, ok = cfg.Venue("kraken")
	require.False(t, ok)
}

func TestClientOptions(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "precision.yaml")
	require.NoError(t, os.WriteFile(tablePath, []byte(`
default:
  quantity: {scale: 4}
  price: {scale: 2}
`), 0o600))

	cfg := Default()
	cfg.Venues.Huobi.PrecisionFile = tablePath
	cfg.Venues.Huobi.Credentials = Credentials{APIKey: "k", APISecret: "s"}
	cfg.Venues.CoinbasePro.TradingFee = Decimal{decimal.RequireFromString("0.1")}

	hopts, err := cfg.HuobiOptions()
	require.NoError(t, err)
	require.NotNil(t, hopts.Precision)
	require.Equal(t, 4, hopts.Precision.Default().Scale(precision.AxisQuantity))
	require.Equal(t, huobi.Credentials{APIKey: "k", Secret: "s"}, hopts.Credentials)
	require.Equal(t, 10.0, hopts.REST.RequestsPerSecond)

	copts, err := cfg.CoinbaseOptions()
	require.NoError(t, err)
	require.Nil(t, copts.Precision)
	require.True(t, copts.TradingFee.Equal(decimal.RequireFromString("0.1")))

	cfg.Venues.Huobi.PrecisionFile = filepath.Join(dir, "missing.yaml")
	_, err = cfg.HuobiOptions()
	require.ErrorContains(t, err, "huobi precision")
}

func TestDecimalYAML(t *testing.T) {
	var doc struct {
		Fee   Decimal `yaml:"fee"`
		Empty Decimal `yaml:"empty"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("fee: 0.0025\nempty: ''\n"), &doc))
	require.Equal(t, "0.0025", doc.Fee.String())
	require.True(t, doc.Empty.IsZero())

	err := yaml.Unmarshal([]byte("fee: abc\n"), &doc)
	require.ErrorContains(t, err, `invalid decimal "abc"`)
	err = yaml.Unmarshal([]byte("fee: [1]\n"), &doc)
	require.ErrorContains(t, err, "decimal must be a scalar")

	out, err := yaml.Marshal(Decimal{decimal.RequireFromString("1.50")})
	require.NoError(t, err)
	require.Equal(t, "\"1.50\"\n", string(out))
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)
	cfg, loaded, err := LoadOrDefault(context.Background(), filepath.Join("..", "..", "config", "app.example.yaml"))
	require.NoError(t, err)
	require.True(t, loaded)
	require.Equal(t, EnvDev, cfg.Environment)
	require.True(t, cfg.Venues.CoinbasePro.TradingFee.Equal(decimal.RequireFromString("0.25")))
	require.False(t, cfg.Telemetry.Enabled)
}
