// Package config loads the xvenue client configuration with precedence
// defaults, then YAML, then environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/coachpo/xvenue/internal/adapters/coinbasepro"
	"github.com/coachpo/xvenue/internal/adapters/huobi"
	"github.com/coachpo/xvenue/internal/adapters/shared"
	"github.com/coachpo/xvenue/internal/precision"
	"github.com/coachpo/xvenue/internal/telemetry"
)

// DefaultPath is read when neither a path nor XVENUE_CONFIG is given.
const DefaultPath = "config/app.yaml"

// AppConfig is the complete client configuration.
type AppConfig struct {
	Environment Environment      `yaml:"environment"`
	Venues      VenuesConfig     `yaml:"venues"`
	Telemetry   telemetry.Config `yaml:"telemetry"`
}

// VenuesConfig holds one section per supported venue.
type VenuesConfig struct {
	CoinbasePro VenueConfig `yaml:"coinbasepro"`
	Huobi       VenueConfig `yaml:"huobi"`
}

// Credentials are the API keys of one venue. Passphrase is Coinbase Pro only.
type Credentials struct {
	APIKey     string `yaml:"apiKey"`
	APISecret  string `yaml:"apiSecret"`
	Passphrase string `yaml:"passphrase"`
}

// Configured reports whether a key and secret are present.
func (c Credentials) Configured() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// VenueConfig configures the REST transport and adapter of one venue.
type VenueConfig struct {
	BaseURL           string        `yaml:"baseURL"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	MaxRetries        uint          `yaml:"maxRetries"`
	MaxElapsed        time.Duration `yaml:"maxElapsed"`
	Credentials       Credentials   `yaml:"credentials"`
	// PrecisionFile replaces the built-in precision table when set.
	PrecisionFile string `yaml:"precisionFile"`
	// TradingFee is a percentage; zero selects the adapter default.
	TradingFee Decimal `yaml:"tradingFee"`
}

// REST converts the section into a transport configuration.
func (v VenueConfig) REST() shared.RESTConfig {
	return shared.RESTConfig{
		BaseURL:           v.BaseURL,
		Timeout:           v.Timeout,
		RequestsPerSecond: v.RequestsPerSecond,
		Burst:             v.Burst,
		MaxRetries:        v.MaxRetries,
		MaxElapsed:        v.MaxElapsed,
	}
}

// Precision loads PrecisionFile. It returns nil when no file is configured.
func (v VenueConfig) Precision() (*precision.Table, error) {
	path := strings.TrimSpace(v.PrecisionFile)
	if path == "" {
		return nil, nil
	}
	return precision.LoadFile(path)
}

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		Environment: EnvProd,
		Venues: VenuesConfig{
			CoinbasePro: VenueConfig{
				BaseURL:           coinbasepro.DefaultBaseURL,
				Timeout:           10 * time.Second,
				RequestsPerSecond: 3,
				Burst:             6,
				MaxRetries:        3,
				MaxElapsed:        30 * time.Second,
			},
			Huobi: VenueConfig{
				BaseURL:           huobi.DefaultBaseURL,
				Timeout:           10 * time.Second,
				RequestsPerSecond: 10,
				Burst:             10,
				MaxRetries:        3,
				MaxElapsed:        30 * time.Second,
			},
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Venue returns the section for name.
func (c AppConfig) Venue(name Venue) (VenueConfig, bool) {
	switch Venue(normalizeVenueName(string(name))) {
	case VenueCoinbasePro:
		return c.Venues.CoinbasePro, true
	case VenueHuobi:
		return c.Venues.Huobi, true
	default:
		return VenueConfig{}, false
	}
}

// Load reads the configuration at path. A missing file is an error.
func Load(ctx context.Context, path string) (AppConfig, error) {
	cfg, loaded, err := LoadOrDefault(ctx, path)
	if err != nil {
		return AppConfig{}, err
	}
	if !loaded {
		return AppConfig{}, fmt.Errorf("open app config %s: %w", resolvePath(path), os.ErrNotExist)
	}
	return cfg, nil
}

// LoadOrDefault reads the configuration at path, falling back to defaults
// when the file does not exist. The boolean reports whether a file was read.
func LoadOrDefault(ctx context.Context, path string) (AppConfig, bool, error) {
	cfg := Default()

	loaded := true
	if err := cfg.loadYAML(ctx, resolvePath(path)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return AppConfig{}, false, fmt.Errorf("load yaml config: %w", err)
		}
		loaded = false
	}

	cfg.loadEnv()
	cfg.normalise()

	if err := cfg.Validate(ctx); err != nil {
		return AppConfig{}, false, fmt.Errorf("validate config: %w", err)
	}
	return cfg, loaded, nil
}

func resolvePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("XVENUE_CONFIG"))
	}
	if path == "" {
		path = DefaultPath
	}
	return filepath.Clean(path)
}

// loadYAML decodes the file over the current values, so keys absent from
// the document keep their defaults.
func (c *AppConfig) loadYAML(ctx context.Context, path string) error {
	_ = ctx
	reader, closer, err := openConfigFile(path)
	if err != nil {
		return err
	}
	defer closer()

	dec := yaml.NewDecoder(reader)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

func openConfigFile(path string) (io.Reader, func(), error) {
	file, err := os.Open(path) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}

// loadEnv applies environment overrides. Credentials are usually supplied
// this way rather than written into the file.
func (c *AppConfig) loadEnv() {
	if env := strings.TrimSpace(os.Getenv("XVENUE_ENV")); env != "" {
		c.Environment = Environment(env)
	}
	applyCredentialEnv(&c.Venues.CoinbasePro.Credentials, "XVENUE_COINBASEPRO")
	applyCredentialEnv(&c.Venues.Huobi.Credentials, "XVENUE_HUOBI")

	if v := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")); v != "" {
		c.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); v != "" {
		c.Telemetry.ServiceName = v
	}
}

func applyCredentialEnv(creds *Credentials, prefix string) {
	if v := strings.TrimSpace(os.Getenv(prefix + "_API_KEY")); v != "" {
		creds.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(prefix + "_API_SECRET")); v != "" {
		creds.APISecret = v
	}
	if v := strings.TrimSpace(os.Getenv(prefix + "_PASSPHRASE")); v != "" {
		creds.Passphrase = v
	}
}

func (c *AppConfig) normalise() {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	for _, v := range []*VenueConfig{&c.Venues.CoinbasePro, &c.Venues.Huobi} {
		v.BaseURL = strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
		v.PrecisionFile = strings.TrimSpace(v.PrecisionFile)
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = string(c.Environment)
	}
}

// Validate reports every problem found, joined into one error.
func (c *AppConfig) Validate(ctx context.Context) error {
	_ = ctx
	var problems []error
	if !c.Environment.valid() {
		problems = append(problems, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	problems = append(problems, c.Venues.CoinbasePro.validate(string(VenueCoinbasePro))...)
	problems = append(problems, c.Venues.Huobi.validate(string(VenueHuobi))...)

	if c.Telemetry.Enabled {
		if strings.TrimSpace(c.Telemetry.OTLPEndpoint) == "" {
			problems = append(problems, errors.New("telemetry.otlpEndpoint required when telemetry is enabled"))
		}
		if c.Telemetry.MetricInterval <= 0 {
			problems = append(problems, errors.New("telemetry.metricInterval must be >0"))
		}
	}
	return errors.Join(problems...)
}

var hundred = decimal.NewFromInt(100)

func (v VenueConfig) validate(name string) []error {
	var problems []error
	if u, err := url.Parse(v.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Errorf("venues.%s.baseURL %q must be an absolute http(s) URL", name, v.BaseURL))
	}
	if v.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("venues.%s.timeout must be >0", name))
	}
	if v.RequestsPerSecond < 0 {
		problems = append(problems, fmt.Errorf("venues.%s.requestsPerSecond must be >=0", name))
	}
	if v.Burst < 0 {
		problems = append(problems, fmt.Errorf("venues.%s.burst must be >=0", name))
	}
	if v.MaxElapsed < 0 {
		problems = append(problems, fmt.Errorf("venues.%s.maxElapsed must be >=0", name))
	}
	if v.TradingFee.IsNegative() || v.TradingFee.GreaterThan(hundred) {
		problems = append(problems, fmt.Errorf("venues.%s.tradingFee %s must be within [0, 100]", name, v.TradingFee))
	}
	if (v.Credentials.APIKey == "") != (v.Credentials.APISecret == "") {
		problems = append(problems, fmt.Errorf("venues.%s.credentials need both apiKey and apiSecret", name))
	}
	return problems
}

// CoinbaseOptions assembles client options from the coinbasepro section.
func (c AppConfig) CoinbaseOptions() (coinbasepro.Options, error) {
	v := c.Venues.CoinbasePro
	table, err := v.Precision()
	if err != nil {
		return coinbasepro.Options{}, fmt.Errorf("coinbasepro precision: %w", err)
	}
	return coinbasepro.Options{
		REST: v.REST(),
		Credentials: coinbasepro.Credentials{
			APIKey:     v.Credentials.APIKey,
			Secret:     v.Credentials.APISecret,
			Passphrase: v.Credentials.Passphrase,
		},
		Precision:  table,
		TradingFee: v.TradingFee.Decimal,
	}, nil
}

// HuobiOptions assembles client options from the huobi section.
func (c AppConfig) HuobiOptions() (huobi.Options, error) {
	v := c.Venues.Huobi
	table, err := v.Precision()
	if err != nil {
		return huobi.Options{}, fmt.Errorf("huobi precision: %w", err)
	}
	return huobi.Options{
		REST: v.REST(),
		Credentials: huobi.Credentials{
			APIKey: v.Credentials.APIKey,
			Secret: v.Credentials.APISecret,
		},
		Precision: table,
	}, nil
}
