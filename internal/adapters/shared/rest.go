package shared

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/coachpo/xvenue/errs"
	"github.com/coachpo/xvenue/internal/telemetry"
)

const (
	defaultRESTTimeout    = 10 * time.Second
	defaultRESTMaxRetries = 3
	defaultRESTMaxElapsed = 30 * time.Second
	maxResponseBytes      = 8 << 20
	errorBodyPreview      = 4 << 10
)

// Signer authenticates an outgoing request. It is invoked once per attempt,
// after the body has been attached, so timestamps stay fresh across retries.
type Signer interface {
	Sign(req *http.Request, body []byte) error
}

// ErrorDecoder converts a non-2xx response into an error envelope.
type ErrorDecoder func(status int, body []byte) error

// RESTConfig configures a venue REST transport.
type RESTConfig struct {
	Venue             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        uint
	MaxElapsed        time.Duration
	InitialBackoff    time.Duration
}

// RESTOption customises a RESTClient.
type RESTOption func(*RESTClient)

// WithSigner authenticates every request with s.
func WithSigner(s Signer) RESTOption {
	return func(c *RESTClient) {
		c.signer = s
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) RESTOption {
	return func(c *RESTClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithErrorDecoder overrides how non-2xx responses become errors.
func WithErrorDecoder(fn ErrorDecoder) RESTOption {
	return func(c *RESTClient) {
		if fn != nil {
			c.decodeError = fn
		}
	}
}

// RESTClient issues rate-limited, retried JSON requests against one venue.
type RESTClient struct {
	venue       string
	baseURL     string
	client      *http.Client
	limiter     *rate.Limiter
	signer      Signer
	decodeError ErrorDecoder
	maxRetries  uint
	maxElapsed  time.Duration
	initialWait time.Duration
}

// NewRESTClient creates a transport for the configured venue.
func NewRESTClient(cfg RESTConfig, opts ...RESTOption) *RESTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRESTTimeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultRESTMaxRetries
	}
	maxElapsed := cfg.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = defaultRESTMaxElapsed
	}
	client := new(http.Client)
	client.Timeout = timeout
	c := &RESTClient{
		venue:       strings.ToLower(strings.TrimSpace(cfg.Venue)),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		client:      client,
		limiter:     rate.NewLimiter(limit, burst),
		maxRetries:  maxRetries,
		maxElapsed:  maxElapsed,
		initialWait: cfg.InitialBackoff,
	}
	c.decodeError = c.defaultErrorDecoder
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Venue returns the venue name used in errors and metrics.
func (c *RESTClient) Venue() string {
	return c.venue
}

// Get issues a GET request and decodes the JSON response into out.
func (c *RESTClient) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into
// out. It is attempted once: a failure after the venue accepted the request
// must not submit it again.
func (c *RESTClient) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, false)
}

// PostIdempotent is Post with retries. body must carry a client-generated
// idempotency key so the venue can reject a replay.
func (c *RESTClient) PostIdempotent(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, true)
}

// Delete issues a DELETE request and decodes the response into out.
func (c *RESTClient) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodDelete, path, query, nil, out)
}

// Do performs a request. Idempotent methods retry network failures, 429 and
// 5xx responses with exponential backoff; POST and PATCH are sent once.
func (c *RESTClient) Do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	return c.do(ctx, method, path, query, body, out, idempotentMethod(method))
}

func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, body any, out any, retry bool) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.New(c.venue, errs.CodeInvalid, errs.WithMessage("encode request body"), errs.WithCause(err))
		}
		payload = encoded
	}

	tries := c.maxRetries
	if !retry {
		tries = 1
	}
	operation := func() ([]byte, error) {
		return c.attempt(ctx, method, path, query, payload)
	}
	policy := backoff.NewExponentialBackOff()
	if c.initialWait > 0 {
		policy.InitialInterval = c.initialWait
	}
	respBody, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(tries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("%s rest: %s %s retry in %s: %v", c.venue, method, path, wait, err)
		}),
	)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Unwrap()
		}
		return err
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errs.New(c.venue, errs.CodeExchange,
			errs.WithMessage("decode response"),
			errs.WithField("endpoint", path),
			errs.WithCause(err))
	}
	return nil
}

func (c *RESTClient) attempt(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(errs.New(c.venue, errs.CodeRateLimited, errs.WithCause(err)))
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.signer != nil {
		if err := c.signer.Sign(req, payload); err != nil {
			return nil, backoff.Permanent(errs.New(c.venue, errs.CodeAuth, errs.WithMessage("sign request"), errs.WithCause(err)))
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		telemetry.Venue().RecordRESTError(ctx, c.venue, method, path, string(errs.CodeNetwork))
		if ctx.Err() != nil {
			return nil, backoff.Permanent(errs.New(c.venue, errs.CodeNetwork, errs.WithCause(ctx.Err())))
		}
		return nil, errs.New(c.venue, errs.CodeNetwork, errs.WithField("endpoint", path), errs.WithCause(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	telemetry.Venue().RecordREST(ctx, c.venue, method, path, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, errs.New(c.venue, errs.CodeNetwork, errs.WithMessage("read response"), errs.WithCause(err))
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}
	apiErr := c.decodeError(resp.StatusCode, respBody)
	if retryableStatus(resp.StatusCode) {
		return nil, apiErr
	}
	return nil, backoff.Permanent(apiErr)
}

func (c *RESTClient) defaultErrorDecoder(status int, body []byte) error {
	preview := body
	if len(preview) > errorBodyPreview {
		preview = preview[:errorBodyPreview]
	}
	return errs.New(c.venue, CodeForStatus(status),
		errs.WithHTTP(status),
		errs.WithRawMessage(strings.TrimSpace(string(preview))))
}

// CodeForStatus maps an HTTP status to an error code.
func CodeForStatus(status int) errs.Code {
	switch {
	case status == http.StatusTooManyRequests:
		return errs.CodeRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errs.CodeAuth
	case status == http.StatusNotFound:
		return errs.CodeNotFound
	case status >= 500:
		return errs.CodeUnavailable
	case status >= 400:
		return errs.CodeInvalid
	default:
		return errs.CodeExchange
	}
}

func idempotentMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// IsRetryable reports whether err came from a failure the transport retries.
func IsRetryable(err error) bool {
	var e *errs.E
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == errs.CodeNetwork || e.Code == errs.CodeRateLimited || e.Code == errs.CodeUnavailable
}
