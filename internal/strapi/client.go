package strapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avcmsgw/internal/config"
	"github.com/vyrodovalexey/avcmsgw/internal/observability"
	"github.com/vyrodovalexey/avcmsgw/internal/util"
)

// strapiTracerName is the OTEL tracer name for CMS client spans.
const strapiTracerName = "cmsgw/strapi"

const (
	contentTypeJSON = "application/json"

	// defaultMaxResponseBytes caps upstream response bodies when the
	// configuration does not.
	defaultMaxResponseBytes = 16 << 20

	// errorBodySample bounds the body excerpt preserved on upstream errors.
	errorBodySample = 2 << 10

	// breakerName labels the upstream circuit breaker in logs and metrics.
	breakerName = "cms"
)

// Client talks to the CMS REST API. It is safe for concurrent use.
type Client struct {
	baseURL          string
	token            string
	httpClient       *http.Client
	maxResponseBytes int64
	breaker          *gobreaker.CircuitBreaker
	logger           observability.Logger
	metrics          *observability.Metrics
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Timeouts, proxying,
// and transport-level retries are the injected client's responsibility.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken overrides the configured bearer token, typically with a value
// resolved through the secrets provider at startup.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.token = token
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables upstream request metrics and the circuit breaker
// state gauge.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a CMS client from configuration.
func New(cfg *config.CMSConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, util.NewConfigError("cms", "configuration is required")
	}
	if cfg.BaseURL == "" {
		return nil, util.NewConfigError("cms.baseURL", "base URL is required")
	}
	if err := util.ValidateURL(cfg.BaseURL); err != nil {
		return nil, util.NewConfigErrorWithCause("cms.baseURL", "invalid base URL", err)
	}

	c := &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		token:            cfg.Token,
		maxResponseBytes: cfg.MaxResponseBytes,
		httpClient:       &http.Client{Timeout: cfg.Timeout.Duration()},
		logger:           observability.NopLogger(),
	}
	if c.maxResponseBytes <= 0 {
		c.maxResponseBytes = defaultMaxResponseBytes
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.CircuitBreaker.Enabled {
		c.breaker = newBreaker(&cfg.CircuitBreaker, c.logger, c.metrics)
	}

	return c, nil
}

// newBreaker builds the upstream circuit breaker. Transport failures and
// 5xx responses count against the breaker; 4xx responses do not.
func newBreaker(
	cfg *config.CircuitBreakerConfig,
	logger observability.Logger,
	metrics *observability.Metrics,
) *gobreaker.CircuitBreaker {
	threshold := safeIntToUint32(cfg.FailureThreshold)

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: safeIntToUint32(cfg.MaxRequests),
		Interval:    cfg.Interval.Duration(),
		Timeout:     cfg.Timeout.Duration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ue *util.UpstreamError
			if errors.As(err, &ue) {
				return ue.StatusCode < http.StatusInternalServerError
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("cms circuit breaker state change",
				observability.String("name", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
			if metrics != nil {
				metrics.SetCircuitBreakerState(name, int(to))
			}
		},
	})
}

func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// resourcePath returns the escaped path segment for a collection.
func resourcePath(resource string) string {
	return url.PathEscape(resource)
}

// recordPath returns the escaped path for a single record.
func recordPath(resource string, id interface{}) string {
	return resourcePath(resource) + "/" + url.PathEscape(formatValue(id))
}

// send performs one exchange with the CMS and decodes the response
// envelope. The operation name flows into spans, errors, and metrics.
func (c *Client) send(
	ctx context.Context,
	operation, method, path string,
	query url.Values,
	body []byte,
	contentType string,
) (*envelope, error) {
	rawURL := c.baseURL + "/" + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	ctx, span := otel.Tracer(strapiTracerName).Start(ctx, "cms."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", rawURL),
		),
	)
	defer span.End()

	start := time.Now()
	status, raw, err := c.roundTrip(ctx, operation, method, rawURL, body, contentType)
	duration := time.Since(start)

	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if c.metrics != nil {
			c.metrics.RecordUpstreamRequest(method, status, duration)
		}
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		c.logger.Debug("cms request failed",
			observability.String("operation", operation),
			observability.String("method", method),
			observability.String("path", path),
			observability.Int("status", status),
			observability.Duration("duration", duration),
			observability.Error(err),
		)
		return nil, err
	}

	c.logger.Debug("cms request",
		observability.String("operation", operation),
		observability.String("method", method),
		observability.String("path", path),
		observability.Int("status", status),
		observability.Duration("duration", duration),
	)

	return decodeEnvelope(operation, raw)
}

// roundTrip performs the HTTP exchange, optionally through the circuit
// breaker, and returns the status and the size-capped response body.
func (c *Client) roundTrip(
	ctx context.Context,
	operation, method, rawURL string,
	body []byte,
	contentType string,
) (int, []byte, error) {
	if c.breaker == nil {
		return c.exchange(ctx, operation, method, rawURL, body, contentType)
	}

	type exchangeResult struct {
		status int
		body   []byte
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		status, raw, err := c.exchange(ctx, operation, method, rawURL, body, contentType)
		return exchangeResult{status: status, body: raw}, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return 0, nil, fmt.Errorf("%s: %w", operation, util.ErrCircuitOpen)
		}
		if res, ok := out.(exchangeResult); ok {
			return res.status, nil, err
		}
		return 0, nil, err
	}

	res := out.(exchangeResult)
	return res.status, res.body, nil
}

// exchange is the raw request/response cycle: build the request, attach
// auth and trace headers, check the status, read the bounded body.
func (c *Client) exchange(
	ctx context.Context,
	operation, method, rawURL string,
	body []byte,
	contentType string,
) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", operation, err)
	}

	req.Header.Set("Accept", contentTypeJSON)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	observability.InjectTraceContext(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := c.readBody(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &util.ResponseError{
			Operation: operation,
			Message:   err.Error(),
			Cause:     err,
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp.StatusCode, nil, util.NewUpstreamError(operation, resp.StatusCode, bodySample(raw))
	}

	return resp.StatusCode, raw, nil
}

// readBody reads a response body up to the configured cap and rejects
// anything larger.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, c.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(raw)) > c.maxResponseBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.maxResponseBytes)
	}
	return raw, nil
}

func bodySample(raw []byte) string {
	if len(raw) > errorBodySample {
		raw = raw[:errorBodySample]
	}
	return string(raw)
}
