// Package upstream is the read-only client of the fleet/workforce REST
// backend. Every response is validated against a JSON Schema before it is
// decoded, so callers only ever see well-formed records.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/eagle-green/mysked/internal/telemetry"
)

// maxBodySize bounds every response body read from the backend.
const maxBodySize = 32 << 20

// Endpoint names, used for cache keys, spans and metrics.
const (
	EndpointHistory      = "history"
	EndpointTransactions = "transactions"
	EndpointMissing      = "timesheets_missing"
	EndpointStatusCounts = "timesheets_status_counts"
	EndpointAsset        = "asset"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	// HTTPClient overrides the default instrumented client; Timeout is
	// ignored when set.
	HTTPClient *http.Client
}

// Client fetches history, transactions and timesheet records.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New returns a client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	meter := otel.Meter(telemetry.InstrumentationName)
	requests, err := meter.Int64Counter("mysked.upstream.requests",
		metric.WithDescription("Upstream requests by endpoint and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}
	duration, err := meter.Float64Histogram("mysked.upstream.duration",
		metric.WithDescription("Upstream request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		limiter:  rate.NewLimiter(limit, burst),
		tracer:   otel.Tracer(telemetry.InstrumentationName),
		requests: requests,
		duration: duration,
	}, nil
}

type tokenKey struct{}

// WithToken returns a context whose upstream requests carry token as a
// bearer credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// get issues a GET against the backend and returns the raw body of a 2xx
// response.
func (c *Client) get(ctx context.Context, endpoint, p string, query url.Values) ([]byte, error) {
	target := c.baseURL + p
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return c.do(ctx, c.http, endpoint, target, true)
}

func (c *Client) do(ctx context.Context, hc *http.Client, endpoint, target string, withToken bool) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "upstream "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", http.MethodGet),
			attribute.String("url.full", target),
		),
	)
	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		attrs := metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("outcome", outcome),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		outcome = "rate_limited"
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if token := TokenFrom(ctx); withToken && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("requesting %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		outcome = "error"
		return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "status"
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func entityPath(entity, id, suffix string) string {
	return "/" + url.PathEscape(entity) + "/" + url.PathEscape(id) + suffix
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))
	return q
}
