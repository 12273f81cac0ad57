// Package httpclient is the instrumented JSON client shared by the REST quote providers.
// Every call is rate limited, traced through otelhttp and counted per provider and endpoint.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/swap-router/internal/ratelimit"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	maxTracedBody = 4096

	metricRequests = "provider_http_requests_total"
	metricLatency  = "provider_http_request_duration_ms"
)

// ErrorMapper turns a provider response into a domain error; nil accepts the response.
type ErrorMapper func(status int, body []byte) error

// StatusError is returned for error statuses the mapper did not claim.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Status, e.Body)
}

// Config configures a Client.
type Config struct {
	Provider string // span and metric attribute
	BaseURL  string
	Timeout  time.Duration
	Headers  map[string]string
	Limiter  *ratelimit.Limiter
	// TraceBodies attaches (truncated) response bodies to spans.
	TraceBodies bool
	Transport   http.RoundTripper
	Tracer      trace.Tracer
}

// Client calls one provider's REST API.
type Client struct {
	cfg      Config
	http     *http.Client
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates a client for cfg.Provider.
func New(cfg Config) (*Client, error) {
	if cfg.Provider == "" {
		cfg.Provider = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("httpclient")
	}

	meter := otel.Meter("httpclient")
	requests, err := meter.Int64Counter(
		metricRequests,
		metric.WithDescription("Requests sent to provider APIs"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		metricLatency,
		metric.WithDescription("Provider API latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(transport,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		tracer:   tracer,
		requests: requests,
		latency:  latency,
	}, nil
}

// GetJSON requests path with query and decodes a successful body into out.
// mapErr sees every response first; error statuses it does not claim become *StatusError.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any, mapErr ErrorMapper) error {
	ctx, span := c.tracer.Start(ctx, "http.get",
		trace.WithAttributes(
			attribute.String("provider", c.cfg.Provider),
			attribute.String("endpoint", path),
		),
	)
	defer span.End()

	start := time.Now()
	err := c.get(ctx, span, path, query, out, mapErr)

	attrs := metric.WithAttributes(
		attribute.String("provider", c.cfg.Provider),
		attribute.String("endpoint", path),
		attribute.Bool("success", err == nil),
	)
	c.requests.Add(ctx, 1, attrs)
	c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			span.SetAttributes(attribute.Bool("request.timeout", true))
		}
	}
	return err
}

func (c *Client) get(ctx context.Context, span trace.Span, path string, query url.Values, out any, mapErr ErrorMapper) error {
	if c.cfg.Limiter != nil {
		if err := c.cfg.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	target := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.cfg.TraceBodies {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", truncate(body)),
		))
	}

	if mapErr != nil {
		if err := mapErr(resp.StatusCode, body); err != nil {
			return err
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &StatusError{Provider: c.cfg.Provider, Status: resp.StatusCode, Body: truncate(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > maxTracedBody {
		return string(body[:maxTracedBody]) + "..."
	}
	return string(body)
}
