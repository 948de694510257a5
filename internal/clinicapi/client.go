// Package clinicapi is the typed HTTP gateway to the clinic REST backend.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
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
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-console/internal/observability/metrics"
	"github.com/wolfman30/clinic-console/pkg/logging"
)

var gatewayTracer = otel.Tracer("clinic-console.internal.clinicapi")

const maxErrorBody = 300

// Client is the typed gateway to the clinic REST API. It issues exactly one
// HTTP request per call: no retries, no batching.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.GatewayMetrics
}

// Config holds configuration for the gateway client
type Config struct {
	BaseURL string // e.g. "http://localhost:8000"
	// Timeout of zero keeps the transport default (no client timeout).
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.GatewayMetrics
}

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("%w: BaseURL: %v", ErrInvalidConfig, err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger.Component("clinicapi"),
		metrics:    cfg.Metrics,
	}, nil
}

// call describes one request.
type call struct {
	resource string
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	// echo marks writes whose 2xx body may echo the record. Any other
	// shape is ignored; the write already succeeded.
	echo bool
}

func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, span := gatewayTracer.Start(ctx, "clinicapi."+cl.resource+"."+cl.op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.resource", cl.resource),
		attribute.String("http.request.method", cl.method),
		attribute.String("url.path", cl.path),
	)

	start := time.Now()
	outcome := "ok"
	defer func() {
		elapsed := time.Since(start)
		c.metrics.ObserveRequest(cl.resource, cl.op, outcome, elapsed.Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Warn("clinic api call failed",
				"resource", cl.resource, "op", cl.op, "method", cl.method, "path", cl.path,
				"duration_ms", elapsed.Milliseconds(), "error", err)
			return
		}
		c.logger.Debug("clinic api call completed",
			"resource", cl.resource, "op", cl.op, "method", cl.method, "path", cl.path,
			"duration_ms", elapsed.Milliseconds())
	}()

	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, mErr := json.Marshal(cl.body)
		if mErr != nil {
			outcome = "network_error"
			return &NetworkError{Resource: cl.resource, Op: cl.op, Err: fmt.Errorf("marshal request: %w", mErr)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		outcome = "network_error"
		return &NetworkError{Resource: cl.resource, Op: cl.op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "network_error"
		return &NetworkError{Resource: cl.resource, Op: cl.op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "network_error"
		return &NetworkError{Resource: cl.resource, Op: cl.op, Err: fmt.Errorf("read response: %w", err)}
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "request_error"
		return &RequestError{
			Resource: cl.resource,
			Op:       cl.op,
			Status:   resp.StatusCode,
			Message:  serverMessage(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		if cl.echo {
			c.logger.Debug("write response not decoded",
				"resource", cl.resource, "op", cl.op, "status", resp.StatusCode, "error", err)
			return nil
		}
		outcome = "request_error"
		return &RequestError{
			Resource: cl.resource,
			Op:       cl.op,
			Status:   resp.StatusCode,
			Message:  "",
		}
	}
	return nil
}

// serverMessage extracts the human message from an error body: the JSON
// "message", "error" or "detail" field, else the raw text (truncated).
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var env struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if s, ok := env.Error.(string); ok && s != "" {
			return s
		}
		if env.Detail != "" {
			return env.Detail
		}
		return ""
	}
	if body[0] == '<' {
		// HTML error pages are not useful to the operator.
		return ""
	}
	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
