// Package upstream wraps calls to the user service, the cart service and the
// payment gateway behind a single request/outcome shape.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-service/logging"
	"payment-service/monitoring"
)

// ErrTransport marks failures where no HTTP response was obtained.
var ErrTransport = errors.New("upstream transport failure")

// Outcome is the result of every remote call. A reachable collaborator yields
// Success=true whatever the status code; interpreting the code is up to the caller.
type Outcome struct {
	Success     bool
	StatusCode  int
	ErrorDetail string
	Err         error
}

// OK reports whether the collaborator answered 200.
func (o Outcome) OK() bool {
	return o.Success && o.StatusCode == http.StatusOK
}

// Client performs synchronous calls with no retries. A zero timeout leaves
// the transport default in place.
type Client struct {
	httpClient *http.Client
}

// NewClient creates an instrumented client
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// Call sends body, if any, as JSON and returns the outcome. The response body
// is drained and discarded.
func (c *Client) Call(ctx context.Context, service, method, url string, body any) Outcome {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failed(fmt.Errorf("encode %s request: %w", service, err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return failed(fmt.Errorf("build %s request: %w", service, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span := trace.SpanFromContext(ctx)
	logger := logging.WithTraceContext(span).With(
		zap.String("upstream", service),
		zap.String("method", method),
		zap.String("url", url),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		record(ctx, service, "error", duration)
		span.AddEvent("upstream_call", trace.WithAttributes(
			attribute.String("upstream.service", service),
			attribute.String("upstream.status", "error"),
		))
		logger.Error("Upstream call failed", zap.Error(err))
		return Outcome{
			Success:     false,
			ErrorDetail: err.Error(),
			Err:         fmt.Errorf("%w: %w", ErrTransport, err),
		}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	record(ctx, service, strconv.Itoa(resp.StatusCode), duration)
	span.AddEvent("upstream_call", trace.WithAttributes(
		attribute.String("upstream.service", service),
		attribute.Int("upstream.status_code", resp.StatusCode),
	))
	logger.Info("Upstream call returned", zap.Int("status_code", resp.StatusCode))

	return Outcome{Success: true, StatusCode: resp.StatusCode}
}

func failed(err error) Outcome {
	return Outcome{Success: false, ErrorDetail: err.Error(), Err: err}
}

func record(ctx context.Context, service, status string, seconds float64) {
	monitoring.UpstreamCallDuration.Record(ctx, seconds,
		metric.WithAttributes(
			attribute.String("service", service),
			attribute.String("status", status),
		),
	)
}
