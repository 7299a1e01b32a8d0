package monclient

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// DefaultEndpoint is the production backend endpoint.
const DefaultEndpoint = "https://monitoring.cloudmon.dev"

// HTTPClientOptions is [NewHTTPClient] options.
type HTTPClientOptions struct {
	// Endpoint overrides the backend endpoint. Defaults to [DefaultEndpoint].
	Endpoint string
	// TokenSource provides request credentials. Optional.
	TokenSource oauth2.TokenSource
	// Transport is the base HTTP transport. Defaults to [http.DefaultTransport].
	Transport http.RoundTripper
	// MeterProvider provides OpenTelemetry meter for the transport.
	MeterProvider metric.MeterProvider
	// TracerProvider provides OpenTelemetry tracer for the transport.
	TracerProvider trace.TracerProvider
	// Logger provides logger for the client.
	Logger *zap.Logger
}

func (opts *HTTPClientOptions) setDefaults() {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over the backend HTTP API.
//
// The underlying connection pool is long-lived: create the client once and
// share it between exporters.
type HTTPClient struct {
	endpoint string
	http     *http.Client
	lg       *zap.Logger
}

// NewHTTPClient creates a new HTTPClient.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	opts.setDefaults()

	transport := otelhttp.NewTransport(opts.Transport,
		otelhttp.WithMeterProvider(opts.MeterProvider),
		otelhttp.WithTracerProvider(opts.TracerProvider),
	)
	var rt http.RoundTripper = transport
	if opts.TokenSource != nil {
		rt = &oauth2.Transport{
			Source: opts.TokenSource,
			Base:   transport,
		}
	}
	return &HTTPClient{
		endpoint: opts.Endpoint,
		http:     &http.Client{Transport: rt},
		lg:       opts.Logger,
	}
}

type encoder interface {
	Encode(e *jx.Encoder)
}

func (c *HTTPClient) do(ctx context.Context, path string, req encoder) error {
	e := &jx.Encoder{}
	req.Encode(e)

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(e.Bytes()))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	hreq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		apiErr := parseError(resp.StatusCode, body)
		c.lg.Debug("Backend call failed",
			zap.String("path", path),
			zap.Int("http_code", apiErr.HTTPCode),
			zap.String("status", apiErr.Status),
		)
		return apiErr
	}
	// Drain so that the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateMetricDescriptor implements Client.
func (c *HTTPClient) CreateMetricDescriptor(ctx context.Context, req *CreateMetricDescriptorRequest) error {
	return c.do(ctx, "/v3/"+req.Name+"/metricDescriptors", req)
}

// CreateTimeSeries implements Client.
func (c *HTTPClient) CreateTimeSeries(ctx context.Context, req *CreateTimeSeriesRequest) error {
	return c.do(ctx, "/v3/"+req.Name+"/timeSeries", req)
}

// BatchWriteSpans implements Client.
func (c *HTTPClient) BatchWriteSpans(ctx context.Context, req *BatchWriteSpansRequest) error {
	return c.do(ctx, "/v2/"+req.Name+"/traces:batchWrite", req)
}
