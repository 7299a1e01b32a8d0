// Package monclient defines the monitoring backend API surface used by the
// exporters: request types, per-request limits and a reference HTTP client.
package monclient

import "context"

// Per-request ceilings imposed by the backend.
const (
	// DefaultMaxTimeSeriesPerRequest is the maximum number of time series
	// accepted by a single CreateTimeSeries call.
	DefaultMaxTimeSeriesPerRequest = 200
	// DefaultMaxSpansPerRequest is the maximum number of spans accepted by
	// a single BatchWriteSpans call.
	DefaultMaxSpansPerRequest = 250
)

// Client writes telemetry to the monitoring backend.
//
// Implementations must be safe for concurrent use: exporters share one
// long-lived client across export calls.
type Client interface {
	// CreateMetricDescriptor registers a metric type. Required once per
	// type before time series may be written under it.
	CreateMetricDescriptor(ctx context.Context, req *CreateMetricDescriptorRequest) error
	// CreateTimeSeries writes a batch of time series.
	CreateTimeSeries(ctx context.Context, req *CreateTimeSeriesRequest) error
	// BatchWriteSpans writes a batch of spans.
	BatchWriteSpans(ctx context.Context, req *BatchWriteSpansRequest) error
}
