package monclient

import "time"

// MetricKind is a metric descriptor kind.
type MetricKind string

// Metric kinds.
const (
	MetricKindGauge      MetricKind = "GAUGE"
	MetricKindCumulative MetricKind = "CUMULATIVE"
)

// ValueType is a metric value type.
type ValueType string

// Value types.
const (
	ValueTypeInt64        ValueType = "INT64"
	ValueTypeDouble       ValueType = "DOUBLE"
	ValueTypeDistribution ValueType = "DISTRIBUTION"
)

// MonitoredResource describes the entity producing telemetry.
type MonitoredResource struct {
	Type   string
	Labels map[string]string
}

// MetricDescriptor is a one-time registration of a metric type schema.
type MetricDescriptor struct {
	Type        string
	DisplayName string
	Description string
	Unit        string
	Kind        MetricKind
	ValueType   ValueType
}

// Metric identifies a time series within a metric type.
type Metric struct {
	Type   string
	Labels map[string]string
}

// TimeInterval is a point interval. StartTime is zero for gauge points.
//
// For cumulative points EndTime is strictly greater than StartTime.
type TimeInterval struct {
	StartTime time.Time
	EndTime   time.Time
}

// ExplicitBuckets describes explicit histogram bucket boundaries.
type ExplicitBuckets struct {
	Bounds []float64
}

// ExponentialBuckets describes exponentially sized histogram buckets.
type ExponentialBuckets struct {
	NumFiniteBuckets int32
	GrowthFactor     float64
	Scale            float64
}

// BucketOptions holds exactly one bucketing scheme.
type BucketOptions struct {
	Explicit    *ExplicitBuckets
	Exponential *ExponentialBuckets
}

// Distribution is a summary of a population of values.
type Distribution struct {
	Count                 int64
	Mean                  float64
	SumOfSquaredDeviation float64
	BucketOptions         BucketOptions
	BucketCounts          []int64
}

// TypedValue holds exactly one point value.
type TypedValue struct {
	Int64        *int64
	Double       *float64
	Distribution *Distribution
}

// Point is a single observed value within a time series.
type Point struct {
	Interval TimeInterval
	Value    TypedValue
}

// TimeSeries is the unit of a CreateTimeSeries call.
type TimeSeries struct {
	Metric    Metric
	Resource  MonitoredResource
	Kind      MetricKind
	ValueType ValueType
	Points    []Point
}

// TruncatableString is a string that may have been shortened to fit a
// backend field limit.
type TruncatableString struct {
	Value              string
	TruncatedByteCount int
}

// SpanStatus maps onto the backend status enum.
type SpanStatus struct {
	Code    int32
	Message string
}

// Span status codes.
const (
	StatusCodeOK    int32 = 0
	StatusCodeError int32 = 2
)

// SpanEvent is a timestamped annotation on a span.
type SpanEvent struct {
	Time        time.Time
	Description TruncatableString
	Attributes  Attributes
}

// SpanLink references a span in another trace.
type SpanLink struct {
	TraceID    string
	SpanID     string
	Attributes Attributes
}

// Attributes is a bounded set of span attributes.
type Attributes struct {
	Map     map[string]TruncatableString
	Dropped int
}

// Span is the unit of a BatchWriteSpans call.
type Span struct {
	// Name is the span resource name,
	// "projects/<project>/traces/<trace id>/spans/<span id>".
	Name          string
	SpanID        string
	ParentSpanID  string
	DisplayName   TruncatableString
	Kind          string
	StartTime     time.Time
	EndTime       time.Time
	Attributes    Attributes
	Events        []SpanEvent
	DroppedEvents int
	Links         []SpanLink
	DroppedLinks  int
	Status        *SpanStatus
}

// CreateMetricDescriptorRequest registers one metric descriptor.
type CreateMetricDescriptorRequest struct {
	// Name is the project resource name, "projects/<project>".
	Name       string
	Descriptor MetricDescriptor
}

// CreateTimeSeriesRequest writes a batch of time series.
type CreateTimeSeriesRequest struct {
	Name       string
	TimeSeries []TimeSeries
}

// BatchWriteSpansRequest writes a batch of spans.
type BatchWriteSpansRequest struct {
	Name  string
	Spans []Span
}
