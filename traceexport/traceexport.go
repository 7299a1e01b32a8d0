// Package traceexport ships OpenTelemetry trace spans to the monitoring
// backend in limit-compliant batches.
package traceexport

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/go-faster/cloudmon/identity"
	"github.com/go-faster/cloudmon/internal/sendbatch"
	"github.com/go-faster/cloudmon/monclient"
)

// Options is [NewExporter] options.
type Options struct {
	// Projects resolves the backend project id. Defaults to [identity.Env].
	Projects identity.Provider
	// MaxSpansPerRequest caps one BatchWriteSpans call. Defaults to
	// [monclient.DefaultMaxSpansPerRequest].
	MaxSpansPerRequest int
	// Logger provides logger for this exporter.
	Logger *zap.Logger
	// MeterProvider provides OpenTelemetry meter for this exporter.
	MeterProvider metric.MeterProvider
	// TracerProvider provides OpenTelemetry tracer for this exporter.
	TracerProvider trace.TracerProvider
}

func (opts *Options) setDefaults() {
	if opts.Projects == nil {
		opts.Projects = identity.Env()
	}
	if opts.MaxSpansPerRequest == 0 {
		opts.MaxSpansPerRequest = monclient.DefaultMaxSpansPerRequest
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = otel.GetMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
}

// Exporter converts spans and writes them to the backend.
type Exporter struct {
	client   monclient.Client
	projects *identity.Resolver
	limit    int

	lg     *zap.Logger
	tracer trace.Tracer
	stats  struct {
		spans        metric.Int64Counter
		droppedSpans metric.Int64Counter
	}
}

// NewExporter creates a new Exporter writing to the given client.
func NewExporter(client monclient.Client, opts Options) (*Exporter, error) {
	opts.setDefaults()

	e := &Exporter{
		client:   client,
		projects: identity.NewResolver(opts.Projects),
		limit:    opts.MaxSpansPerRequest,
		lg:       opts.Logger,
		tracer:   opts.TracerProvider.Tracer("traceexport.Exporter"),
	}

	meter := opts.MeterProvider.Meter("traceexport.Exporter")
	var err error
	if e.stats.spans, err = meter.Int64Counter("cloudmon.exported_spans",
		metric.WithDescription("Spans written to the backend"),
	); err != nil {
		return nil, errors.Wrap(err, "create exported_spans metric")
	}
	if e.stats.droppedSpans, err = meter.Int64Counter("cloudmon.dropped_spans",
		metric.WithDescription("Spans dropped due to conversion failures"),
	); err != nil {
		return nil, errors.Wrap(err, "create dropped_spans metric")
	}
	return e, nil
}

// ConsumeTraces exports given traces.
//
// Malformed spans are logged and dropped. A failed project resolution or
// any failed span batch fails the whole export; batches already written
// are not rolled back.
func (e *Exporter) ConsumeTraces(ctx context.Context, traces ptrace.Traces) (rerr error) {
	ctx, span := e.tracer.Start(ctx, "traceexport.ConsumeTraces", trace.WithAttributes(
		attribute.Int("cloudmon.spans_count", traces.SpanCount()),
	))
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
		}
		span.End()
	}()

	project, err := e.projects.ResolveProject(ctx)
	if err != nil {
		return errors.Wrap(err, "resolve project")
	}
	parent := "projects/" + project

	var spans []monclient.Span
	resSpans := traces.ResourceSpans()
	for i := 0; i < resSpans.Len(); i++ {
		batchID := uuid.New()
		resSpan := resSpans.At(i)
		res := resSpan.Resource()

		scopeSpans := resSpan.ScopeSpans()
		for j := 0; j < scopeSpans.Len(); j++ {
			scopeSpan := scopeSpans.At(j)
			scope := scopeSpan.Scope()

			records := scopeSpan.Spans()
			for k := 0; k < records.Len(); k++ {
				record := records.At(k)
				converted, err := convertSpan(parent, res, scope, record)
				if err != nil {
					e.lg.Warn("Dropping span",
						zap.String("span", record.Name()),
						zap.Stringer("batch_id", batchID),
						zap.Error(err),
					)
					e.stats.droppedSpans.Add(ctx, 1)
					continue
				}
				spans = append(spans, converted)
			}
		}
	}

	if err := sendbatch.Send(ctx, spans, e.limit, func(ctx context.Context, chunk []monclient.Span) error {
		return e.client.BatchWriteSpans(ctx, &monclient.BatchWriteSpansRequest{
			Name:  parent,
			Spans: chunk,
		})
	}); err != nil {
		return errors.Wrap(err, "write spans")
	}
	e.stats.spans.Add(ctx, int64(len(spans)))
	return nil
}

// Shutdown flushes the exporter. There is no background work to wait for,
// so it never fails.
func (e *Exporter) Shutdown(context.Context) error {
	return nil
}
