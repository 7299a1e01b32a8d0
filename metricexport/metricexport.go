// Package metricexport ships OpenTelemetry metrics to the monitoring
// backend: converts records into time series requests, registers metric
// descriptors once per process and writes limit-compliant batches.
package metricexport

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/go-faster/cloudmon/identity"
	"github.com/go-faster/cloudmon/internal/otelmap"
	"github.com/go-faster/cloudmon/internal/sendbatch"
	"github.com/go-faster/cloudmon/monclient"
)

// DefaultPrefix is the default metric type prefix.
const DefaultPrefix = "custom.cloudmon.dev"

// Options is [NewExporter] options.
type Options struct {
	// Projects resolves the backend project id. Defaults to [identity.Env].
	Projects identity.Provider
	// Prefix is the metric type prefix. Defaults to [DefaultPrefix].
	Prefix string
	// MaxTimeSeriesPerRequest caps one CreateTimeSeries call. Defaults to
	// [monclient.DefaultMaxTimeSeriesPerRequest].
	MaxTimeSeriesPerRequest int
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
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.MaxTimeSeriesPerRequest == 0 {
		opts.MaxTimeSeriesPerRequest = monclient.DefaultMaxTimeSeriesPerRequest
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

// Exporter converts metrics and writes them to the backend.
//
// Safe for concurrent use: the descriptor registry and the memoized
// project id are the only state shared between export calls.
type Exporter struct {
	client   monclient.Client
	projects *identity.Resolver
	mapper   mapper
	reg      *registry
	limit    int

	lg     *zap.Logger
	tracer trace.Tracer
	stats  struct {
		series              metric.Int64Counter
		droppedRecords      metric.Int64Counter
		registrations       metric.Int64Counter
		failedRegistrations metric.Int64Counter
	}
}

// NewExporter creates a new Exporter writing to the given client.
func NewExporter(client monclient.Client, opts Options) (*Exporter, error) {
	opts.setDefaults()

	e := &Exporter{
		client:   client,
		projects: identity.NewResolver(opts.Projects),
		mapper:   mapper{prefix: opts.Prefix},
		reg:      newRegistry(),
		limit:    opts.MaxTimeSeriesPerRequest,
		lg:       opts.Logger,
		tracer:   opts.TracerProvider.Tracer("metricexport.Exporter"),
	}

	meter := opts.MeterProvider.Meter("metricexport.Exporter")
	var err error
	if e.stats.series, err = meter.Int64Counter("cloudmon.exported_series",
		metric.WithDescription("Time series written to the backend"),
	); err != nil {
		return nil, errors.Wrap(err, "create exported_series metric")
	}
	if e.stats.droppedRecords, err = meter.Int64Counter("cloudmon.dropped_metrics",
		metric.WithDescription("Metric records dropped due to conversion failures"),
	); err != nil {
		return nil, errors.Wrap(err, "create dropped_metrics metric")
	}
	if e.stats.registrations, err = meter.Int64Counter("cloudmon.descriptor_registrations",
		metric.WithDescription("Metric descriptor registration calls"),
	); err != nil {
		return nil, errors.Wrap(err, "create descriptor_registrations metric")
	}
	if e.stats.failedRegistrations, err = meter.Int64Counter("cloudmon.failed_descriptor_registrations",
		metric.WithDescription("Failed metric descriptor registration calls"),
	); err != nil {
		return nil, errors.Wrap(err, "create failed_descriptor_registrations metric")
	}
	return e, nil
}

// metricRecord is one converted metric: its descriptor and the time series
// derived from its data points.
type metricRecord struct {
	typ    string
	desc   monclient.MetricDescriptor
	series []monclient.TimeSeries
}

// ConsumeMetrics exports given metrics.
//
// Per-record conversion failures are logged and dropped. A descriptor
// registration failure drops only the series of that metric type. A failed
// project resolution or any failed time series batch fails the whole
// export; batches already written are not rolled back.
func (e *Exporter) ConsumeMetrics(ctx context.Context, metrics pmetric.Metrics) (rerr error) {
	ctx, span := e.tracer.Start(ctx, "metricexport.ConsumeMetrics", trace.WithAttributes(
		attribute.Int("cloudmon.metrics_count", metrics.MetricCount()),
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

	records := e.convert(ctx, metrics)
	skip := e.register(ctx, parent, records)

	var series []monclient.TimeSeries
	for _, rec := range records {
		if _, ok := skip[rec.typ]; ok {
			continue
		}
		series = append(series, rec.series...)
	}

	if err := sendbatch.Send(ctx, series, e.limit, func(ctx context.Context, chunk []monclient.TimeSeries) error {
		return e.client.CreateTimeSeries(ctx, &monclient.CreateTimeSeriesRequest{
			Name:       parent,
			TimeSeries: chunk,
		})
	}); err != nil {
		return errors.Wrap(err, "write time series")
	}
	e.stats.series.Add(ctx, int64(len(series)))
	return nil
}

// convert maps every metric record, dropping malformed ones.
func (e *Exporter) convert(ctx context.Context, metrics pmetric.Metrics) []metricRecord {
	var records []metricRecord

	resMetrics := metrics.ResourceMetrics()
	for i := 0; i < resMetrics.Len(); i++ {
		resMetric := resMetrics.At(i)
		res := otelmap.MonitoredResource(resMetric.Resource())

		scopeMetrics := resMetric.ScopeMetrics()
		for j := 0; j < scopeMetrics.Len(); j++ {
			scopeMetric := scopeMetrics.At(j)
			scopeLabels := otelmap.ScopeLabels(scopeMetric.Scope())

			metrics := scopeMetric.Metrics()
			for k := 0; k < metrics.Len(); k++ {
				record := metrics.At(k)

				desc, err := e.mapper.descriptor(record)
				if err != nil {
					e.lg.Warn("Dropping metric",
						zap.String("metric", record.Name()),
						zap.Error(err),
					)
					e.stats.droppedRecords.Add(ctx, 1)
					continue
				}
				series, err := e.mapper.timeSeries(res, scopeLabels, record)
				if err != nil {
					e.lg.Warn("Dropping metric",
						zap.String("metric", record.Name()),
						zap.Error(err),
					)
					e.stats.droppedRecords.Add(ctx, 1)
					continue
				}
				records = append(records, metricRecord{
					typ:    desc.Type,
					desc:   desc,
					series: series,
				})
			}
		}
	}
	return records
}

// register issues descriptor registration for every type not yet known,
// before any time series referencing it is written. Returns the types
// whose registration failed: their series must be skipped, but the export
// itself is not failed by them.
func (e *Exporter) register(ctx context.Context, parent string, records []metricRecord) map[string]struct{} {
	skip := map[string]struct{}{}
	done := map[string]struct{}{}
	for _, rec := range records {
		if _, ok := done[rec.typ]; ok {
			continue
		}
		done[rec.typ] = struct{}{}

		desc := rec.desc
		err := e.reg.Register(ctx, rec.typ, func(ctx context.Context) error {
			e.stats.registrations.Add(ctx, 1)
			return e.client.CreateMetricDescriptor(ctx, &monclient.CreateMetricDescriptorRequest{
				Name:       parent,
				Descriptor: desc,
			})
		})
		if err != nil {
			e.lg.Warn("Descriptor registration failed, skipping series of this type",
				zap.String("type", rec.typ),
				zap.Error(err),
			)
			e.stats.failedRegistrations.Add(ctx, 1)
			skip[rec.typ] = struct{}{}
		}
	}
	return skip
}

// Shutdown flushes the exporter. There is no background work to wait for,
// so it never fails.
func (e *Exporter) Shutdown(context.Context) error {
	return nil
}
