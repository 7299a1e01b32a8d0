// Binary cloudmon-demo sends a small set of generated metrics and spans to
// the monitoring backend. Useful for verifying credentials, project id
// discovery and endpoint configuration.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pmetric"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.uber.org/zap"

	"github.com/go-faster/cloudmon/identity"
	"github.com/go-faster/cloudmon/metricexport"
	"github.com/go-faster/cloudmon/monclient"
	"github.com/go-faster/cloudmon/traceexport"
)

func generateMetrics() pmetric.Metrics {
	now := pcommon.NewTimestampFromTime(time.Now())
	start := pcommon.NewTimestampFromTime(time.Now().Add(-time.Minute))

	metrics := pmetric.NewMetrics()
	rm := metrics.ResourceMetrics().AppendEmpty()
	rm.Resource().Attributes().PutStr("service.name", "cloudmon-demo")
	sm := rm.ScopeMetrics().AppendEmpty()
	sm.Scope().SetName("cloudmon-demo")

	counter := sm.Metrics().AppendEmpty()
	counter.SetName("demo/requests")
	counter.SetUnit("1")
	sum := counter.SetEmptySum()
	sum.SetIsMonotonic(true)
	sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := sum.DataPoints().AppendEmpty()
	point.SetStartTimestamp(start)
	point.SetTimestamp(now)
	point.SetIntValue(42)

	gauge := sm.Metrics().AppendEmpty()
	gauge.SetName("demo/temperature")
	gauge.SetUnit("By")
	gp := gauge.SetEmptyGauge().DataPoints().AppendEmpty()
	gp.SetTimestamp(now)
	gp.SetDoubleValue(36.6)

	return metrics
}

func generateTraces() ptrace.Traces {
	now := time.Now()

	traces := ptrace.NewTraces()
	rs := traces.ResourceSpans().AppendEmpty()
	rs.Resource().Attributes().PutStr("service.name", "cloudmon-demo")
	ss := rs.ScopeSpans().AppendEmpty()
	ss.Scope().SetName("cloudmon-demo")

	span := ss.Spans().AppendEmpty()
	var traceID pcommon.TraceID
	_, _ = rand.Read(traceID[:])
	var spanID pcommon.SpanID
	_, _ = rand.Read(spanID[:])
	span.SetTraceID(traceID)
	span.SetSpanID(spanID)
	span.SetName("demo.request")
	span.SetKind(ptrace.SpanKindServer)
	span.SetStartTimestamp(pcommon.NewTimestampFromTime(now.Add(-time.Second)))
	span.SetEndTimestamp(pcommon.NewTimestampFromTime(now))
	span.Status().SetCode(ptrace.StatusCodeOk)

	return traces
}

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Metrics) error {
		set := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
		endpoint := set.String("endpoint", monclient.DefaultEndpoint, "Backend endpoint")
		project := set.String("project", "", "Project id (defaults to discovery)")
		if err := set.Parse(os.Args[1:]); err != nil {
			return err
		}

		client := monclient.NewHTTPClient(monclient.HTTPClientOptions{
			Endpoint:       *endpoint,
			MeterProvider:  m.MeterProvider(),
			TracerProvider: m.TracerProvider(),
			Logger:         lg,
		})
		var projects identity.Provider = identity.Env()
		if *project != "" {
			projects = identity.Static(*project)
		}

		metrics, err := metricexport.NewExporter(client, metricexport.Options{
			Projects:       projects,
			Logger:         lg,
			MeterProvider:  m.MeterProvider(),
			TracerProvider: m.TracerProvider(),
		})
		if err != nil {
			return errors.Wrap(err, "create metrics exporter")
		}
		traces, err := traceexport.NewExporter(client, traceexport.Options{
			Projects:       projects,
			Logger:         lg,
			MeterProvider:  m.MeterProvider(),
			TracerProvider: m.TracerProvider(),
		})
		if err != nil {
			return errors.Wrap(err, "create traces exporter")
		}

		if err := metrics.ConsumeMetrics(ctx, generateMetrics()); err != nil {
			return errors.Wrap(err, "export metrics")
		}
		if err := traces.ConsumeTraces(ctx, generateTraces()); err != nil {
			return errors.Wrap(err, "export traces")
		}

		zctx.From(ctx).Info("Export done")
		return nil
	},
		app.WithServiceName("cloudmon-demo"),
	)
}
