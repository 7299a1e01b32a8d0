package metricexport

import (
	"math"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/go-faster/cloudmon/internal/otelmap"
	"github.com/go-faster/cloudmon/monclient"
)

// mapper transforms metric records into backend requests. Pure functions,
// no I/O: errors mean a malformed record the caller should drop.
type mapper struct {
	prefix string
}

func (m mapper) metricType(metric pmetric.Metric) string {
	return m.prefix + "/" + metric.Name()
}

// descriptor maps a metric identity to a backend metric descriptor.
func (m mapper) descriptor(metric pmetric.Metric) (monclient.MetricDescriptor, error) {
	kind, valueType, err := m.kindValueType(metric)
	if err != nil {
		return monclient.MetricDescriptor{}, err
	}
	return monclient.MetricDescriptor{
		Type:        m.metricType(metric),
		DisplayName: metric.Name(),
		Description: metric.Description(),
		Unit:        metric.Unit(),
		Kind:        kind,
		ValueType:   valueType,
	}, nil
}

func (m mapper) kindValueType(metric pmetric.Metric) (monclient.MetricKind, monclient.ValueType, error) {
	switch typ := metric.Type(); typ {
	case pmetric.MetricTypeGauge:
		return monclient.MetricKindGauge, numberValueType(metric.Gauge().DataPoints()), nil
	case pmetric.MetricTypeSum:
		sum := metric.Sum()
		if sum.AggregationTemporality() != pmetric.AggregationTemporalityCumulative {
			return "", "", errors.Errorf("metric %q: unsupported sum temporality %v", metric.Name(), sum.AggregationTemporality())
		}
		kind := monclient.MetricKindCumulative
		if !sum.IsMonotonic() {
			// Non-monotonic sums may go down, the backend models them
			// as gauges.
			kind = monclient.MetricKindGauge
		}
		return kind, numberValueType(sum.DataPoints()), nil
	case pmetric.MetricTypeHistogram:
		hist := metric.Histogram()
		if hist.AggregationTemporality() != pmetric.AggregationTemporalityCumulative {
			return "", "", errors.Errorf("metric %q: unsupported histogram temporality %v", metric.Name(), hist.AggregationTemporality())
		}
		return monclient.MetricKindCumulative, monclient.ValueTypeDistribution, nil
	case pmetric.MetricTypeExponentialHistogram:
		hist := metric.ExponentialHistogram()
		if hist.AggregationTemporality() != pmetric.AggregationTemporalityCumulative {
			return "", "", errors.Errorf("metric %q: unsupported histogram temporality %v", metric.Name(), hist.AggregationTemporality())
		}
		return monclient.MetricKindCumulative, monclient.ValueTypeDistribution, nil
	default:
		return "", "", errors.Errorf("metric %q: unsupported type %v", metric.Name(), typ)
	}
}

func numberValueType(points pmetric.NumberDataPointSlice) monclient.ValueType {
	if points.Len() > 0 && points.At(0).ValueType() == pmetric.NumberDataPointValueTypeInt {
		return monclient.ValueTypeInt64
	}
	return monclient.ValueTypeDouble
}

// timeSeries maps every data point of a metric to a backend time series,
// preserving point order.
func (m mapper) timeSeries(
	res monclient.MonitoredResource,
	scopeLabels map[string]string,
	metric pmetric.Metric,
) ([]monclient.TimeSeries, error) {
	kind, _, err := m.kindValueType(metric)
	if err != nil {
		return nil, err
	}
	typ := m.metricType(metric)

	switch metric.Type() {
	case pmetric.MetricTypeGauge:
		return m.numberSeries(res, scopeLabels, typ, kind, metric.Gauge().DataPoints())
	case pmetric.MetricTypeSum:
		return m.numberSeries(res, scopeLabels, typ, kind, metric.Sum().DataPoints())
	case pmetric.MetricTypeHistogram:
		return m.histogramSeries(res, scopeLabels, typ, metric.Histogram().DataPoints())
	case pmetric.MetricTypeExponentialHistogram:
		return m.expHistogramSeries(res, scopeLabels, typ, metric.ExponentialHistogram().DataPoints())
	default:
		// Unreachable, kindValueType rejects other types.
		return nil, nil
	}
}

func (m mapper) numberSeries(
	res monclient.MonitoredResource,
	scopeLabels map[string]string,
	typ string,
	kind monclient.MetricKind,
	points pmetric.NumberDataPointSlice,
) ([]monclient.TimeSeries, error) {
	series := make([]monclient.TimeSeries, 0, points.Len())
	for i := 0; i < points.Len(); i++ {
		point := points.At(i)

		var (
			value     monclient.TypedValue
			valueType monclient.ValueType
		)
		switch pointType := point.ValueType(); pointType {
		case pmetric.NumberDataPointValueTypeEmpty:
			// Just ignore it.
			continue
		case pmetric.NumberDataPointValueTypeInt:
			v := point.IntValue()
			value = monclient.TypedValue{Int64: &v}
			valueType = monclient.ValueTypeInt64
		case pmetric.NumberDataPointValueTypeDouble:
			v := point.DoubleValue()
			value = monclient.TypedValue{Double: &v}
			valueType = monclient.ValueTypeDouble
		default:
			return nil, errors.Errorf("unexpected value type: %v", pointType)
		}

		interval := otelmap.Point(point.Timestamp())
		if kind == monclient.MetricKindCumulative {
			interval = otelmap.Interval(point.StartTimestamp(), point.Timestamp())
		}
		series = append(series, monclient.TimeSeries{
			Metric: monclient.Metric{
				Type:   typ,
				Labels: otelmap.MergeLabels(scopeLabels, point.Attributes()),
			},
			Resource:  res,
			Kind:      kind,
			ValueType: valueType,
			Points: []monclient.Point{{
				Interval: interval,
				Value:    value,
			}},
		})
	}
	return series, nil
}

func (m mapper) histogramSeries(
	res monclient.MonitoredResource,
	scopeLabels map[string]string,
	typ string,
	points pmetric.HistogramDataPointSlice,
) ([]monclient.TimeSeries, error) {
	series := make([]monclient.TimeSeries, 0, points.Len())
	for i := 0; i < points.Len(); i++ {
		point := points.At(i)

		dist := &monclient.Distribution{
			Count: int64(point.Count()),
			BucketOptions: monclient.BucketOptions{
				Explicit: &monclient.ExplicitBuckets{
					Bounds: point.ExplicitBounds().AsRaw(),
				},
			},
			BucketCounts: bucketCounts(point.BucketCounts().AsRaw()),
		}
		if point.HasSum() && point.Count() > 0 {
			dist.Mean = point.Sum() / float64(point.Count())
		}

		series = append(series, monclient.TimeSeries{
			Metric: monclient.Metric{
				Type:   typ,
				Labels: otelmap.MergeLabels(scopeLabels, point.Attributes()),
			},
			Resource:  res,
			Kind:      monclient.MetricKindCumulative,
			ValueType: monclient.ValueTypeDistribution,
			Points: []monclient.Point{{
				Interval: otelmap.Interval(point.StartTimestamp(), point.Timestamp()),
				Value:    monclient.TypedValue{Distribution: dist},
			}},
		})
	}
	return series, nil
}

func (m mapper) expHistogramSeries(
	res monclient.MonitoredResource,
	scopeLabels map[string]string,
	typ string,
	points pmetric.ExponentialHistogramDataPointSlice,
) ([]monclient.TimeSeries, error) {
	series := make([]monclient.TimeSeries, 0, points.Len())
	for i := 0; i < points.Len(); i++ {
		point := points.At(i)

		// The backend cannot represent negative exponential buckets:
		// underflow is folded into the zero bucket.
		positive := point.Positive()
		counts := make([]int64, 0, positive.BucketCounts().Len()+2)
		underflow := point.ZeroCount()
		negative := point.Negative().BucketCounts()
		for j := 0; j < negative.Len(); j++ {
			underflow += negative.At(j)
		}
		counts = append(counts, int64(underflow))
		counts = append(counts, bucketCounts(positive.BucketCounts().AsRaw())...)
		counts = append(counts, 0)

		var opts monclient.BucketOptions
		if positive.BucketCounts().Len() == 0 {
			// The backend rejects an exponential scheme with zero finite
			// buckets: send a plain underflow/overflow histogram instead.
			opts.Explicit = &monclient.ExplicitBuckets{
				Bounds: []float64{0},
			}
		} else {
			growthFactor := math.Exp2(math.Exp2(-float64(point.Scale())))
			opts.Exponential = &monclient.ExponentialBuckets{
				NumFiniteBuckets: int32(positive.BucketCounts().Len()),
				GrowthFactor:     growthFactor,
				Scale:            math.Pow(growthFactor, float64(positive.Offset())),
			}
		}
		dist := &monclient.Distribution{
			Count:         int64(point.Count()),
			BucketOptions: opts,
			BucketCounts:  counts,
		}
		if point.HasSum() && point.Count() > 0 {
			dist.Mean = point.Sum() / float64(point.Count())
		}

		series = append(series, monclient.TimeSeries{
			Metric: monclient.Metric{
				Type:   typ,
				Labels: otelmap.MergeLabels(scopeLabels, point.Attributes()),
			},
			Resource:  res,
			Kind:      monclient.MetricKindCumulative,
			ValueType: monclient.ValueTypeDistribution,
			Points: []monclient.Point{{
				Interval: otelmap.Interval(point.StartTimestamp(), point.Timestamp()),
				Value:    monclient.TypedValue{Distribution: dist},
			}},
		})
	}
	return series, nil
}

func bucketCounts(counts []uint64) []int64 {
	out := make([]int64, len(counts))
	for i, c := range counts {
		out[i] = int64(c)
	}
	return out
}
