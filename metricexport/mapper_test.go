package metricexport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/pmetric"

	"github.com/go-faster/cloudmon/monclient"
)

var (
	testStart = pcommon.NewTimestampFromTime(time.Unix(1700000000, 0))
	testEnd   = pcommon.NewTimestampFromTime(time.Unix(1700000060, 0))
	testRes   = monclient.MonitoredResource{Type: "generic_node"}
)

func testMapper() mapper {
	return mapper{prefix: "custom.cloudmon.dev"}
}

func TestDescriptorGauge(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("temperature")
	m.SetUnit("By")
	m.SetDescription("Current temperature")
	point := m.SetEmptyGauge().DataPoints().AppendEmpty()
	point.SetTimestamp(testEnd)
	point.SetDoubleValue(36.6)

	desc, err := testMapper().descriptor(m)
	require.NoError(t, err)
	require.Equal(t, monclient.MetricDescriptor{
		Type:        "custom.cloudmon.dev/temperature",
		DisplayName: "temperature",
		Description: "Current temperature",
		Unit:        "By",
		Kind:        monclient.MetricKindGauge,
		ValueType:   monclient.ValueTypeDouble,
	}, desc)
}

func TestDescriptorMonotonicSum(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("requests")
	sum := m.SetEmptySum()
	sum.SetIsMonotonic(true)
	sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := sum.DataPoints().AppendEmpty()
	point.SetIntValue(1)

	desc, err := testMapper().descriptor(m)
	require.NoError(t, err)
	require.Equal(t, monclient.MetricKindCumulative, desc.Kind)
	require.Equal(t, monclient.ValueTypeInt64, desc.ValueType)
}

func TestDescriptorNonMonotonicSum(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("queue_size")
	sum := m.SetEmptySum()
	sum.SetIsMonotonic(false)
	sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)

	desc, err := testMapper().descriptor(m)
	require.NoError(t, err)
	// Non-monotonic sums map to gauges.
	require.Equal(t, monclient.MetricKindGauge, desc.Kind)
}

func TestDescriptorUnsupported(t *testing.T) {
	t.Run("Summary", func(t *testing.T) {
		m := pmetric.NewMetric()
		m.SetName("latency_summary")
		m.SetEmptySummary()
		_, err := testMapper().descriptor(m)
		require.Error(t, err)
	})
	t.Run("DeltaSum", func(t *testing.T) {
		m := pmetric.NewMetric()
		m.SetName("delta")
		sum := m.SetEmptySum()
		sum.SetAggregationTemporality(pmetric.AggregationTemporalityDelta)
		_, err := testMapper().descriptor(m)
		require.Error(t, err)
	})
	t.Run("Empty", func(t *testing.T) {
		m := pmetric.NewMetric()
		m.SetName("nothing")
		_, err := testMapper().descriptor(m)
		require.Error(t, err)
	})
}

func TestTimeSeriesCumulativeInterval(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("requests")
	sum := m.SetEmptySum()
	sum.SetIsMonotonic(true)
	sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := sum.DataPoints().AppendEmpty()
	point.SetStartTimestamp(testStart)
	point.SetTimestamp(testEnd)
	point.SetIntValue(10)
	point.Attributes().PutStr("method", "GET")

	series, err := testMapper().timeSeries(testRes, map[string]string{"instrumentation_source": "lib"}, m)
	require.NoError(t, err)
	require.Len(t, series, 1)

	ts := series[0]
	require.Equal(t, "custom.cloudmon.dev/requests", ts.Metric.Type)
	require.Equal(t, map[string]string{
		"instrumentation_source": "lib",
		"method":                 "GET",
	}, ts.Metric.Labels)
	require.Equal(t, monclient.MetricKindCumulative, ts.Kind)
	require.Len(t, ts.Points, 1)

	point2 := ts.Points[0]
	require.True(t, point2.Interval.StartTime.Equal(time.Unix(1700000000, 0)))
	require.True(t, point2.Interval.EndTime.Equal(time.Unix(1700000060, 0)))
	require.NotNil(t, point2.Value.Int64)
	require.Equal(t, int64(10), *point2.Value.Int64)
}

func TestTimeSeriesZeroWidthIntervalNudged(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("requests")
	sum := m.SetEmptySum()
	sum.SetIsMonotonic(true)
	sum.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := sum.DataPoints().AppendEmpty()
	point.SetStartTimestamp(testStart)
	point.SetTimestamp(testStart)
	point.SetIntValue(1)

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)

	interval := series[0].Points[0].Interval
	require.True(t, interval.EndTime.After(interval.StartTime))
}

func TestTimeSeriesGaugeInterval(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("temperature")
	point := m.SetEmptyGauge().DataPoints().AppendEmpty()
	point.SetTimestamp(testEnd)
	point.SetDoubleValue(36.6)

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)

	interval := series[0].Points[0].Interval
	require.True(t, interval.StartTime.IsZero())
	require.NotNil(t, series[0].Points[0].Value.Double)
	require.Equal(t, 36.6, *series[0].Points[0].Value.Double)
}

func TestTimeSeriesSkipsEmptyPoints(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("temperature")
	gauge := m.SetEmptyGauge()
	gauge.DataPoints().AppendEmpty() // no value
	point := gauge.DataPoints().AppendEmpty()
	point.SetTimestamp(testEnd)
	point.SetIntValue(1)

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)
}

func TestTimeSeriesHistogram(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("latency")
	hist := m.SetEmptyHistogram()
	hist.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := hist.DataPoints().AppendEmpty()
	point.SetStartTimestamp(testStart)
	point.SetTimestamp(testEnd)
	point.SetCount(4)
	point.SetSum(10)
	point.ExplicitBounds().FromRaw([]float64{1, 5, 10})
	point.BucketCounts().FromRaw([]uint64{1, 2, 1, 0})

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, monclient.ValueTypeDistribution, series[0].ValueType)

	dist := series[0].Points[0].Value.Distribution
	require.NotNil(t, dist)
	require.Equal(t, int64(4), dist.Count)
	require.Equal(t, 2.5, dist.Mean)
	require.Equal(t, []float64{1, 5, 10}, dist.BucketOptions.Explicit.Bounds)
	require.Equal(t, []int64{1, 2, 1, 0}, dist.BucketCounts)
}

func TestTimeSeriesExponentialHistogram(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("latency")
	hist := m.SetEmptyExponentialHistogram()
	hist.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := hist.DataPoints().AppendEmpty()
	point.SetStartTimestamp(testStart)
	point.SetTimestamp(testEnd)
	point.SetScale(0) // growth factor 2
	point.SetCount(7)
	point.SetSum(14)
	point.SetZeroCount(1)
	point.Positive().SetOffset(0)
	point.Positive().BucketCounts().FromRaw([]uint64{2, 3, 1})

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)

	dist := series[0].Points[0].Value.Distribution
	require.NotNil(t, dist)
	require.Equal(t, int64(7), dist.Count)
	require.Equal(t, 2.0, dist.Mean)

	exp := dist.BucketOptions.Exponential
	require.NotNil(t, exp)
	require.Equal(t, int32(3), exp.NumFiniteBuckets)
	require.Equal(t, 2.0, exp.GrowthFactor)
	require.Equal(t, 1.0, exp.Scale)
	// Zero bucket, finite buckets, overflow.
	require.Equal(t, []int64{1, 2, 3, 1, 0}, dist.BucketCounts)
}

func TestTimeSeriesExponentialHistogramNoPositiveBuckets(t *testing.T) {
	m := pmetric.NewMetric()
	m.SetName("latency")
	hist := m.SetEmptyExponentialHistogram()
	hist.SetAggregationTemporality(pmetric.AggregationTemporalityCumulative)
	point := hist.DataPoints().AppendEmpty()
	point.SetStartTimestamp(testStart)
	point.SetTimestamp(testEnd)
	point.SetCount(4)
	point.SetZeroCount(1)
	point.Negative().BucketCounts().FromRaw([]uint64{2, 1})

	series, err := testMapper().timeSeries(testRes, nil, m)
	require.NoError(t, err)
	require.Len(t, series, 1)

	// Only zero and negative counts: an exponential scheme would carry
	// zero finite buckets, which the backend rejects. Expect the explicit
	// underflow/overflow fallback.
	dist := series[0].Points[0].Value.Distribution
	require.NotNil(t, dist)
	require.Nil(t, dist.BucketOptions.Exponential)
	require.NotNil(t, dist.BucketOptions.Explicit)
	require.Equal(t, []float64{0}, dist.BucketOptions.Explicit.Bounds)
	require.Equal(t, []int64{4, 0}, dist.BucketCounts)
}
