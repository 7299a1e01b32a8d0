package monclient

import (
	"time"

	"github.com/go-faster/jx"
)

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeStringMap(e *jx.Encoder, m map[string]string) {
	if len(m) == 0 {
		e.ObjEmpty()
		return
	}
	e.ObjStart()
	for k, v := range m {
		e.FieldStart(k)
		e.Str(v)
	}
	e.ObjEnd()
}

func (r MonitoredResource) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(r.Type)
	if len(r.Labels) > 0 {
		e.FieldStart("labels")
		encodeStringMap(e, r.Labels)
	}
	e.ObjEnd()
}

func (d MetricDescriptor) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(d.Type)
	e.FieldStart("displayName")
	e.Str(d.DisplayName)
	if d.Description != "" {
		e.FieldStart("description")
		e.Str(d.Description)
	}
	if d.Unit != "" {
		e.FieldStart("unit")
		e.Str(d.Unit)
	}
	e.FieldStart("metricKind")
	e.Str(string(d.Kind))
	e.FieldStart("valueType")
	e.Str(string(d.ValueType))
	e.ObjEnd()
}

func (i TimeInterval) encode(e *jx.Encoder) {
	e.ObjStart()
	if !i.StartTime.IsZero() {
		e.FieldStart("startTime")
		encodeTime(e, i.StartTime)
	}
	e.FieldStart("endTime")
	encodeTime(e, i.EndTime)
	e.ObjEnd()
}

func (d Distribution) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("count")
	e.Int64(d.Count)
	e.FieldStart("mean")
	e.Float64(d.Mean)
	e.FieldStart("sumOfSquaredDeviation")
	e.Float64(d.SumOfSquaredDeviation)
	e.FieldStart("bucketOptions")
	e.ObjStart()
	switch {
	case d.BucketOptions.Explicit != nil:
		e.FieldStart("explicitBuckets")
		e.ObjStart()
		e.FieldStart("bounds")
		e.ArrStart()
		for _, b := range d.BucketOptions.Explicit.Bounds {
			e.Float64(b)
		}
		e.ArrEnd()
		e.ObjEnd()
	case d.BucketOptions.Exponential != nil:
		opts := d.BucketOptions.Exponential
		e.FieldStart("exponentialBuckets")
		e.ObjStart()
		e.FieldStart("numFiniteBuckets")
		e.Int32(opts.NumFiniteBuckets)
		e.FieldStart("growthFactor")
		e.Float64(opts.GrowthFactor)
		e.FieldStart("scale")
		e.Float64(opts.Scale)
		e.ObjEnd()
	}
	e.ObjEnd()
	e.FieldStart("bucketCounts")
	e.ArrStart()
	for _, c := range d.BucketCounts {
		e.Int64(c)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (v TypedValue) encode(e *jx.Encoder) {
	e.ObjStart()
	switch {
	case v.Int64 != nil:
		e.FieldStart("int64Value")
		e.Int64(*v.Int64)
	case v.Double != nil:
		e.FieldStart("doubleValue")
		e.Float64(*v.Double)
	case v.Distribution != nil:
		e.FieldStart("distributionValue")
		v.Distribution.encode(e)
	}
	e.ObjEnd()
}

func (p Point) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("interval")
	p.Interval.encode(e)
	e.FieldStart("value")
	p.Value.encode(e)
	e.ObjEnd()
}

func (ts TimeSeries) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("metric")
	e.ObjStart()
	e.FieldStart("type")
	e.Str(ts.Metric.Type)
	if len(ts.Metric.Labels) > 0 {
		e.FieldStart("labels")
		encodeStringMap(e, ts.Metric.Labels)
	}
	e.ObjEnd()
	e.FieldStart("resource")
	ts.Resource.encode(e)
	e.FieldStart("metricKind")
	e.Str(string(ts.Kind))
	e.FieldStart("valueType")
	e.Str(string(ts.ValueType))
	e.FieldStart("points")
	e.ArrStart()
	for _, p := range ts.Points {
		p.encode(e)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (s TruncatableString) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("value")
	e.Str(s.Value)
	if s.TruncatedByteCount > 0 {
		e.FieldStart("truncatedByteCount")
		e.Int(s.TruncatedByteCount)
	}
	e.ObjEnd()
}

func (a Attributes) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("attributeMap")
	if len(a.Map) == 0 {
		e.ObjEmpty()
	} else {
		e.ObjStart()
		for k, v := range a.Map {
			e.FieldStart(k)
			e.ObjStart()
			e.FieldStart("stringValue")
			v.encode(e)
			e.ObjEnd()
		}
		e.ObjEnd()
	}
	if a.Dropped > 0 {
		e.FieldStart("droppedAttributesCount")
		e.Int(a.Dropped)
	}
	e.ObjEnd()
}

func (s Span) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("spanId")
	e.Str(s.SpanID)
	if s.ParentSpanID != "" {
		e.FieldStart("parentSpanId")
		e.Str(s.ParentSpanID)
	}
	e.FieldStart("displayName")
	s.DisplayName.encode(e)
	if s.Kind != "" {
		e.FieldStart("spanKind")
		e.Str(s.Kind)
	}
	e.FieldStart("startTime")
	encodeTime(e, s.StartTime)
	e.FieldStart("endTime")
	encodeTime(e, s.EndTime)
	e.FieldStart("attributes")
	s.Attributes.encode(e)
	if len(s.Events) > 0 || s.DroppedEvents > 0 {
		e.FieldStart("timeEvents")
		e.ObjStart()
		e.FieldStart("timeEvent")
		e.ArrStart()
		for _, ev := range s.Events {
			e.ObjStart()
			e.FieldStart("time")
			encodeTime(e, ev.Time)
			e.FieldStart("annotation")
			e.ObjStart()
			e.FieldStart("description")
			ev.Description.encode(e)
			e.FieldStart("attributes")
			ev.Attributes.encode(e)
			e.ObjEnd()
			e.ObjEnd()
		}
		e.ArrEnd()
		if s.DroppedEvents > 0 {
			e.FieldStart("droppedAnnotationsCount")
			e.Int(s.DroppedEvents)
		}
		e.ObjEnd()
	}
	if len(s.Links) > 0 || s.DroppedLinks > 0 {
		e.FieldStart("links")
		e.ObjStart()
		e.FieldStart("link")
		e.ArrStart()
		for _, l := range s.Links {
			e.ObjStart()
			e.FieldStart("traceId")
			e.Str(l.TraceID)
			e.FieldStart("spanId")
			e.Str(l.SpanID)
			e.FieldStart("attributes")
			l.Attributes.encode(e)
			e.ObjEnd()
		}
		e.ArrEnd()
		if s.DroppedLinks > 0 {
			e.FieldStart("droppedLinksCount")
			e.Int(s.DroppedLinks)
		}
		e.ObjEnd()
	}
	if s.Status != nil {
		e.FieldStart("status")
		e.ObjStart()
		e.FieldStart("code")
		e.Int32(s.Status.Code)
		if s.Status.Message != "" {
			e.FieldStart("message")
			e.Str(s.Status.Message)
		}
		e.ObjEnd()
	}
	e.ObjEnd()
}

// Encode writes the request body.
func (r *CreateMetricDescriptorRequest) Encode(e *jx.Encoder) {
	r.Descriptor.encode(e)
}

// Encode writes the request body.
func (r *CreateTimeSeriesRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("timeSeries")
	e.ArrStart()
	for _, ts := range r.TimeSeries {
		ts.encode(e)
	}
	e.ArrEnd()
	e.ObjEnd()
}

// Encode writes the request body.
func (r *BatchWriteSpansRequest) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("spans")
	e.ArrStart()
	for _, s := range r.Spans {
		s.encode(e)
	}
	e.ArrEnd()
	e.ObjEnd()
}
