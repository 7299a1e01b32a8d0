package traceexport

import (
	"github.com/go-faster/errors"
	"go.opentelemetry.io/collector/pdata/pcommon"
	"go.opentelemetry.io/collector/pdata/ptrace"

	"github.com/go-faster/cloudmon/internal/otelmap"
	"github.com/go-faster/cloudmon/monclient"
)

// Backend span field limits.
const (
	// MaxDisplayNameLen is the maximum display name length in bytes.
	MaxDisplayNameLen = 128
	// MaxAttributeValueLen is the maximum attribute value length in bytes.
	MaxAttributeValueLen = 256
	// MaxSpanAttributes is the maximum number of attributes per span.
	MaxSpanAttributes = 32
	// MaxEventAttributes is the maximum number of attributes per event.
	MaxEventAttributes = 4
	// MaxLinkAttributes is the maximum number of attributes per link.
	MaxLinkAttributes = 32
	// MaxEvents is the maximum number of events per span.
	MaxEvents = 32
	// MaxLinks is the maximum number of links per span.
	MaxLinks = 128
)

// convertSpan maps a closed span to a backend span write request entry.
// Fails only on malformed input, i.e. a missing trace or span id.
func convertSpan(
	parent string,
	res pcommon.Resource,
	scope pcommon.InstrumentationScope,
	span ptrace.Span,
) (monclient.Span, error) {
	traceID := span.TraceID()
	if traceID.IsEmpty() {
		return monclient.Span{}, errors.New("empty trace id")
	}
	spanID := span.SpanID()
	if spanID.IsEmpty() {
		return monclient.Span{}, errors.New("empty span id")
	}

	out := monclient.Span{
		Name:        parent + "/traces/" + traceID.String() + "/spans/" + spanID.String(),
		SpanID:      spanID.String(),
		DisplayName: truncatable(span.Name(), MaxDisplayNameLen),
		Kind:        spanKind(span.Kind()),
		Attributes: attributes(MaxSpanAttributes,
			res.Attributes(),
			scopeAttrs(scope),
			span.Attributes(),
		),
		Status: status(span.Status()),
	}
	if parentID := span.ParentSpanID(); !parentID.IsEmpty() {
		out.ParentSpanID = parentID.String()
	}

	// Wall-clock interval: an end time at or equal to the start time is
	// nudged so that the backend never sees an empty interval.
	interval := otelmap.Interval(span.StartTimestamp(), span.EndTimestamp())
	out.StartTime = interval.StartTime
	out.EndTime = interval.EndTime

	events := span.Events()
	out.DroppedEvents = int(span.DroppedEventsCount())
	for i := 0; i < events.Len(); i++ {
		if len(out.Events) == MaxEvents {
			out.DroppedEvents += events.Len() - i
			break
		}
		event := events.At(i)
		out.Events = append(out.Events, monclient.SpanEvent{
			Time:        event.Timestamp().AsTime(),
			Description: truncatable(event.Name(), MaxAttributeValueLen),
			Attributes:  attributes(MaxEventAttributes, event.Attributes()),
		})
	}

	links := span.Links()
	out.DroppedLinks = int(span.DroppedLinksCount())
	for i := 0; i < links.Len(); i++ {
		if len(out.Links) == MaxLinks {
			out.DroppedLinks += links.Len() - i
			break
		}
		link := links.At(i)
		out.Links = append(out.Links, monclient.SpanLink{
			TraceID:    link.TraceID().String(),
			SpanID:     link.SpanID().String(),
			Attributes: attributes(MaxLinkAttributes, link.Attributes()),
		})
	}

	return out, nil
}

func truncatable(s string, limit int) monclient.TruncatableString {
	value, truncated := otelmap.Truncate(s, limit)
	return monclient.TruncatableString{
		Value:              value,
		TruncatedByteCount: truncated,
	}
}

func scopeAttrs(scope pcommon.InstrumentationScope) pcommon.Map {
	attrs := pcommon.NewMap()
	if name := scope.Name(); name != "" {
		attrs.PutStr(otelmap.ScopeNameKey, name)
	}
	if version := scope.Version(); version != "" {
		attrs.PutStr(otelmap.ScopeVersionKey, version)
	}
	return attrs
}

// attributes merges attribute maps into a bounded backend attribute set.
// Later maps win on key collision, so record-level attributes override
// resource-level ones. Overflow is dropped and counted, never an error:
// maps are consumed in reverse, so once the limit is reached record-level
// attributes survive over scope- and resource-level ones.
func attributes(limit int, maps ...pcommon.Map) monclient.Attributes {
	merged := map[string]monclient.TruncatableString{}
	var dropped int
	for i := len(maps) - 1; i >= 0; i-- {
		maps[i].Range(func(k string, v pcommon.Value) bool {
			key := otelmap.SanitizeKey(k)
			if _, ok := merged[key]; ok {
				return true
			}
			if len(merged) == limit {
				dropped++
				return true
			}
			merged[key] = truncatable(otelmap.ValueString(v), MaxAttributeValueLen)
			return true
		})
	}
	return monclient.Attributes{
		Map:     merged,
		Dropped: dropped,
	}
}

func spanKind(kind ptrace.SpanKind) string {
	switch kind {
	case ptrace.SpanKindServer:
		return "SERVER"
	case ptrace.SpanKindClient:
		return "CLIENT"
	case ptrace.SpanKindProducer:
		return "PRODUCER"
	case ptrace.SpanKindConsumer:
		return "CONSUMER"
	case ptrace.SpanKindInternal:
		return "INTERNAL"
	default:
		return ""
	}
}

func status(s ptrace.Status) *monclient.SpanStatus {
	switch s.Code() {
	case ptrace.StatusCodeOk:
		return &monclient.SpanStatus{Code: monclient.StatusCodeOK}
	case ptrace.StatusCodeError:
		return &monclient.SpanStatus{
			Code:    monclient.StatusCodeError,
			Message: s.Message(),
		}
	default:
		return nil
	}
}
