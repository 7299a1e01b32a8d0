// Package otelmap converts OpenTelemetry resources, attributes and
// timestamps into the shapes the monitoring backend accepts.
package otelmap

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/collector/pdata/pcommon"

	"github.com/go-faster/cloudmon/monclient"
)

// Backend field limits.
const (
	// MaxLabelKeyLen is the maximum length of a label key.
	MaxLabelKeyLen = 100
	// MaxLabelValueLen is the maximum length of a label value.
	MaxLabelValueLen = 1024
)

// SanitizeKey converts an attribute key to a valid backend label key: the
// first character is a letter or underscore, the rest are alphanumeric or
// underscore, at most [MaxLabelKeyLen] bytes. Never fails.
func SanitizeKey(key string) string {
	if len(key) > MaxLabelKeyLen {
		key = key[:MaxLabelKeyLen]
	}
	isDigit := func(r rune) bool {
		return r >= '0' && r <= '9'
	}
	isAlpha := func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}

	var label strings.Builder
	for i, r := range key {
		switch {
		case isDigit(r):
			// Label could not start with digit.
			if i == 0 {
				label.WriteString("_")
				goto slow
			}
		case r == '_' || isAlpha(r):
		default:
			label.WriteString(key[:i])
			key = key[i:]
			goto slow
		}
	}
	return key
slow:
	for _, r := range key {
		if r == '_' || isDigit(r) || isAlpha(r) {
			label.WriteRune(r)
			continue
		}
		// Replace rune with '_'.
		label.WriteByte('_')
	}
	// The leading underscore may push a key of exactly MaxLabelKeyLen
	// bytes over the limit.
	out := label.String()
	if len(out) > MaxLabelKeyLen {
		out = out[:MaxLabelKeyLen]
	}
	return out
}

// ValueString renders an attribute value as a backend label value.
func ValueString(v pcommon.Value) string {
	switch v.Type() {
	case pcommon.ValueTypeStr:
		return v.Str()
	case pcommon.ValueTypeInt:
		return strconv.FormatInt(v.Int(), 10)
	case pcommon.ValueTypeDouble:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case pcommon.ValueTypeBool:
		return strconv.FormatBool(v.Bool())
	default:
		return v.AsString()
	}
}

// Truncate shortens s to at most limit bytes without splitting a rune.
// Returns the truncated string and the number of bytes removed.
func Truncate(s string, limit int) (string, int) {
	if len(s) <= limit {
		return s, 0
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut], len(s) - cut
}

// MergeLabels sanitizes and merges attribute maps into backend labels on
// top of extra. On key collision the later map wins, so pass maps in
// resource, scope, record order.
func MergeLabels(extra map[string]string, maps ...pcommon.Map) map[string]string {
	labels := make(map[string]string, len(extra))
	for k, v := range extra {
		labels[k] = v
	}
	for _, m := range maps {
		m.Range(func(k string, v pcommon.Value) bool {
			value, _ := Truncate(ValueString(v), MaxLabelValueLen)
			labels[SanitizeKey(k)] = value
			return true
		})
	}
	return labels
}

// Scope label keys identifying the producer library.
const (
	ScopeNameKey    = "instrumentation_source"
	ScopeVersionKey = "instrumentation_version"
)

// ScopeLabels maps an instrumentation scope to backend labels.
func ScopeLabels(scope pcommon.InstrumentationScope) map[string]string {
	labels := MergeLabels(nil, scope.Attributes())
	if name := scope.Name(); name != "" {
		labels[ScopeNameKey] = name
	}
	if version := scope.Version(); version != "" {
		labels[ScopeVersionKey] = version
	}
	return labels
}

// ResourceTypeKey is the resource attribute selecting the monitored
// resource type. Resources without it map to [DefaultResourceType].
const ResourceTypeKey = "cloudmon.resource.type"

// DefaultResourceType is the fallback monitored resource type.
const DefaultResourceType = "generic_node"

// MonitoredResource maps a resource to the backend monitored resource.
func MonitoredResource(res pcommon.Resource) monclient.MonitoredResource {
	attrs := res.Attributes()
	typ := DefaultResourceType
	if v, ok := attrs.Get(ResourceTypeKey); ok {
		typ = v.Str()
	}
	labels := make(map[string]string, attrs.Len())
	attrs.Range(func(k string, v pcommon.Value) bool {
		if k == ResourceTypeKey {
			return true
		}
		value, _ := Truncate(ValueString(v), MaxLabelValueLen)
		labels[SanitizeKey(k)] = value
		return true
	})
	return monclient.MonitoredResource{
		Type:   typ,
		Labels: labels,
	}
}

// Interval converts a start/end timestamp pair to a backend interval.
//
// The backend rejects intervals whose end does not strictly follow the
// start, while cumulative instruments may legitimately report both at the
// same instant. Policy: an end time at or before the start time is nudged
// forward by one nanosecond, the smallest representable unit.
func Interval(start, end pcommon.Timestamp) monclient.TimeInterval {
	startTime := start.AsTime()
	endTime := end.AsTime()
	if !endTime.After(startTime) {
		endTime = startTime.Add(time.Nanosecond)
	}
	return monclient.TimeInterval{
		StartTime: startTime,
		EndTime:   endTime,
	}
}

// Point converts a single end timestamp to a gauge interval.
func Point(end pcommon.Timestamp) monclient.TimeInterval {
	return monclient.TimeInterval{EndTime: end.AsTime()}
}
