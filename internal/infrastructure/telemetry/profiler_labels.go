package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys.
const (
	ProfilingLabelRoute        = "route"
	ProfilingLabelMethod       = "method"
	ProfilingLabelTenantID     = "tenant_id"
	ProfilingLabelOperation    = "operation"
	ProfilingLabelDocumentType = "document_type"
)

// MaxLabelValueLength caps label values to keep series cardinality bounded.
const MaxLabelValueLength = 128

// highCardinalityLabels are dropped before reaching Pyroscope.
var highCardinalityLabels = map[string]bool{
	"user_id":     true,
	"request_id":  true,
	"document_id": true,
	"trace_id":    true,
	"span_id":     true,
}

// WithProfilingLabels runs fn with the given pprof labels attached.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := sanitizeLabels(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// sanitizeLabels returns sorted key/value pairs without empty,
// high cardinality or oversized entries.
func sanitizeLabels(labels map[string]string) []string {
	if len(labels) == 0 {
		return nil
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(labels)*2)
	for _, key := range keys {
		value := labels[key]
		key = sanitizeLabelKey(key)
		if key == "" || value == "" || highCardinalityLabels[key] {
			continue
		}
		if len(value) > MaxLabelValueLength {
			value = value[:MaxLabelValueLength]
		}
		pairs = append(pairs, key, value)
	}
	return pairs
}

// sanitizeLabelKey lowercases the key and keeps only [a-z0-9_].
func sanitizeLabelKey(key string) string {
	key = strings.ToLower(key)
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)

	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// HTTPRequestLabels builds the labels used by the profiling middleware.
func HTTPRequestLabels(route, method, tenantID string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:    route,
		ProfilingLabelMethod:   method,
		ProfilingLabelTenantID: tenantID,
	}
}

// SalesOperationLabels labels a document engine operation such as transfer or void.
func SalesOperationLabels(operation, documentType string) map[string]string {
	return map[string]string{
		ProfilingLabelOperation:    operation,
		ProfilingLabelDocumentType: documentType,
	}
}
