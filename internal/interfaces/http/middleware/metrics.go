package middleware

import (
	"time"

	"github.com/erp/salescore/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var sizeBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000}

// HTTPMetrics records request count, latency and response size per route.
// Only the request counter carries status and tenant; latency and size are
// keyed by method and route to bound their cardinality. Spreadsheet
// exports make the size histogram worth keeping.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	in := telemetry.NewInstruments(meter)
	requests := in.Counter("http_server_request_total", "HTTP requests served", "{request}")
	latency := in.Histogram("http_server_request_duration_seconds", "HTTP request latency", "s", telemetry.HTTPDurationBuckets)
	sizes := in.Histogram("http_server_response_size_bytes", "HTTP response body size", "By", sizeBuckets)
	inflight := in.UpDown("http_server_active_requests", "HTTP requests in flight", "{request}")
	if err := in.Err(); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inflight.Add(ctx, 1)
		defer inflight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		byRoute := attribute.NewSet(
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		)
		counted := append(byRoute.ToSlice(), telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if p, ok := GetPrincipal(c); ok {
			counted = append(counted, telemetry.AttrTenantID.String(p.TenantID.String()))
		}

		requests.Add(ctx, 1, metric.WithAttributes(counted...))
		latency.Record(ctx, telemetry.Seconds(time.Since(start)), metric.WithAttributeSet(byRoute))
		if size := c.Writer.Size(); size > 0 {
			sizes.Record(ctx, float64(size), metric.WithAttributeSet(byRoute))
		}
	}, nil
}
