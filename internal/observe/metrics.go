// Package observe provides application-wide observability primitives for
// cuetrack: OpenTelemetry metrics, tracing, and HTTP middleware that ties
// them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all cuetrack metrics.
const meterName = "github.com/cuetrack/cuetrack"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// RecognitionEvents counts recognition events received, by processing
	// outcome. Use with attribute.String("outcome", "matched"|"no_match"|"skipped").
	RecognitionEvents metric.Int64Counter

	// Matches counts successful alignment matches.
	Matches metric.Int64Counter

	// CursorAdvance tracks the per-match cursor delta distribution. Large
	// advances indicate the matcher is jumping over unspoken script words.
	CursorAdvance metric.Int64Histogram

	// TranscriptLength tracks the aggregated snapshot length in runes.
	TranscriptLength metric.Int64Histogram

	// ActiveSessions tracks the number of live tracking sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// advanceBuckets defines histogram boundaries for cursor advances. Matches
// land in [1, lookahead], so single-digit buckets cover the useful range.
var advanceBuckets = []float64{1, 2, 3, 4, 5, 8, 13}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.RecognitionEvents, err = m.Int64Counter("cuetrack.recognition.events",
		metric.WithDescription("Total recognition events received, by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Matches, err = m.Int64Counter("cuetrack.matches",
		metric.WithDescription("Total successful alignment matches."),
	); err != nil {
		return nil, err
	}
	if met.CursorAdvance, err = m.Int64Histogram("cuetrack.cursor.advance",
		metric.WithDescription("Cursor delta per alignment match, in words."),
		metric.WithUnit("{word}"),
		metric.WithExplicitBucketBoundaries(advanceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptLength, err = m.Int64Histogram("cuetrack.transcript.length",
		metric.WithDescription("Aggregated transcript snapshot length in runes."),
		metric.WithUnit("{rune}"),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("cuetrack.active_sessions",
		metric.WithDescription("Number of live tracking sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("cuetrack.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordEvent records a recognition event with its processing outcome.
func (m *Metrics) RecordEvent(ctx context.Context, outcome string) {
	m.RecognitionEvents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordMatch records a successful alignment match and its cursor advance.
func (m *Metrics) RecordMatch(ctx context.Context, advance int) {
	m.Matches.Add(ctx, 1)
	m.CursorAdvance.Record(ctx, int64(advance))
}
