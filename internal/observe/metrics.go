// Package observe provides application-wide observability primitives for
// chatterbox: OpenTelemetry metrics, distributed tracing, and structured
// logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still
// be scraped via the standard /metrics endpoint. A package-level default
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

// meterName is the instrumentation scope name used for all chatterbox metrics.
const meterName = "github.com/arvidsson/chatterbox"

// latencyBuckets defines histogram bucket boundaries (in seconds) suited to
// in-process learn/reply latencies.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// Metrics holds all OpenTelemetry metric instruments the brain records
// around learn and reply. All fields are safe for concurrent use — the
// underlying OTel types handle their own synchronisation.
type Metrics struct {
	// LearnDuration tracks how long a single Learn call takes.
	LearnDuration metric.Float64Histogram

	// ReplyDuration tracks how long a single Reply call takes, including the
	// full candidate search loop.
	ReplyDuration metric.Float64Histogram

	// TokensLearnedTotal counts tokens absorbed across all Learn calls.
	TokensLearnedTotal metric.Int64Counter

	// CandidatesGenerated counts candidate replies produced during search.
	CandidatesGenerated metric.Int64Counter

	// CandidatesRejected counts candidates rejected as echoes of the input.
	CandidatesRejected metric.Int64Counter

	// ReplyFallbacks counts replies that fell back to the fixed fallback
	// string (empty model or exhausted search).
	ReplyFallbacks metric.Int64Counter

	// HTTPRequestDuration tracks latency of the health/readiness HTTP server.
	HTTPRequestDuration metric.Float64Histogram
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.LearnDuration, err = m.Float64Histogram("chatterbox.learn.duration",
		metric.WithDescription("Latency of a single Learn call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ReplyDuration, err = m.Float64Histogram("chatterbox.reply.duration",
		metric.WithDescription("Latency of a single Reply call, including candidate search."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TokensLearnedTotal, err = m.Int64Counter("chatterbox.tokens_learned.total",
		metric.WithDescription("Total tokens absorbed across all Learn calls."),
	); err != nil {
		return nil, err
	}
	if met.CandidatesGenerated, err = m.Int64Counter("chatterbox.candidates_generated.total",
		metric.WithDescription("Total candidate replies generated during search."),
	); err != nil {
		return nil, err
	}
	if met.CandidatesRejected, err = m.Int64Counter("chatterbox.candidates_rejected.total",
		metric.WithDescription("Total candidates rejected as echoes of the input utterance."),
	); err != nil {
		return nil, err
	}
	if met.ReplyFallbacks, err = m.Int64Counter("chatterbox.reply_fallbacks.total",
		metric.WithDescription("Total replies that fell back to the fixed fallback string."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("chatterbox.http.request.duration",
		metric.WithDescription("Latency of the health/readiness HTTP server's requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordLearn records one Learn call's duration and tokens absorbed.
func (m *Metrics) RecordLearn(ctx context.Context, seconds float64, tokens int) {
	m.LearnDuration.Record(ctx, seconds)
	if tokens > 0 {
		m.TokensLearnedTotal.Add(ctx, int64(tokens))
	}
}

// RecordReply records one Reply call's duration.
func (m *Metrics) RecordReply(ctx context.Context, seconds float64) {
	m.ReplyDuration.Record(ctx, seconds)
}

// RecordCandidate records one generated candidate, and whether it was
// rejected as an echo of the input.
func (m *Metrics) RecordCandidate(ctx context.Context, rejected bool) {
	m.CandidatesGenerated.Add(ctx, 1)
	if rejected {
		m.CandidatesRejected.Add(ctx, 1)
	}
}

// RecordFallback records that a reply fell back to the fixed fallback string.
func (m *Metrics) RecordFallback(ctx context.Context) {
	m.ReplyFallbacks.Add(ctx, 1)
}
