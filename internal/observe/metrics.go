// Package observe records pipeline metrics through the OpenTelemetry metrics
// API.
//
// A Provider wires an SDK MeterProvider to a Prometheus exporter backed by a
// private registry, so a run can dump its counters to a node_exporter
// textfile when it ends. Tests build Metrics over a ManualReader instead.
// All Metrics methods are no-ops on a nil receiver.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "scrollback"

// Metrics holds the pipeline instruments.
type Metrics struct {
	ImagesProcessed metric.Int64Counter
	ImagesFailed    metric.Int64Counter
	MessagesEmitted metric.Int64Counter
	MessagesDropped metric.Int64Counter
	MessagesFlagged metric.Int64Counter
	JudgeRequests   metric.Int64Counter
	JudgeErrors     metric.Int64Counter
	JudgeDuration   metric.Float64Histogram
}

var judgeBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&met.ImagesProcessed, "scrollback.images.processed", "Screenshots classified."},
		{&met.ImagesFailed, "scrollback.images.failed", "Screenshots that could not be loaded or yielded no text."},
		{&met.MessagesEmitted, "scrollback.messages.emitted", "Messages written by the extract stage."},
		{&met.MessagesDropped, "scrollback.messages.dropped", "Messages removed by deduplication or the naturalness floor, by reason."},
		{&met.MessagesFlagged, "scrollback.messages.flagged", "Messages flagged for review."},
		{&met.JudgeRequests, "scrollback.judge.requests", "External judge calls by provider."},
		{&met.JudgeErrors, "scrollback.judge.errors", "Failed external judge calls by provider."},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	if met.JudgeDuration, err = m.Float64Histogram("scrollback.judge.duration",
		metric.WithDescription("Latency of external judge calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(judgeBuckets...),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// ImageProcessed counts one classified screenshot.
func (m *Metrics) ImageProcessed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ImagesProcessed.Add(ctx, 1)
}

// ImageFailed counts one screenshot that produced nothing.
func (m *Metrics) ImageFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.ImagesFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// Emitted counts messages written by extraction.
func (m *Metrics) Emitted(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesEmitted.Add(ctx, int64(n))
}

// Dropped counts removed messages. reason is "exact", "near" or "filtered".
func (m *Metrics) Dropped(ctx context.Context, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// Flagged counts messages marked needs_review.
func (m *Metrics) Flagged(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MessagesFlagged.Add(ctx, int64(n))
}

// JudgeCall records one external judge call.
func (m *Metrics) JudgeCall(ctx context.Context, provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.JudgeRequests.Add(ctx, 1, attrs)
	m.JudgeDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err != nil {
		m.JudgeErrors.Add(ctx, 1, attrs)
	}
}
