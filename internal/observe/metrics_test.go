package observe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %s not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %s is %T, want Sum[int64]", name, met.Data)
	}
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestCountersRecord(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ImageProcessed(ctx)
	m.ImageProcessed(ctx)
	m.ImageFailed(ctx, "no_text")
	m.Emitted(ctx, 5)
	m.Dropped(ctx, "exact", 2)
	m.Dropped(ctx, "near", 1)
	m.Dropped(ctx, "near", 0)
	m.Flagged(ctx, 3)

	rm := collect(t, reader)
	checks := []struct {
		name  string
		attrs []attribute.KeyValue
		want  int64
	}{
		{name: "scrollback.images.processed", want: 2},
		{name: "scrollback.images.failed", attrs: []attribute.KeyValue{attribute.String("reason", "no_text")}, want: 1},
		{name: "scrollback.messages.emitted", want: 5},
		{name: "scrollback.messages.dropped", attrs: []attribute.KeyValue{attribute.String("reason", "exact")}, want: 2},
		{name: "scrollback.messages.dropped", attrs: []attribute.KeyValue{attribute.String("reason", "near")}, want: 1},
		{name: "scrollback.messages.flagged", want: 3},
	}
	for _, c := range checks {
		if got := sumValue(t, rm, c.name, c.attrs...); got != c.want {
			t.Errorf("%s%v = %d, want %d", c.name, c.attrs, got, c.want)
		}
	}
}

func TestJudgeCallRecordsLatencyAndErrors(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.JudgeCall(ctx, "ollama", 300*time.Millisecond, nil)
	m.JudgeCall(ctx, "ollama", 2*time.Second, errors.New("timeout"))

	rm := collect(t, reader)
	provider := attribute.String("provider", "ollama")
	if got := sumValue(t, rm, "scrollback.judge.requests", provider); got != 2 {
		t.Fatalf("judge.requests = %d", got)
	}
	if got := sumValue(t, rm, "scrollback.judge.errors", provider); got != 1 {
		t.Fatalf("judge.errors = %d", got)
	}
	met := findMetric(rm, "scrollback.judge.duration")
	if met == nil {
		t.Fatal("judge.duration not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 2 {
		t.Fatalf("unexpected histogram: %+v", met.Data)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.ImageProcessed(ctx)
	m.ImageFailed(ctx, "x")
	m.Emitted(ctx, 1)
	m.Dropped(ctx, "near", 1)
	m.Flagged(ctx, 1)
	m.JudgeCall(ctx, "ollama", time.Second, nil)
	if NewNop() == nil {
		t.Fatal("NewNop returned nil")
	}
}

func TestProviderWritesTextfile(t *testing.T) {
	p, err := NewProvider("test")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer p.Shutdown(context.Background())

	p.Metrics.Emitted(context.Background(), 4)
	path := filepath.Join(t.TempDir(), "scrollback.prom")
	if err := p.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), "scrollback_messages_emitted") {
		t.Fatalf("textfile missing counter:\n%s", data)
	}
	if !strings.Contains(string(data), `service_name="scrollback"`) {
		t.Fatalf("textfile missing service resource:\n%s", data)
	}
	if err := p.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}
