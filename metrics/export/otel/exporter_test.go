package otel

import (
	"context"
	"sync"
	"testing"

	codeAuth "github.com/MrEthical07/codeAuth"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot codeAuth.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() codeAuth.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := codeAuth.MetricsSnapshot{
		Counters:   make(map[codeAuth.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[codeAuth.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func newReader() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(rm metricdata.ResourceMetrics, name string) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					return data.DataPoints[0].Value, true
				}
			}
		}
	}
	return 0, false
}

func TestExporterCollectsSnapshot(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: codeAuth.MetricsSnapshot{
			Counters: map[codeAuth.MetricID]uint64{
				codeAuth.MetricCodeRedeemed: 3,
			},
			Histograms: map[codeAuth.MetricID][]uint64{
				codeAuth.MetricRedeemLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewExporterFromSource(provider.Meter("codeauth-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	checks := map[string]int64{
		"codeauth_code_redeemed_total":                   3,
		"codeauth_audit_dropped_total":                   1,
		"codeauth_redeem_latency_seconds_bucket_le_0_01": 2,
		"codeauth_redeem_latency_seconds_count":          8,
	}
	for name, want := range checks {
		got, ok := findSum(rm, name)
		if !ok {
			t.Fatalf("metric %s not collected", name)
		}
		if got != want {
			t.Fatalf("%s: want %d, got %d", name, want, got)
		}
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newReader()

	if _, err := NewExporterFromSource(provider.Meter("codeauth-test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollect(t *testing.T) {
	reader, provider := newReader()

	src := &fakeSource{
		snapshot: codeAuth.MetricsSnapshot{
			Counters:   map[codeAuth.MetricID]uint64{codeAuth.MetricLoginSuccess: 1},
			Histograms: map[codeAuth.MetricID][]uint64{},
		},
	}

	exp, err := NewExporterFromSource(provider.Meter("codeauth-test"), src)
	if err != nil {
		t.Fatalf("NewExporterFromSource: %v", err)
	}
	defer exp.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[codeAuth.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}
