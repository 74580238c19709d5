package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestDisabledMetricsAreNoop(t *testing.T) {
	m := New(Config{})
	m.Inc(MetricCodeIssued)
	m.Observe(MetricRedeemLatency, time.Millisecond)

	if m.Value(MetricCodeIssued) != 0 {
		t.Fatal("expected disabled counter to stay zero")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricCodeIssued)
	if nilMetrics.Enabled() {
		t.Fatal("nil metrics must report disabled")
	}
}

func TestConcurrentInc(t *testing.T) {
	m := New(Config{Enabled: true})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(MetricCodeRedeemed)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricCodeRedeemed); got != 16000 {
		t.Fatalf("expected 16000, got %d", got)
	}
}

func TestLatencyBuckets(t *testing.T) {
	m := New(Config{Enabled: true, EnableLatency: true})
	m.Observe(MetricRedeemLatency, 2*time.Millisecond)
	m.Observe(MetricRedeemLatency, 30*time.Millisecond)
	m.Observe(MetricRedeemLatency, time.Second)
	m.Observe(MetricCodeIssued, time.Second)

	snap := m.Snapshot()
	got := snap.Histograms[MetricRedeemLatency]
	want := []uint64{1, 0, 0, 1, 0, 0, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d: want %d, got %d (%v)", i, want[i], got[i], got)
		}
	}
	if _, ok := snap.Counters[MetricRedeemLatency]; ok {
		t.Fatal("latency metric must not appear as a counter")
	}
	if _, ok := snap.Histograms[MetricCodeIssued]; ok {
		t.Fatal("counter metric must not appear as a histogram")
	}
}
