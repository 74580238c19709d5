package metrics

import (
	"sync/atomic"
	"time"
)

// MetricID indexes a counter or histogram slot.
type MetricID uint16

const (
	MetricCodeIssued MetricID = iota
	MetricCodeIssueFailure
	MetricCodeRedeemed
	MetricCodeRedeemFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricLoginRateLimited
	MetricIssueRateLimited
	MetricPasswordReset
	MetricPasswordSetup
	MetricNotifyFailure
	MetricValidationFailure
	MetricRedeemLatency
	MetricIDCount
)

// HistBucketCount is the number of latency buckets, +Inf included.
const HistBucketCount = 8

// bucketBounds are the inclusive upper bounds of every finite bucket.
var bucketBounds = [HistBucketCount - 1]time.Duration{
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// slot keeps each counter on its own cache line.
type slot struct {
	atomic.Uint64
	_ [56]byte
}

// Config toggles collection.
type Config struct {
	Enabled       bool
	EnableLatency bool
}

// Metrics holds the in-process counters. A nil or disabled Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [MetricIDCount]slot
	redeemLatency [HistBucketCount]atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters and histograms.
// Histogram buckets are per-bucket counts, not cumulative.
type Snapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatency,
	}
}

func (m *Metrics) Enabled() bool { return m != nil && m.enabled }

func (m *Metrics) LatencyEnabled() bool { return m != nil && m.enableLatency }

func (m *Metrics) Inc(id MetricID) {
	if !m.Enabled() || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Observe records d for a latency metric. Non-latency IDs are ignored.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if id != MetricRedeemLatency || !m.LatencyEnabled() {
		return
	}
	m.redeemLatency[bucketFor(d)].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Counters:   make(map[MetricID]uint64, int(MetricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	if !m.Enabled() {
		return s
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		if id != MetricRedeemLatency {
			s.Counters[id] = m.counters[id].Load()
		}
	}
	if m.enableLatency {
		buckets := make([]uint64, HistBucketCount)
		for i := range buckets {
			buckets[i] = m.redeemLatency[i].Load()
		}
		s.Histograms[MetricRedeemLatency] = buckets
	}
	return s
}

// bucketFor truncates d to whole milliseconds before comparing, so 5.9ms
// still lands in the 5ms bucket.
func bucketFor(d time.Duration) int {
	d = d.Truncate(time.Millisecond)
	for i, bound := range bucketBounds {
		if d <= bound {
			return i
		}
	}
	return HistBucketCount - 1
}
