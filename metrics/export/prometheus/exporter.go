package prometheus

import (
	"net/http"

	codeAuth "github.com/MrEthical07/codeAuth"
	"github.com/MrEthical07/codeAuth/metrics/export/internaldefs"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsSource interface {
	MetricsSnapshot() codeAuth.MetricsSnapshot
	AuditDropped() uint64
}

// Collector is a [prom.Collector] that reads engine metrics on every scrape.
type Collector struct {
	source     metricsSource
	counters   []*prom.Desc
	histograms []*prom.Desc
	dropped    *prom.Desc
}

var _ prom.Collector = (*Collector)(nil)

// NewCollector creates a collector backed by engine.
func NewCollector(engine *codeAuth.Engine) *Collector {
	return NewCollectorFromSource(engine)
}

// NewCollectorFromSource creates a collector backed by any snapshot source.
func NewCollectorFromSource(source metricsSource) *Collector {
	c := &Collector{
		source:     source,
		counters:   make([]*prom.Desc, len(internaldefs.CounterDefs)),
		histograms: make([]*prom.Desc, len(internaldefs.HistogramDefs)),
		dropped: prom.NewDesc(
			"codeauth_audit_dropped_total",
			"Audit events dropped because the dispatcher buffer was full.",
			nil, nil,
		),
	}
	for i, def := range internaldefs.CounterDefs {
		c.counters[i] = prom.NewDesc(def.Name, def.Help, nil, nil)
	}
	for i, def := range internaldefs.HistogramDefs {
		c.histograms[i] = prom.NewDesc(def.Name, def.Help, nil, nil)
	}
	return c
}

func (c *Collector) Describe(ch chan<- *prom.Desc) {
	for _, d := range c.counters {
		ch <- d
	}
	for _, d := range c.histograms {
		ch <- d
	}
	ch <- c.dropped
}

func (c *Collector) Collect(ch chan<- prom.Metric) {
	if c.source == nil {
		return
	}
	snapshot := c.source.MetricsSnapshot()

	for i, def := range internaldefs.CounterDefs {
		ch <- prom.MustNewConstMetric(c.counters[i], prom.CounterValue, float64(snapshot.Counters[def.ID]))
	}

	for i, def := range internaldefs.HistogramDefs {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID]))
		buckets := make(map[float64]uint64, len(internaldefs.HistogramUpperBounds))
		for j, bound := range internaldefs.HistogramUpperBounds {
			buckets[bound] = cumulative[j]
		}
		// Snapshots carry no sum.
		ch <- prom.MustNewConstHistogram(c.histograms[i], cumulative[len(cumulative)-1], 0, buckets)
	}

	ch <- prom.MustNewConstMetric(c.dropped, prom.CounterValue, float64(c.source.AuditDropped()))
}

// Handler serves the collector from a private registry, leaving the global
// default registry untouched.
func Handler(c *Collector) http.Handler {
	reg := prom.NewRegistry()
	reg.MustRegister(c)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
