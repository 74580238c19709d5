package otel

import (
	"context"
	"errors"
	"fmt"

	codeAuth "github.com/MrEthical07/codeAuth"
	"github.com/MrEthical07/codeAuth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() codeAuth.MetricsSnapshot
	AuditDropped() uint64
}

// reading is the state observed in one collection.
type reading struct {
	snap       codeAuth.MetricsSnapshot
	cumulative map[codeAuth.MetricID][8]uint64
	dropped    uint64
}

// binding ties one asynchronous instrument to the value it reports.
type binding struct {
	instrument metric.Int64Observable
	value      func(*reading) uint64
}

// Exporter publishes engine metrics as asynchronous OpenTelemetry
// instruments. Histogram buckets are exposed as cumulative gauges named
// <histogram>_bucket_le_<bound>.
type Exporter struct {
	source       metricsSource
	bindings     []binding
	registration metric.Registration
}

// NewExporter registers instruments on meter that read engine on each
// collection.
func NewExporter(meter metric.Meter, engine *codeAuth.Engine) (*Exporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource is NewExporter for any snapshot provider.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source}
	counter := func(name, help string, value func(*reading) uint64) error {
		ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
		if err != nil {
			return fmt.Errorf("otel counter %s: %w", name, err)
		}
		e.bindings = append(e.bindings, binding{instrument: ins, value: value})
		return nil
	}
	gauge := func(name, help string, value func(*reading) uint64) error {
		ins, err := meter.Int64ObservableGauge(name, metric.WithDescription(help))
		if err != nil {
			return fmt.Errorf("otel gauge %s: %w", name, err)
		}
		e.bindings = append(e.bindings, binding{instrument: ins, value: value})
		return nil
	}

	for _, def := range internaldefs.CounterDefs {
		id := def.ID
		if err := counter(def.Name, def.Help, func(r *reading) uint64 { return r.snap.Counters[id] }); err != nil {
			return nil, err
		}
	}
	for _, def := range internaldefs.HistogramDefs {
		id := def.ID
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			if err := gauge(name, "Cumulative bucket of "+def.Help, func(r *reading) uint64 { return r.cumulative[id][i] }); err != nil {
				return nil, err
			}
		}
		last := len(internaldefs.HistogramBoundSuffix) - 1
		if err := gauge(def.Name+"_count", "Samples observed by "+def.Help, func(r *reading) uint64 { return r.cumulative[id][last] }); err != nil {
			return nil, err
		}
	}
	if err := counter("codeauth_audit_dropped_total", "Audit events dropped by the dispatcher.", func(r *reading) uint64 { return r.dropped }); err != nil {
		return nil, err
	}

	observables := make([]metric.Observable, len(e.bindings))
	for i, b := range e.bindings {
		observables[i] = b.instrument
	}
	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("otel register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	r := &reading{
		snap:       e.source.MetricsSnapshot(),
		cumulative: make(map[codeAuth.MetricID][8]uint64, len(internaldefs.HistogramDefs)),
		dropped:    e.source.AuditDropped(),
	}
	for _, def := range internaldefs.HistogramDefs {
		r.cumulative[def.ID] = internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(r.snap.Histograms[def.ID]))
	}
	for _, b := range e.bindings {
		o.ObserveInt64(b.instrument, int64(b.value(r)))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
