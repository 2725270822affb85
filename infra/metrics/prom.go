package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/nurapulse/pulse/core/metrics"
)

// PromSink records report and ingestion events in Prometheus metrics.
type PromSink struct {
	reports   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	rows      *prometheus.CounterVec
	breaches  prometheus.Counter
	malformed prometheus.Counter
	ingested  *prometheus.CounterVec
}

// NewPromSink registers report metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_reports_total",
			Help: "Total number of battery reports computed",
		}, []string{"kind", "failed"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pulse_report_duration_seconds",
			Help:    "Time spent computing a battery report",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_report_rows_total",
			Help: "Rows emitted by battery reports",
		}, []string{"kind"}),
		breaches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_low_charge_breaches_total",
			Help: "Low-charge audit breaches found",
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pulse_malformed_days_total",
			Help: "Vehicle days skipped because their telemetry was malformed",
		}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pulse_telemetry_samples_total",
			Help: "Telemetry samples received, by source and outcome",
		}, []string{"source", "outcome"}),
	}
	var err error
	if s.reports, err = register(reg, s.reports); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.rows, err = register(reg, s.rows); err != nil {
		return nil, err
	}
	if s.breaches, err = register(reg, s.breaches); err != nil {
		return nil, err
	}
	if s.malformed, err = register(reg, s.malformed); err != nil {
		return nil, err
	}
	if s.ingested, err = register(reg, s.ingested); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordReport updates the report counters and latency histogram.
func (s *PromSink) RecordReport(ev coremetrics.ReportEvent) error {
	s.reports.WithLabelValues(ev.Kind, strconv.FormatBool(ev.Failed)).Inc()
	if ev.Failed {
		return nil
	}
	s.latency.WithLabelValues(ev.Kind).Observe(ev.Duration.Seconds())
	s.rows.WithLabelValues(ev.Kind).Add(float64(ev.Rows))
	s.breaches.Add(float64(ev.Breaches))
	s.malformed.Add(float64(ev.Malformed))
	return nil
}

// RecordIngest counts accepted and rejected samples.
func (s *PromSink) RecordIngest(ev coremetrics.IngestEvent) error {
	s.ingested.WithLabelValues(ev.Source, "accepted").Add(float64(ev.Accepted))
	s.ingested.WithLabelValues(ev.Source, "rejected").Add(float64(ev.Rejected))
	return nil
}
