// Package metrics defines the observability sinks of the reporting service.
// A Sink records report computations and telemetry ingestion batches;
// concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves here so they can be selected from configuration. NewSink
// returns a MultiSink automatically when several sinks are configured.
package metrics
