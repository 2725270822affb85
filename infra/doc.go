// Package infra holds the adapters behind the core interfaces: telemetry
// stores, MQTT ingestion, metrics sinks, Sentry monitoring and logging.
// Nothing in core imports these packages; they register themselves or are
// wired by the app package.
package infra
