// Package infra groups the adapters behind the core interfaces: zerolog
// logging, Sentry monitoring, OpenTelemetry tracing, the MQTT publisher and
// the metrics sinks fed by calculation events.
package infra
