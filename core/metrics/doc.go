// Package metrics defines the observability boundary of the calculator.
// Every calculation produces a CalculationEvent which is handed to a Sink.
// Sinks like the Prometheus, InfluxDB and MQTT adapters in infra/metrics
// register themselves by type name and are combined with NewMultiSink when
// several are configured.
package metrics
