// Package metrics collects Prometheus metrics for one sync run.
//
// Each run owns a private registry so nothing leaks between runs or tests.
// When a textfile path is configured the registry is written in the
// Prometheus text format for node_exporter's textfile collector.
package metrics
