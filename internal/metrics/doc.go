// Package metrics records Prometheus metrics for feed builds and can persist
// them as a node-exporter textfile so scheduled builds are observable
// without a long-running HTTP endpoint.
package metrics
