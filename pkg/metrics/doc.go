// Package metrics defines the node's Prometheus collectors.
package metrics
