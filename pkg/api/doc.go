/*
Package api serves the node's operational HTTP surface: /healthz,
/statusz and /metrics. This is ops-only; the client-facing HTTP API is
a separate component.
*/
package api
