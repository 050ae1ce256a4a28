// Package server provides the MCP server context and the optional metrics
// HTTP server for the inboxcrm application.
//
// # Key Components
//
// ServerContext carries the CRM client, the auth flow, the request executor
// and the Gmail service used to resolve the current mail item. The Gmail
// service is created lazily on first use and cached.
//
// MetricsServer serves Prometheus metrics and health probes on a dedicated
// address when the instrumentation provider uses the prometheus exporter:
//   - /metrics: promhttp handler
//   - /healthz: liveness
//   - /readyz: readiness, including the CRM session state
package server
