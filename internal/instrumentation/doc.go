// Package instrumentation provides OpenTelemetry instrumentation for inboxcrm.
//
// # Metrics
//
// CRM API Metrics:
//   - crm_api_calls_total: Counter of data API attempts by method and status class
//   - crm_api_call_duration_seconds: Histogram of data API attempt durations
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of interactive authorizations by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for every CRM API attempt (crm.<METHOD>) and every MCP
// tool invocation (tool.<name>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: inboxcrm)
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a provider.
package instrumentation
