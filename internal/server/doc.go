// Package server holds the runtime plumbing shared by slotbot's commands.
//
// ServerContext bundles the booking service, the conversation state store
// and the instrumentation handles that the MCP tools need.
//
// MetricsServer exposes operational endpoints on a dedicated port:
//   - /metrics: Prometheus scrape endpoint backed by the provider's registry
//   - /healthz: liveness
//   - /readyz: readiness, including a state store round trip
//   - /healthz/detailed: uptime, calendar, policy and active conversations
package server
