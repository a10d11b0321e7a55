/*
Package observability exposes the framegraph engine to Prometheus.

Metrics plugs into the engine through lifecycle hooks (ticks, node executions,
node failures) and wraps the output publisher to export the control record and
trail length of the latest frame.
*/
package observability
