// Package prometheus renders reelauth metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] reads [reelauth.Engine.MetricsSnapshot] on every
// scrape. Counter names are reelauth_*_total; the single histogram is
// reelauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry; callers mount [PrometheusExporter.Handler].
//   - Mutate engine state.
package prometheus
