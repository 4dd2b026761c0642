// Package prometheus renders tokenauth metrics in the Prometheus text format.
//
// [NewPrometheusExporter] accepts a [tokenauth.Authority] and exposes an
// [http.Handler]. Counter names are tokenauth_*_total; the single histogram is
// tokenauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate authority state.
package prometheus
