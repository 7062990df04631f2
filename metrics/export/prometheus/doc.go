// Package prometheus renders quizClient metrics in Prometheus text exposition format.
//
// [NewPrometheusExporter] accepts a [quizClient.Manager] and exposes an [http.Handler]
// suitable for a debug listener in a long-running client. Counter names are prefixed
// quizclient_*_total; the single histogram is quizclient_avatar_fetch_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry. Callers mount the Handler.
//   - Mutate session state.
package prometheus
