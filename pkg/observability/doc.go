/*
Package observability exposes session activity to operators.

Metrics turns session events into Prometheus series, LogHooks writes them as
structured log lines, and NewHandler serves both the metrics and a snapshot of
the current session over HTTP.
*/
package observability
