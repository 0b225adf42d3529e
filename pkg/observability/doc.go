/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured log records.

Both are plain domain.LifecycleHooks, so they compose with Merge and with any hooks
the host registers itself.
*/
package observability
