/*
Package session orchestrates concurrent access to persisted accumulators.

A Manager wraps a ports.StateStore with per-session locking, optionally backed by a
ports.DistributedLocker so several replicas can serve the same session. Update is the
read-modify-write primitive the transports build on.
*/
package session
