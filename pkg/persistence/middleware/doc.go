// Package middleware decorates a ports.StateStore. Its one concrete middleware seals every
// persisted accumulator with AES-GCM, with fallback keys for rotation.
package middleware
