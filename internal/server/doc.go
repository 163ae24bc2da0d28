// Package server implements the HTTP surfaces of the dockhand daemon.
//
// This package provides:
//   - The trigger route: any method on /{name} redeploys the named
//     composition and reports the outcome as a status code and a short
//     plain-text body
//   - An optional admin server on a separate listener with health and
//     Prometheus metrics endpoints
//   - Structured logging of all HTTP requests
//
// The server integrates with other packages:
//   - internal/composition: Configuration and the composition registry
//   - internal/deploy: Redeploy execution and outcome classification
//
// Security features:
//   - Bearer token authentication with constant-time comparison
//   - Per-IP rate limiting ahead of authentication
//   - Optional per-composition redeploy locking
package server
