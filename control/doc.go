// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for hioload-net.
//
// Provides:
//   - Typed Config with defaults, HIOLOAD_* environment overrides and validation
//   - Prometheus collectors for accept/connect/session activity
//   - Store for values tuned while running, with reload listeners
//   - Named debug probes for state export
package control
