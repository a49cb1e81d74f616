// Package daemon runs the long-lived stylesync process.
//
// It wires configuration, the record stores, and the metrics collector into
// a single lifecycle with flock-based locking to prevent multiple instances
// over one data directory. The HTTP API server and the completion consumer
// run side by side under an errgroup; either failing stops both.
//
// Keep orchestration here: request semantics live in internal/api, and the
// handlers in this package only decode requests and map outcomes to status
// codes.
package daemon
