// Package preflight provides readiness checks for the filesystem paths
// stylesync writes to.
//
// The daemon runs RunAll at startup and refuses to serve when a required
// directory is unusable. The status operation reports the same results so a
// misconfigured workspace is visible without reading logs.
package preflight
