// Command stylesync manages a local stylesync workspace: it ingests album
// folders, inspects the upload log, drives the job queue, and can serve the
// HTTP API in the foreground.
//
// Commands operate directly on the configured data directory. With the
// default file lock the CLI and a running daemon can share the workspace.
package main
