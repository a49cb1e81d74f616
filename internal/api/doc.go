// Package api defines wire-format types and the service facade shared by the
// HTTP daemon and the CLI. It translates album, upload, and job models into
// transport-friendly DTOs so consumers render them without coupling to
// internal types.
//
// # Key Types
//
// Service: one method per user-facing operation (upload a folder, list
// albums, create/list/clear/regenerate/complete jobs, upload history,
// status). Both front ends call the same methods.
//
// JobActionResult: the outcome of an action on a single job id. A missing id
// is reported as JobNotFound rather than an error.
//
// # Converters
//
// FromJob, FromUploadRecord, FromUploadResult: internal model -> DTO.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Errors carry an ErrorKind that transports map to status codes via KindOf.
package api
