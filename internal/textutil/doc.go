// Package textutil provides the string handling shared by album indexing and
// upload ingestion.
//
// The primary use cases are:
//   - Natural, case-insensitive ordering of album and image names
//   - Normalizing client-supplied relative paths (separators, Unicode NFC)
//   - Sanitizing album path segments for safe filesystem use
package textutil
