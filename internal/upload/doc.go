// Package upload ingests batches of uploaded image files into the managed
// album tree.
//
// Each file is sniffed, checked against the declared type, routed to
// <root>/<album>/<subpath> with a sanitized album name, and confined to its
// album directory before it is moved into place. Accepted files are appended
// to the upload log in one locked update per batch. Staging helpers spool
// multipart parts or a local directory into temporary files first so the
// ingestor only ever moves content it owns.
package upload
