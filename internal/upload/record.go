package upload

import "time"

// Record is one entry of the append-only upload log.
type Record struct {
	Album        string       `json:"album"`
	StoredPath   string       `json:"stored_path"`
	OriginalPath string       `json:"original_path"`
	MIME         string       `json:"mime"`
	DeclaredType DeclaredType `json:"declared_type"`
	DeclaredMIME *string      `json:"declared_mime"`
	CreatedAt    time.Time    `json:"created_at"`
}

// File is one uploaded file staged on local disk.
type File struct {
	// RelativePath is the client-side path, album folder first.
	RelativePath string
	// TempPath holds the staged content. It is moved, not copied, on success.
	TempPath string
	// Err records a transport failure for this file.
	Err error
}
