package upload

import "fmt"

// SkippedFile names a file that was not stored and why.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result summarizes one ingestion batch.
type Result struct {
	Handled      int           `json:"handled"`
	Skipped      int           `json:"skipped"`
	ActiveAlbum  string        `json:"active_album"`
	SkippedFiles []SkippedFile `json:"skipped_files"`
}

// Notice renders the user-facing message for the batch.
func (r Result) Notice() string {
	switch {
	case r.Handled == 0 && r.Skipped == 0:
		return "Please choose a folder with images."
	case r.Handled > 0 && r.Skipped > 0:
		return fmt.Sprintf("Uploaded %d image(s). Skipped %d (type mismatch or error).", r.Handled, r.Skipped)
	case r.Handled > 0:
		return fmt.Sprintf("Uploaded %d image(s) into album “%s”.", r.Handled, r.ActiveAlbum)
	default:
		return "No valid images found or all mismatched for the chosen file type."
	}
}
