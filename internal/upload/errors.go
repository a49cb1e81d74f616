package upload

import (
	"errors"
	"fmt"
)

// Per-file skip reasons. Each skipped file is reported as a FileError wrapping
// one of these.
var (
	ErrTransport       = errors.New("transport error")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTypeMismatch    = errors.New("content type does not match declared type")
	ErrTooLarge        = errors.New("file exceeds size limit")
	ErrBatchLimit      = errors.New("batch file limit exceeded")
	ErrPathEscape      = errors.New("destination escapes album directory")
)

// FileError describes why one file of a batch was not stored.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ValidationError reports unusable caller input. Nothing is stored when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorKind classifies the error for transport status mapping.
func (e *ValidationError) ErrorKind() string {
	return "validation"
}

// reason maps a per-file failure to the short label used in results and metrics.
func reason(err error) string {
	for _, known := range []error{ErrTransport, ErrUnsupportedType, ErrTypeMismatch, ErrTooLarge, ErrBatchLimit, ErrPathEscape} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "storage error"
}
