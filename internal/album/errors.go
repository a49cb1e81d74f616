package album

import (
	"errors"
	"fmt"
)

// ErrInvalidAlbum is returned for album names that cannot address a single
// directory directly below the managed root.
var ErrInvalidAlbum = errors.New("invalid album name")

// IndexingError reports a filesystem failure while scanning the managed root.
type IndexingError struct {
	Op   string
	Path string
	Err  error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IndexingError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies the error for transport status mapping.
func (e *IndexingError) ErrorKind() string {
	if errors.Is(e.Err, ErrInvalidAlbum) {
		return "validation"
	}
	return "indexing"
}
