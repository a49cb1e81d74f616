package recordstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"stylesync/internal/fileutil"
)

// Backend stores encoded collections by name.
type Backend interface {
	// Read returns the encoded collection and whether it exists.
	Read(ctx context.Context, collection string) ([]byte, bool, error)
	// Write replaces the encoded collection atomically.
	Write(ctx context.Context, collection string, payload []byte) error
	Close() error
}

// FileBackend keeps each collection in <dir>/<collection>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Path returns the file backing the named collection.
func (b *FileBackend) Path(collection string) string {
	return filepath.Join(b.dir, collection+".json")
}

func (b *FileBackend) Read(_ context.Context, collection string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.Path(collection))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (b *FileBackend) Write(ctx context.Context, collection string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(b.Path(collection), payload, 0o644)
}

func (b *FileBackend) Close() error {
	return nil
}
