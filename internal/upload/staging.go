package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"stylesync/internal/fileutil"
)

// Batch is a set of staged files plus the cleanup for whatever was not moved
// into the managed root.
type Batch struct {
	Files []File
	dir   string
}

// Cleanup removes the staging directory and any files left in it.
func (b *Batch) Cleanup() {
	if b == nil || b.dir == "" {
		return
	}
	_ = os.RemoveAll(b.dir)
}

// NewBatch creates an empty batch with its own directory under stagingDir.
func NewBatch(stagingDir string) (*Batch, error) {
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure staging directory: %w", err)
	}
	dir, err := os.MkdirTemp(stagingDir, "batch-")
	if err != nil {
		return nil, fmt.Errorf("create staging batch: %w", err)
	}
	return &Batch{dir: dir}, nil
}

// AddReader spools r into the batch under the client relative path. Read
// failures are recorded on the File rather than returned, so one broken part
// does not abort the batch. A limit above zero caps the bytes written; larger
// content is marked ErrTooLarge.
func (b *Batch) AddReader(relPath string, r io.Reader, limit int64) {
	file := File{RelativePath: relPath}
	tmp, err := os.CreateTemp(b.dir, "part-*")
	if err != nil {
		file.Err = err
		b.Files = append(b.Files, file)
		return
	}
	file.TempPath = tmp.Name()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	written, err := io.Copy(tmp, src)
	closeErr := tmp.Close()
	switch {
	case err != nil:
		file.Err = err
	case closeErr != nil:
		file.Err = closeErr
	case limit > 0 && written > limit:
		file.Err = ErrTooLarge
	}
	b.Files = append(b.Files, file)
}

// StageDirectory copies every regular file below dir into a new batch. The
// client relative path of each file starts with the directory's own name, the
// way a browser folder upload reports it. The source tree is left untouched.
func StageDirectory(ctx context.Context, dir, stagingDir string) (*Batch, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat upload directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload directory: %w", err)
	}
	albumName := filepath.Base(absDir)

	batch, err := NewBatch(stagingDir)
	if err != nil {
		return nil, err
	}

	walkErr := filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != absDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(absDir, p)
		if err != nil {
			return err
		}
		relPath := albumName + "/" + filepath.ToSlash(rel)

		file := File{RelativePath: relPath}
		tmp, err := os.CreateTemp(batch.dir, "part-*")
		if err != nil {
			return err
		}
		_ = tmp.Close()
		file.TempPath = tmp.Name()
		if err := fileutil.CopyFile(p, file.TempPath); err != nil {
			file.Err = err
		}
		batch.Files = append(batch.Files, file)
		return nil
	})
	if walkErr != nil {
		batch.Cleanup()
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("stage %s: %w", dir, walkErr)
	}
	return batch, nil
}
