package album

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"stylesync/internal/textutil"
)

// FileType summarizes the image formats present in an album.
type FileType string

const (
	FileTypeJPEG    FileType = "jpeg"
	FileTypePNG     FileType = "png"
	FileTypeWebP    FileType = "webp"
	FileTypeMixed   FileType = "mixed"
	FileTypeUnknown FileType = "unknown"
)

var imageExtPattern = regexp.MustCompile(`(?i)\.(jpe?g|png|webp)$`)

// IsImageName reports whether name carries one of the indexed image extensions.
func IsImageName(name string) bool {
	return imageExtPattern.MatchString(name)
}

// TypeForPath maps an image path to its file type by extension: png and webp
// map to themselves, every other indexed extension maps to jpeg.
func TypeForPath(p string) FileType {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(p), ".")) {
	case "png":
		return FileTypePNG
	case "webp":
		return FileTypeWebP
	default:
		return FileTypeJPEG
	}
}

// Indexer derives albums and their images by scanning the managed root.
type Indexer struct {
	root string
}

// NewIndexer returns an indexer for the managed root directory.
func NewIndexer(root string) *Indexer {
	return &Indexer{root: root}
}

// Root returns the managed root directory.
func (ix *Indexer) Root() string {
	return ix.root
}

// ValidateName rejects names that are empty, relative references, or contain
// a path separator.
func ValidateName(name string) error {
	if textutil.IsDotSegment(name) || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrInvalidAlbum
	}
	return nil
}

// ListAlbums returns the immediate subdirectories of the root in natural,
// case-insensitive order. A missing root yields no albums.
func (ix *Indexer) ListAlbums() ([]string, error) {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &IndexingError{Op: "list albums", Path: ix.root, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	textutil.SortNatural(names)
	return names, nil
}

// Exists reports whether the album directory is present.
func (ix *Indexer) Exists(album string) (bool, error) {
	if err := ValidateName(album); err != nil {
		return false, &IndexingError{Op: "stat album", Path: album, Err: err}
	}
	dir := filepath.Join(ix.root, album)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &IndexingError{Op: "stat album", Path: dir, Err: err}
	}
	return info.IsDir(), nil
}

// Images returns every image below the album, relative to the root with
// forward slashes, in natural case-insensitive order. A missing album yields
// no images.
func (ix *Indexer) Images(album string) ([]string, error) {
	if err := ValidateName(album); err != nil {
		return nil, &IndexingError{Op: "scan album", Path: album, Err: err}
	}
	dir := filepath.Join(ix.root, album)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &IndexingError{Op: "scan album", Path: dir, Err: err}
	}

	images := []string{}
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &IndexingError{Op: "scan album", Path: p, Err: err}
		}
		if !d.Type().IsRegular() || !IsImageName(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(ix.root, p)
		if err != nil {
			return &IndexingError{Op: "scan album", Path: p, Err: err}
		}
		images = append(images, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		var ixErr *IndexingError
		if errors.As(walkErr, &ixErr) {
			return nil, ixErr
		}
		return nil, &IndexingError{Op: "scan album", Path: dir, Err: walkErr}
	}

	textutil.SortNatural(images)
	return images, nil
}

// FirstImage returns the first image of the album in index order.
func (ix *Indexer) FirstImage(album string) (string, bool, error) {
	images, err := ix.Images(album)
	if err != nil {
		return "", false, err
	}
	if len(images) == 0 {
		return "", false, nil
	}
	return images[0], true, nil
}

// ClassifyFileType infers the album's file type from its image extensions.
func (ix *Indexer) ClassifyFileType(album string) (FileType, error) {
	images, err := ix.Images(album)
	if err != nil {
		return FileTypeUnknown, err
	}
	return Classify(images), nil
}

// Classify returns unknown for no images, the shared type when every image
// agrees, and mixed as soon as two types are seen.
func Classify(images []string) FileType {
	if len(images) == 0 {
		return FileTypeUnknown
	}
	first := TypeForPath(images[0])
	for _, img := range images[1:] {
		if TypeForPath(img) != first {
			return FileTypeMixed
		}
	}
	return first
}
