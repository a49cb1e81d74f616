package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"stylesync/internal/fileutil"
	"stylesync/internal/logging"
	"stylesync/internal/recordstore"
	"stylesync/internal/textutil"
)

var subpathExtPattern = regexp.MustCompile(`(?i)^(jpe?g|png|webp)$`)

// Observer receives per-file ingestion outcomes.
type Observer interface {
	FileStored(album string)
	FileSkipped(reason string)
}

// Limits bounds a single ingestion batch. Zero disables a limit.
type Limits struct {
	MaxFileBytes  int64
	MaxBatchFiles int
}

// Ingestor stores uploaded files under the managed root and appends one
// upload-log record per stored file.
type Ingestor struct {
	root     string
	log      *recordstore.Store[Record]
	sniffer  Sniffer
	limits   Limits
	now      func() time.Time
	newID    func() string
	observer Observer
	logger   *slog.Logger
}

// Option customizes an Ingestor.
type Option func(*Ingestor)

// WithSniffer replaces the content sniffer.
func WithSniffer(s Sniffer) Option {
	return func(in *Ingestor) {
		if s != nil {
			in.sniffer = s
		}
	}
}

// WithClock replaces the time source used for timestamps and synthesized album names.
func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) {
		if now != nil {
			in.now = now
		}
	}
}

// WithIDGenerator replaces the generator used for synthesized file names.
func WithIDGenerator(newID func() string) Option {
	return func(in *Ingestor) {
		if newID != nil {
			in.newID = newID
		}
	}
}

// WithLimits sets the per-file and per-batch limits.
func WithLimits(l Limits) Option {
	return func(in *Ingestor) {
		in.limits = l
	}
}

// WithObserver registers an outcome observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(in *Ingestor) {
		in.observer = o
	}
}

// NewIngestor creates an ingestor rooted at root that appends to log.
func NewIngestor(root string, log *recordstore.Store[Record], logger *slog.Logger, opts ...Option) *Ingestor {
	in := &Ingestor{
		root:    root,
		log:     log,
		sniffer: ContentSniffer{},
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logging.NewComponentLogger(logger, "uploads"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest stores every acceptable file of the batch. Per-file failures are
// counted as skipped and never abort the batch. The returned error is non-nil
// only when the upload log cannot be written; the result still reflects the
// files that were moved into place.
func (in *Ingestor) Ingest(ctx context.Context, files []File, declared DeclaredType) (Result, error) {
	result := Result{SkippedFiles: []SkippedFile{}}
	if len(files) == 0 {
		return result, nil
	}
	if declared == "" {
		declared = DeclaredAuto
	}

	if err := os.MkdirAll(in.root, 0o755); err != nil {
		return result, fmt.Errorf("ensure upload root: %w", err)
	}
	resolvedRoot, err := filepath.EvalSymlinks(in.root)
	if err != nil {
		return result, fmt.Errorf("resolve upload root: %w", err)
	}

	records := make([]Record, 0, len(files))
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			in.skip(&result, file.RelativePath, fmt.Errorf("%w: %v", ErrTransport, err))
			continue
		}
		if in.limits.MaxBatchFiles > 0 && i >= in.limits.MaxBatchFiles {
			in.skip(&result, file.RelativePath, ErrBatchLimit)
			continue
		}

		rec, err := in.ingestOne(file, declared, resolvedRoot)
		if err != nil {
			in.skip(&result, file.RelativePath, err)
			continue
		}
		records = append(records, rec)
		result.Handled++
		result.ActiveAlbum = rec.Album
		if in.observer != nil {
			in.observer.FileStored(rec.Album)
		}
	}

	if len(records) > 0 {
		err := in.log.Update(ctx, func(existing []Record) ([]Record, error) {
			return append(existing, records...), nil
		})
		if err != nil {
			in.logger.Error("upload log append failed",
				logging.Error(err),
				logging.Int("records", len(records)),
				logging.String(logging.FieldEventType, "upload_log_failed"),
			)
			return result, fmt.Errorf("append upload log: %w", err)
		}
	}

	in.logger.Info("upload batch processed",
		logging.Int("handled", result.Handled),
		logging.Int("skipped", result.Skipped),
		logging.String(logging.FieldAlbum, result.ActiveAlbum),
		logging.String("declared_type", declared.String()),
	)
	return result, nil
}

// History returns the upload log in insertion order.
func (in *Ingestor) History(ctx context.Context) ([]Record, error) {
	return in.log.Snapshot(ctx)
}

func (in *Ingestor) skip(result *Result, relPath string, err error) {
	fileErr := &FileError{Path: relPath, Err: err}
	label := reason(err)
	result.Skipped++
	result.SkippedFiles = append(result.SkippedFiles, SkippedFile{Path: relPath, Reason: label})
	if in.observer != nil {
		in.observer.FileSkipped(label)
	}

	if errors.Is(err, ErrPathEscape) {
		logging.WarnWithContext(in.logger, "upload rejected: path escapes album", "upload_path_escape",
			logging.String("path", relPath),
			logging.Error(fileErr),
			logging.String(logging.FieldErrorHint, "client sent a relative path with traversal segments"),
			logging.String(logging.FieldImpact, "file was not stored"),
		)
		return
	}
	in.logger.Debug("upload file skipped",
		logging.String("path", relPath),
		logging.String("reason", label),
		logging.Error(fileErr),
	)
}

func (in *Ingestor) ingestOne(file File, declared DeclaredType, resolvedRoot string) (Record, error) {
	if file.Err != nil {
		if errors.Is(file.Err, ErrTooLarge) {
			return Record{}, ErrTooLarge
		}
		return Record{}, fmt.Errorf("%w: %v", ErrTransport, file.Err)
	}

	info, err := os.Stat(file.TempPath)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if in.limits.MaxFileBytes > 0 && info.Size() > in.limits.MaxFileBytes {
		return Record{}, ErrTooLarge
	}

	mimeType, err := in.sniffer.Sniff(file.TempPath)
	if err != nil || !isAllowedMIME(mimeType) {
		return Record{}, ErrUnsupportedType
	}
	declaredMIME := declared.MIME()
	if declaredMIME != "" && mimeType != declaredMIME {
		return Record{}, ErrTypeMismatch
	}

	target, err := in.plan(file.RelativePath, mimeType)
	if err != nil {
		return Record{}, err
	}

	if err := in.prepareDir(resolvedRoot, target.dir); err != nil {
		return Record{}, err
	}

	if err := fileutil.MoveFile(file.TempPath, target.path); err != nil {
		return Record{}, fmt.Errorf("store file: %w", err)
	}
	_ = os.Chmod(target.path, 0o644)

	stored, err := filepath.Rel(in.root, target.path)
	if err != nil {
		return Record{}, fmt.Errorf("relativize stored path: %w", err)
	}

	rec := Record{
		Album:        target.album,
		StoredPath:   filepath.ToSlash(stored),
		OriginalPath: file.RelativePath,
		MIME:         mimeType,
		DeclaredType: declared,
		CreatedAt:    in.now().UTC().Truncate(time.Second),
	}
	if declaredMIME != "" {
		rec.DeclaredMIME = &declaredMIME
	}
	return rec, nil
}

type destination struct {
	album string
	dir   string
	path  string
}

// plan maps a client-relative path onto the managed root. It performs no I/O.
func (in *Ingestor) plan(relPath, mimeType string) (destination, error) {
	rel := textutil.NormalizeClientPath(relPath)

	rawAlbum, rest, hasSlash := strings.Cut(rel, "/")
	sub := rest
	if !hasSlash {
		sub = path.Base(rel)
	}
	sub = strings.Trim(sub, "/")

	albumName := textutil.SanitizeSegment(rawAlbum)
	if textutil.IsDotSegment(albumName) {
		albumName = "album_" + in.now().Format("20060102_150405")
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(sub), "."))
	if !subpathExtPattern.MatchString(ext) {
		ext = extFromMIME(mimeType)
	}

	subDir := path.Dir(sub)
	if subDir == "." {
		subDir = ""
	}
	base := path.Base(sub)
	if sub == "" || textutil.IsDotSegment(base) {
		base = "img_" + in.newID() + "." + ext
	}

	albumDir := filepath.Join(in.root, albumName)
	dir := filepath.Join(albumDir, filepath.FromSlash(subDir))
	dest := filepath.Join(dir, base)
	if !within(albumDir, dir) || !within(albumDir, dest) || dest == albumDir {
		return destination{}, ErrPathEscape
	}
	return destination{album: albumName, dir: dir, path: dest}, nil
}

// prepareDir creates dir below the managed root one segment at a time. Each
// segment, existing or new, must resolve strictly inside resolvedRoot before
// the next one is created, so a symlink in the tree never causes a directory
// to be made outside the root.
func (in *Ingestor) prepareDir(resolvedRoot, dir string) error {
	rel, err := filepath.Rel(in.root, dir)
	if err != nil || rel == "." || !within(in.root, dir) {
		return ErrPathEscape
	}

	current := in.root
	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, segment)
		if _, err := os.Lstat(current); errors.Is(err, fs.ErrNotExist) {
			if err := os.Mkdir(current, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("create album directory: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("inspect album directory: %w", err)
		}

		resolved, err := filepath.EvalSymlinks(current)
		if err != nil {
			return fmt.Errorf("resolve album directory: %w", err)
		}
		if !inside(resolvedRoot, resolved) {
			return ErrPathEscape
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return fmt.Errorf("inspect album directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("create album directory: %s is not a directory", current)
		}
	}
	return nil
}

// inside reports whether target lies strictly below parent.
func inside(parent, target string) bool {
	rel, err := filepath.Rel(parent, target)
	return err == nil && rel != "." && within(parent, target)
}

// within reports whether target is parent itself or lies below it.
func within(parent, target string) bool {
	rel, err := filepath.Rel(parent, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
