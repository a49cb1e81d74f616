package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stylesync/internal/logging"
	"stylesync/internal/recordstore"
	"stylesync/internal/testsupport"
	"stylesync/internal/upload"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

type fixture struct {
	root     string
	staging  string
	log      *recordstore.Store[upload.Record]
	ingestor *upload.Ingestor
}

func newFixture(t *testing.T, opts ...upload.Option) *fixture {
	t.Helper()
	base := t.TempDir()
	f := &fixture{
		root:    filepath.Join(base, "uploads"),
		staging: filepath.Join(base, "staging"),
	}
	if err := os.MkdirAll(f.staging, 0o755); err != nil {
		t.Fatal(err)
	}
	backend := recordstore.NewFileBackend(filepath.Join(base, "data"))
	f.log = recordstore.New[upload.Record]("uploads_meta", backend, recordstore.NewProcessLocker(), logging.NewNop())
	defaults := []upload.Option{
		upload.WithClock(func() time.Time { return fixedNow }),
		upload.WithIDGenerator(func() string { return "fixed-id" }),
	}
	f.ingestor = upload.NewIngestor(f.root, f.log, logging.NewNop(), append(defaults, opts...)...)
	return f
}

func (f *fixture) stage(t *testing.T, relPath string, content []byte) upload.File {
	t.Helper()
	tmp, err := os.CreateTemp(f.staging, "part-*")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	return upload.File{RelativePath: relPath, TempPath: tmp.Name()}
}

func TestIngestSanitizesAlbumAndKeepsSubpath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.ingestor.Ingest(ctx, []upload.File{
		f.stage(t, "My Album!!/sub dir/pic.JPG", testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 1 || result.Skipped != 0 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.ActiveAlbum != "My Album__" {
		t.Fatalf("unexpected active album %q", result.ActiveAlbum)
	}

	dest := filepath.Join(f.root, "My Album__", "sub dir", "pic.JPG")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected stored file at %s: %v", dest, err)
	}

	records, err := f.ingestor.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records))
	}
	rec := records[0]
	if rec.MIME != "image/jpeg" {
		t.Fatalf("unexpected mime %q", rec.MIME)
	}
	if rec.StoredPath != "My Album__/sub dir/pic.JPG" {
		t.Fatalf("unexpected stored path %q", rec.StoredPath)
	}
	if rec.OriginalPath != "My Album!!/sub dir/pic.JPG" {
		t.Fatalf("unexpected original path %q", rec.OriginalPath)
	}
	if rec.DeclaredType != upload.DeclaredAuto || rec.DeclaredMIME != nil {
		t.Fatalf("auto upload should have nil declared mime, got %+v", rec)
	}
	if !rec.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected created_at %v", rec.CreatedAt)
	}
}

func TestIngestDeclaredTypeFiltersMismatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.ingestor.Ingest(ctx, []upload.File{
		f.stage(t, "Mixed/a.png", testsupport.PNGBytes),
		f.stage(t, "Mixed/b.jpg", testsupport.JPEGBytes),
		f.stage(t, "Mixed/c.webp", testsupport.WebPBytes),
	}, upload.DeclaredPNG)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 1 || result.Skipped != 2 {
		t.Fatalf("expected 1 handled and 2 skipped, got %+v", result)
	}
	for _, s := range result.SkippedFiles {
		if s.Reason != upload.ErrTypeMismatch.Error() {
			t.Fatalf("unexpected skip reason %+v", s)
		}
	}

	records, err := f.ingestor.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].DeclaredMIME == nil || *records[0].DeclaredMIME != "image/png" {
		t.Fatalf("unexpected records %+v", records)
	}
	if _, err := os.Stat(filepath.Join(f.root, "Mixed", "b.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("mismatched file must not be stored, stat err=%v", err)
	}
}

func TestIngestSkipsUnsupportedAndTransportErrors(t *testing.T) {
	f := newFixture(t)

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "Docs/readme.jpg", []byte("plain text pretending to be an image")),
		{RelativePath: "Docs/broken.jpg", Err: errors.New("connection reset")},
		f.stage(t, "Docs/ok.webp", testsupport.WebPBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 1 || result.Skipped != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}
	reasons := []string{result.SkippedFiles[0].Reason, result.SkippedFiles[1].Reason}
	if reasons[0] != upload.ErrUnsupportedType.Error() || reasons[1] != upload.ErrTransport.Error() {
		t.Fatalf("unexpected reasons %v", reasons)
	}
	if !strings.Contains(result.Notice(), "Uploaded 1 image(s). Skipped 2") {
		t.Fatalf("unexpected notice %q", result.Notice())
	}
}

func TestIngestRejectsTraversal(t *testing.T) {
	f := newFixture(t)

	outside := filepath.Join(filepath.Dir(f.root), "escaped.jpg")
	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "Album/../../escaped.jpg", testsupport.JPEGBytes),
		f.stage(t, `Album\..\..\escaped.jpg`, testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 0 || result.Skipped != 2 {
		t.Fatalf("expected both files skipped, got %+v", result)
	}
	for _, s := range result.SkippedFiles {
		if s.Reason != upload.ErrPathEscape.Error() {
			t.Fatalf("unexpected reason %+v", s)
		}
	}
	if _, err := os.Stat(outside); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file escaped the managed root: %v", err)
	}
}

func TestIngestRejectsSymlinkedSubdirectory(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	if err := os.MkdirAll(filepath.Join(f.root, "Album"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(f.root, "Album", "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "Album/link/pic.jpg", testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 0 || result.SkippedFiles[0].Reason != upload.ErrPathEscape.Error() {
		t.Fatalf("expected path escape, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(outside, "pic.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file written through symlink: %v", err)
	}
}

func TestIngestCreatesNoDirectoriesThroughSymlink(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	if err := os.MkdirAll(filepath.Join(f.root, "Album"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(f.root, "Album", "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "Album/link/new/deeper/x.jpg", testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 0 || result.SkippedFiles[0].Reason != upload.ErrPathEscape.Error() {
		t.Fatalf("expected path escape, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(outside, "new")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("directory created outside managed root: %v", err)
	}
}

func TestIngestRejectsAlbumLinkedToRoot(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(f.root, filepath.Join(f.root, "Alias")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "Alias/pic.jpg", testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 0 || result.SkippedFiles[0].Reason != upload.ErrPathEscape.Error() {
		t.Fatalf("expected path escape, got %+v", result)
	}
	if _, err := os.Stat(filepath.Join(f.root, "pic.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file stored directly in the managed root: %v", err)
	}
}

func TestIngestSynthesizesNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.ingestor.Ingest(ctx, []upload.File{
		f.stage(t, "!!!/", testsupport.PNGBytes),
		f.stage(t, "Album/.", testsupport.WebPBytes),
		f.stage(t, "loose.jpg", testsupport.JPEGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 3 {
		t.Fatalf("expected all files stored, got %+v", result)
	}

	records, err := f.ingestor.History(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"___/img_fixed-id.png",
		"Album/img_fixed-id.webp",
		"loose.jpg/loose.jpg",
	}
	for i, rec := range records {
		if rec.StoredPath != want[i] {
			t.Errorf("record %d: got %q want %q", i, rec.StoredPath, want[i])
		}
	}
}

func TestIngestSynthesizesAlbumForDotSegments(t *testing.T) {
	f := newFixture(t)

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "../pic.png", testsupport.PNGBytes),
		f.stage(t, "  /pic2.png", testsupport.PNGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 2 {
		t.Fatalf("expected both stored, got %+v", result)
	}
	if result.ActiveAlbum != "album_20240309_140507" {
		t.Fatalf("unexpected synthesized album %q", result.ActiveAlbum)
	}
	if _, err := os.Stat(filepath.Join(f.root, "album_20240309_140507", "pic.png")); err != nil {
		t.Fatalf("expected file in synthesized album: %v", err)
	}
}

type countingObserver struct {
	stored  int
	skipped map[string]int
}

func (c *countingObserver) FileStored(string) { c.stored++ }

func (c *countingObserver) FileSkipped(reason string) {
	if c.skipped == nil {
		c.skipped = map[string]int{}
	}
	c.skipped[reason]++
}

func TestIngestEnforcesLimits(t *testing.T) {
	obs := &countingObserver{}
	f := newFixture(t,
		upload.WithLimits(upload.Limits{MaxFileBytes: 40, MaxBatchFiles: 2}),
		upload.WithObserver(obs),
	)

	result, err := f.ingestor.Ingest(context.Background(), []upload.File{
		f.stage(t, "A/big.jpg", append(testsupport.JPEGBytes, make([]byte, 64)...)),
		f.stage(t, "A/small.png", testsupport.PNGBytes[:20]),
		f.stage(t, "A/late.png", testsupport.PNGBytes),
	}, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Handled != 1 || result.Skipped != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if obs.stored != 1 || obs.skipped[upload.ErrTooLarge.Error()] != 1 || obs.skipped[upload.ErrBatchLimit.Error()] != 1 {
		t.Fatalf("unexpected observer counts %+v", obs)
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	f := newFixture(t)
	result, err := f.ingestor.Ingest(context.Background(), nil, upload.DeclaredAuto)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if result.Notice() != "Please choose a folder with images." {
		t.Fatalf("unexpected notice %q", result.Notice())
	}
	records, err := f.ingestor.History(context.Background())
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty history, got %v %v", records, err)
	}
}

func TestResultNotice(t *testing.T) {
	cases := []struct {
		result upload.Result
		want   string
	}{
		{upload.Result{Handled: 2, ActiveAlbum: "Trip"}, "Uploaded 2 image(s) into album “Trip”."},
		{upload.Result{Skipped: 3}, "No valid images found or all mismatched for the chosen file type."},
	}
	for _, tc := range cases {
		if got := tc.result.Notice(); got != tc.want {
			t.Errorf("Notice() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseDeclaredType(t *testing.T) {
	for in, want := range map[string]upload.DeclaredType{"": upload.DeclaredAuto, " PNG ": upload.DeclaredPNG, "jpeg": upload.DeclaredJPEG, "webp": upload.DeclaredWebP} {
		got, err := upload.ParseDeclaredType(in)
		if err != nil || got != want {
			t.Errorf("ParseDeclaredType(%q) = %q, %v", in, got, err)
		}
	}
	_, err := upload.ParseDeclaredType("gif")
	var vErr *upload.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "declared_type" {
		t.Fatalf("expected validation error, got %v", err)
	}
}
