package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// Minimal content that content sniffing recognizes for each image type.
var (
	JPEGBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 32)...)
	PNGBytes  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	WebPBytes = append([]byte("RIFF\x24\x00\x00\x00WEBPVP8 "), make([]byte, 32)...)
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteAlbum creates an album directory below root holding the given
// album-relative files, each with JPEG content unless the name ends in
// .png or .webp.
func WriteAlbum(t testing.TB, root, album string, files ...string) string {
	t.Helper()

	dir := filepath.Join(root, album)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir album %s: %v", dir, err)
	}
	for _, name := range files {
		content := JPEGBytes
		switch filepath.Ext(name) {
		case ".png":
			content = PNGBytes
		case ".webp":
			content = WebPBytes
		}
		WriteFile(t, filepath.Join(dir, filepath.FromSlash(name)), content)
	}
	return dir
}
