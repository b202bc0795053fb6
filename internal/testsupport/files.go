package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteAlbums lays out one directory per album under root, each holding the
// named track files.
func WriteAlbums(t testing.TB, root string, albums map[string][]string) {
	t.Helper()

	for album, tracks := range albums {
		for _, track := range tracks {
			WriteFile(t, filepath.Join(root, filepath.FromSlash(album), track), 1)
		}
	}
}
