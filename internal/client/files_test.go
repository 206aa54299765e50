package client

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestFileStore_Save(t *testing.T) {
	t.Run("saves file to disk", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileStore(dir)

		path, n, err := store.Save("abc123.mp4", bytes.NewReader([]byte("test content")))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n != 12 {
			t.Errorf("expected 12 bytes written, got %d", n)
		}
		if path != filepath.Join(dir, "abc123.mp4") {
			t.Errorf("unexpected path %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read saved file: %v", err)
		}
		if string(content) != "test content" {
			t.Errorf("expected 'test content', got %q", content)
		}
	})

	t.Run("saves large content", func(t *testing.T) {
		store := NewFileStore(t.TempDir())

		largeContent := strings.Repeat("x", 1024*1024) // 1MB
		_, n, err := store.Save("large.mp4", strings.NewReader(largeContent))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != int64(len(largeContent)) {
			t.Errorf("expected %d bytes, got %d", len(largeContent), n)
		}
	})

	t.Run("removes partial file on error", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileStore(dir)

		_, _, err := store.Save("broken.mp4", io.MultiReader(strings.NewReader("some"), failingReader{}))
		if err == nil {
			t.Fatal("expected error")
		}

		for _, name := range []string{"broken.mp4", "broken.mp4" + partialSuffix} {
			if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
				t.Errorf("expected %s to be absent", name)
			}
		}
	})

	t.Run("keeps names inside the directory", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileStore(dir)

		path, _, err := store.Save("../../escape.mp4", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != filepath.Join(dir, "escape.mp4") {
			t.Errorf("expected file inside %s, got %s", dir, path)
		}
	})
}
