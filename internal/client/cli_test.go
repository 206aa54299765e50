package client

import (
	"os"
	"path/filepath"
	"testing"
)

func assertValidationError(t *testing.T, err error, expectedArg string, expectedCause string) {
	t.Helper()
	validationErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if expectedArg != "" && validationErr.Arg != expectedArg {
		t.Errorf("expected Arg to be %q, got %q", expectedArg, validationErr.Arg)
	}
	if expectedCause != "" && validationErr.Cause != expectedCause {
		t.Errorf("expected Cause to be %q, got %q", expectedCause, validationErr.Cause)
	}
}

const videoURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestParseArgs(t *testing.T) {
	t.Setenv("VIDSNAP_SERVER", "")

	t.Run("empty args returns error", func(t *testing.T) {
		result, err := ParseArgs([]string{})
		if result != nil {
			t.Error("expected nil result for empty args")
		}
		assertValidationError(t, err, "<command>", "expected info or download")
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := ParseArgs([]string{"upload", videoURL})
		assertValidationError(t, err, "upload", "unknown command")
	})

	t.Run("info classifies platform", func(t *testing.T) {
		cmd, err := ParseArgs([]string{"info", videoURL})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cmd.Action != ActionInfo || cmd.URL != videoURL || cmd.Platform != "youtube" {
			t.Errorf("unexpected command %+v", cmd)
		}
		if cmd.Server != defaultServer {
			t.Errorf("expected default server, got %q", cmd.Server)
		}
	})

	t.Run("info with explicit platform", func(t *testing.T) {
		cmd, err := ParseArgs([]string{"info", "-server", "http://media.local:9000", "https://example.com/v/1", "tiktok"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cmd.Platform != "tiktok" || cmd.Server != "http://media.local:9000" {
			t.Errorf("unexpected command %+v", cmd)
		}
	})

	t.Run("info with unknown host", func(t *testing.T) {
		_, err := ParseArgs([]string{"info", "https://example.com/v/1"})
		assertValidationError(t, err, "https://example.com/v/1", "")
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := ParseArgs([]string{"download"})
		assertValidationError(t, err, "<url>", "no video URL provided")
	})

	t.Run("download flags", func(t *testing.T) {
		dir := t.TempDir()
		cmd, err := ParseArgs([]string{"download", "-q", "720p", "-audio", "-o", filepath.Join(dir, "."), videoURL})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cmd.Action != ActionDownload || cmd.Quality != "720p" || !cmd.Audio {
			t.Errorf("unexpected command %+v", cmd)
		}
		if cmd.OutDir != dir {
			t.Errorf("expected cleaned dir %s, got %s", dir, cmd.OutDir)
		}
	})

	t.Run("nonexistent output dir", func(t *testing.T) {
		_, err := ParseArgs([]string{"download", "-o", "/nonexistent/path", videoURL})
		assertValidationError(t, err, "/nonexistent/path", "not found or not accessible")
	})

	t.Run("output path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "out.txt")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := ParseArgs([]string{"download", "-o", file, videoURL})
		assertValidationError(t, err, file, "not a directory")
	})

	t.Run("bad flag", func(t *testing.T) {
		_, err := ParseArgs([]string{"download", "-bogus", videoURL})
		assertValidationError(t, err, "download", "")
	})

	t.Run("server from environment", func(t *testing.T) {
		t.Setenv("VIDSNAP_SERVER", "http://env.local:8080")
		cmd, err := ParseArgs([]string{"info", videoURL})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cmd.Server != "http://env.local:8080" {
			t.Errorf("expected server from env, got %q", cmd.Server)
		}
	})

	t.Run("relative server url", func(t *testing.T) {
		_, err := ParseArgs([]string{"info", "-server", "localhost", videoURL})
		assertValidationError(t, err, "localhost", "server must be an absolute URL")
	})
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Arg:   "upload",
		Cause: "unknown command",
	}

	expected := `invalid argument "upload": unknown command`
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}
