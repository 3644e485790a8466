package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFakeFFmpeg writes a shell script into dir that behaves like a
// stream copy: it writes a few bytes to its last argument and exits with
// exitCode. It returns the script path.
func WriteFakeFFmpeg(t testing.TB, dir string, exitCode int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	script := fmt.Sprintf(`#!/bin/sh
for last; do :; done
if [ %d -ne 0 ]; then
  echo "fake ffmpeg failure" >&2
  exit %d
fi
printf 'copied' > "$last"
`, exitCode, exitCode)
	path := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
