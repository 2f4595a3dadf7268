package logging

import (
	"os"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("creates log file under log directory", func(t *testing.T) {
		tmpDir := t.TempDir()

		logger, path, err := New(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Sync()

		if !strings.HasPrefix(path, tmpDir) {
			t.Errorf("log path %q should be under %q", path, tmpDir)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("log file should exist: %v", err)
		}
	})

	t.Run("entries are written to the file", func(t *testing.T) {
		tmpDir := t.TempDir()

		logger, path, err := New(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		logger.Info("hello from test")
		logger.Sync()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "hello from test") {
			t.Errorf("log file should contain the logged message, got: %s", data)
		}
	})

	t.Run("creates missing log directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		nested := tmpDir + "/logs/deeper"

		logger, _, err := New(nested)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Sync()

		info, err := os.Stat(nested)
		if err != nil || !info.IsDir() {
			t.Errorf("log directory should have been created")
		}
	})
}
