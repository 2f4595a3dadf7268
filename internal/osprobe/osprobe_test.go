package osprobe

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestPrettyName(t *testing.T) {
	t.Run("extracts the quoted value", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "os-release")
		content := "NAME=\"Debian GNU/Linux\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nID=debian\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write os-release: %v", err)
		}

		if got := prettyName(path); got != "Debian GNU/Linux 12 (bookworm)" {
			t.Errorf("prettyName = %q", got)
		}
	})

	t.Run("missing file yields empty", func(t *testing.T) {
		if got := prettyName(filepath.Join(t.TempDir(), "nope")); got != "" {
			t.Errorf("prettyName = %q, want empty", got)
		}
	})

	t.Run("missing key yields empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "os-release")
		if err := os.WriteFile(path, []byte("ID=debian\n"), 0644); err != nil {
			t.Fatalf("failed to write os-release: %v", err)
		}
		if got := prettyName(path); got != "" {
			t.Errorf("prettyName = %q, want empty", got)
		}
	})
}

func TestOSName(t *testing.T) {
	if got := OSName(); got == "" {
		t.Error("OSName should never be empty")
	}
}

func TestHasProgram(t *testing.T) {
	if runtime.GOOS != "windows" && !HasProgram("sh") {
		t.Error("sh should resolve on any unix PATH")
	}
	if HasProgram("definitely-not-a-real-program-zzz") {
		t.Error("a made-up program must not resolve")
	}
}

func TestIsAnsibleAvailable(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "ansible-playbook"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write stand-in: %v", err)
	}
	t.Setenv("PATH", dir)

	if !IsAnsibleAvailable() {
		t.Error("ansible-playbook on PATH should be detected")
	}

	t.Setenv("PATH", t.TempDir())
	if IsAnsibleAvailable() {
		t.Error("an empty PATH should not detect ansible-playbook")
	}
}

func TestIsWritable(t *testing.T) {
	if !IsWritable(t.TempDir()) {
		t.Error("a temp dir should be writable")
	}
	if IsWritable(filepath.Join(t.TempDir(), "does-not-exist")) {
		t.Error("a missing dir should not be writable")
	}
}
