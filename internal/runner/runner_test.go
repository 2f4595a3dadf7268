package runner

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	r := New(zap.NewNop())
	r.Stdout = os.Stdout
	r.Stderr = os.Stderr
	return r
}

// writeScript writes an executable shell script.
func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create script dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
}

// fakeAnsible installs a fake ansible-playbook on PATH that appends
// its arguments to argFile and exits with exitCode.
func fakeAnsible(t *testing.T, argFile string, exitCode int) {
	t.Helper()
	binDir := t.TempDir()
	writeScript(t, filepath.Join(binDir, "ansible-playbook"),
		`echo "$@" >> `+argFile+`
exit `+strconv.Itoa(exitCode))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRunPhase_Bash(t *testing.T) {
	t.Run("passes the phase as the sole argument", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "out.txt")
		writeScript(t, filepath.Join(dir, "install.sh"), `echo "$1" > `+out)

		if err := newTestRunner(t).RunPhase(dir, PhaseRemediate, []Strategy{StrategyBash}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("script should have written its argument: %v", err)
		}
		if strings.TrimSpace(string(data)) != "remediate" {
			t.Errorf("phase argument = %q, want %q", strings.TrimSpace(string(data)), "remediate")
		}
	})

	t.Run("runs with the script's directory as working directory", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, filepath.Join(dir, "install.sh"), `pwd > cwd.txt`)

		if err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyBash}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "cwd.txt"))
		if err != nil {
			t.Fatalf("script should have written cwd.txt: %v", err)
		}
		got, _ := filepath.EvalSymlinks(strings.TrimSpace(string(data)))
		want, _ := filepath.EvalSymlinks(dir)
		if got != want {
			t.Errorf("working directory = %q, want %q", got, want)
		}
	})

	t.Run("non-zero exit maps to ExecError with the code", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, filepath.Join(dir, "install.sh"), `exit 3`)

		err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyBash})
		var ee *ExecError
		if !errors.As(err, &ee) {
			t.Fatalf("expected ExecError, got %T: %v", err, err)
		}
		if ee.Code != 3 {
			t.Errorf("exit code = %d, want 3", ee.Code)
		}
	})

	t.Run("script without execute bit is made runnable", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "install.sh")
		if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0644); err != nil {
			t.Fatalf("failed to write script: %v", err)
		}

		if err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyBash}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("entry point is found depth-first in subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, filepath.Join(dir, "pkg", "scripts", "install.sh"), `exit 0`)

		if err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyBash}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing entry point is a NotFoundError", func(t *testing.T) {
		err := newTestRunner(t).RunPhase(t.TempDir(), PhaseInstall, []Strategy{StrategyBash})
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFoundError, got %T: %v", err, err)
		}
	})

	t.Run("direct file path is executed as-is", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "custom.sh")
		writeScript(t, script, `exit 0`)

		if err := newTestRunner(t).RunPhase(script, PhaseInstall, []Strategy{StrategyBash}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestRunPhase_Ansible(t *testing.T) {
	t.Run("invokes ansible-playbook with the phase tag", func(t *testing.T) {
		dir := t.TempDir()
		argFile := filepath.Join(t.TempDir(), "args.txt")
		fakeAnsible(t, argFile, 0)
		if err := os.WriteFile(filepath.Join(dir, "playbook.yml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}

		if err := newTestRunner(t).RunPhase(dir, PhaseUninstall, []Strategy{StrategyAnsible}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(argFile)
		if err != nil {
			t.Fatalf("fake ansible-playbook should have recorded args: %v", err)
		}
		args := string(data)
		for _, want := range []string{"-i localhost,", "--connection=local", "--tags=uninstall", "playbook.yml"} {
			if !strings.Contains(args, want) {
				t.Errorf("args %q should contain %q", args, want)
			}
		}
	})

	t.Run("falls back through the candidate playbook names", func(t *testing.T) {
		dir := t.TempDir()
		argFile := filepath.Join(t.TempDir(), "args.txt")
		fakeAnsible(t, argFile, 0)
		if err := os.WriteFile(filepath.Join(dir, "site.yaml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}

		if err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyAnsible}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(argFile)
		if !strings.Contains(string(data), "site.yaml") {
			t.Errorf("args %q should reference site.yaml", data)
		}
	})

	t.Run("ansible failure maps to ExecError", func(t *testing.T) {
		dir := t.TempDir()
		fakeAnsible(t, filepath.Join(t.TempDir(), "args.txt"), 1)
		if err := os.WriteFile(filepath.Join(dir, "playbook.yml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}

		err := newTestRunner(t).RunPhase(dir, PhaseInstall, []Strategy{StrategyAnsible})
		var ee *ExecError
		if !errors.As(err, &ee) {
			t.Fatalf("expected ExecError, got %T: %v", err, err)
		}
		if ee.Code != 1 {
			t.Errorf("exit code = %d, want 1", ee.Code)
		}
	})
}

func TestRunPhase_Mixed(t *testing.T) {
	t.Run("falls back to bash when ansible fails", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "out.txt")
		fakeAnsible(t, filepath.Join(t.TempDir(), "args.txt"), 1)
		if err := os.WriteFile(filepath.Join(dir, "playbook.yml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}
		writeScript(t, filepath.Join(dir, "install.sh"), `echo ran > `+out)

		err := newTestRunner(t).RunPhase(dir, PhaseInstall, StrategiesFor("mixed"))
		if err != nil {
			t.Fatalf("fallback should have succeeded: %v", err)
		}
		if _, statErr := os.Stat(out); statErr != nil {
			t.Error("bash fallback should have run")
		}
	})

	t.Run("bash is not tried when ansible succeeds", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "out.txt")
		fakeAnsible(t, filepath.Join(t.TempDir(), "args.txt"), 0)
		if err := os.WriteFile(filepath.Join(dir, "playbook.yml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}
		writeScript(t, filepath.Join(dir, "install.sh"), `echo ran > `+out)

		if err := newTestRunner(t).RunPhase(dir, PhaseInstall, StrategiesFor("mixed")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, statErr := os.Stat(out); statErr == nil {
			t.Error("bash should not run when ansible succeeded")
		}
	})

	t.Run("error names both strategies when both fail", func(t *testing.T) {
		dir := t.TempDir()
		fakeAnsible(t, filepath.Join(t.TempDir(), "args.txt"), 1)
		if err := os.WriteFile(filepath.Join(dir, "playbook.yml"), []byte("- hosts: all"), 0644); err != nil {
			t.Fatalf("failed to write playbook: %v", err)
		}
		writeScript(t, filepath.Join(dir, "install.sh"), `exit 2`)

		err := newTestRunner(t).RunPhase(dir, PhaseInstall, StrategiesFor("mixed"))
		if err == nil {
			t.Fatal("expected an error when both strategies fail")
		}
		msg := err.Error()
		if !strings.Contains(msg, "ansible") || !strings.Contains(msg, "bash") {
			t.Errorf("error %q should mention both strategies", msg)
		}
	})
}

func TestRunCommand(t *testing.T) {
	t.Run("runs through the shell", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out.txt")
		if err := newTestRunner(t).RunCommand("echo cleanup > " + out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(out); err != nil {
			t.Error("command should have produced its output file")
		}
	})

	t.Run("failure maps to ExecError", func(t *testing.T) {
		err := newTestRunner(t).RunCommand("exit 7")
		var ee *ExecError
		if !errors.As(err, &ee) {
			t.Fatalf("expected ExecError, got %T: %v", err, err)
		}
		if ee.Code != 7 {
			t.Errorf("exit code = %d, want 7", ee.Code)
		}
	})
}

func TestRunPhaseTimeout(t *testing.T) {
	t.Run("completes inside the deadline", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, filepath.Join(dir, "install.sh"), `exit 0`)

		err := newTestRunner(t).RunPhaseTimeout(dir, PhaseInstall, []Strategy{StrategyBash}, 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("deadline exceeded terminates the child", func(t *testing.T) {
		dir := t.TempDir()
		writeScript(t, filepath.Join(dir, "install.sh"), `sleep 30`)

		start := time.Now()
		err := newTestRunner(t).RunPhaseTimeout(dir, PhaseInstall, []Strategy{StrategyBash}, 200*time.Millisecond)
		elapsed := time.Since(start)

		var te *TimeoutError
		if !errors.As(err, &te) {
			t.Fatalf("expected TimeoutError, got %T: %v", err, err)
		}
		if elapsed > 5*time.Second {
			t.Errorf("child should have been terminated promptly, took %s", elapsed)
		}
	})
}

func TestStrategiesFor(t *testing.T) {
	tests := []struct {
		kind string
		want []Strategy
	}{
		{"bash", []Strategy{StrategyBash}},
		{"ansible", []Strategy{StrategyAnsible}},
		{"mixed", []Strategy{StrategyAnsible, StrategyBash}},
		{"unknown", nil},
	}

	for _, tt := range tests {
		got := StrategiesFor(tt.kind)
		if len(got) != len(tt.want) {
			t.Errorf("StrategiesFor(%q) = %v, want %v", tt.kind, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("StrategiesFor(%q)[%d] = %v, want %v", tt.kind, i, got[i], tt.want[i])
			}
		}
	}
}
