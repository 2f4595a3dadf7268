// Package runner executes task payloads: bash scripts, ansible
// playbooks and literal cleanup commands, mapping child exit status to
// typed errors.
package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Phase is the lifecycle operation name passed to a script or playbook.
type Phase string

const (
	PhaseInstall   Phase = "install"
	PhaseUninstall Phase = "uninstall"
	PhaseReset     Phase = "reset"
	PhaseRemediate Phase = "remediate"
)

// Strategy selects how a payload is executed.
type Strategy string

const (
	StrategyBash    Strategy = "bash"
	StrategyAnsible Strategy = "ansible"
)

// Conventional entry point names searched when the payload path is a
// directory.
var (
	bashCandidates = []string{"install.sh"}

	playbookCandidates = []string{
		"playbook.yml", "playbook.yaml",
		"main.yml", "main.yaml",
		"site.yml", "site.yaml",
		"local.yml", "local.yaml",
		"install.yml", "install.yaml",
		"entrypoint.yml", "entrypoint.yaml",
	}
)

// ExecError reports a child process that exited non-zero. Code is -1
// when the exit code is unknown, e.g. the process was killed by a
// signal.
type ExecError struct {
	Entry string
	Code  int
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s failed with exit code %d", e.Entry, e.Code)
}

func (e *ExecError) Unwrap() error { return e.Err }

// NotFoundError reports that no conventional entry point was found
// under the searched tree.
type NotFoundError struct {
	Dir        string
	Candidates []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entry point (%s) found under %s",
		strings.Join(e.Candidates, ", "), e.Dir)
}

// TimeoutError reports that a timed execution exceeded its deadline
// and the child was terminated.
type TimeoutError struct {
	Entry   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Entry, e.Timeout)
}

// Runner executes payload entry points. Stdout and Stderr default to
// the process's own streams; the TUI swaps them for capture buffers.
type Runner struct {
	logger *zap.Logger

	Stdout io.Writer
	Stderr io.Writer
}

// New creates a runner writing child output to this process's streams.
func New(logger *zap.Logger) *Runner {
	return &Runner{
		logger: logger,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// RunPhase executes the phase against the payload at entry, trying
// each strategy in order until one succeeds. When every strategy
// fails, all intermediate errors are surfaced together.
func (r *Runner) RunPhase(entry string, phase Phase, strategies []Strategy) error {
	if len(strategies) == 0 {
		return fmt.Errorf("no execution strategy for %s", entry)
	}

	var failures []error
	for _, strategy := range strategies {
		var err error
		switch strategy {
		case StrategyBash:
			err = r.runBash(entry, phase, 0)
		case StrategyAnsible:
			err = r.runAnsible(entry, phase, 0)
		default:
			err = fmt.Errorf("unknown strategy %q", strategy)
		}
		if err == nil {
			return nil
		}
		r.logger.Warn("strategy failed",
			zap.String("strategy", string(strategy)),
			zap.String("entry", entry),
			zap.String("phase", string(phase)),
			zap.Error(err))
		failures = append(failures, fmt.Errorf("%s: %w", strategy, err))
	}
	return errors.Join(failures...)
}

// RunPhaseTimeout is RunPhase bounded by a wall-clock deadline; the
// child is terminated once the deadline elapses.
func (r *Runner) RunPhaseTimeout(entry string, phase Phase, strategies []Strategy, timeout time.Duration) error {
	if len(strategies) == 0 {
		return fmt.Errorf("no execution strategy for %s", entry)
	}

	var failures []error
	for _, strategy := range strategies {
		var err error
		switch strategy {
		case StrategyBash:
			err = r.runBash(entry, phase, timeout)
		case StrategyAnsible:
			err = r.runAnsible(entry, phase, timeout)
		default:
			err = fmt.Errorf("unknown strategy %q", strategy)
		}
		if err == nil {
			return nil
		}
		failures = append(failures, fmt.Errorf("%s: %w", strategy, err))
	}
	return errors.Join(failures...)
}

// RunCommand executes a literal command through the system shell.
func (r *Runner) RunCommand(command string) error {
	r.logger.Info("running command", zap.String("command", command))

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return r.wait(cmd, command, 0)
}

func (r *Runner) runBash(entry string, phase Phase, timeout time.Duration) error {
	script, err := resolveEntry(entry, bashCandidates)
	if err != nil {
		return err
	}

	// The script may have arrived without the execute bit, e.g. from a
	// tarball built on Windows.
	if runtime.GOOS != "windows" {
		if err := os.Chmod(script, 0755); err != nil {
			return fmt.Errorf("failed to make %s executable: %w", script, err)
		}
	}

	r.logger.Info("running bash script",
		zap.String("script", script), zap.String("phase", string(phase)))

	cmd := exec.Command(script, string(phase))
	cmd.Dir = filepath.Dir(script)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return r.wait(cmd, script, timeout)
}

func (r *Runner) runAnsible(entry string, phase Phase, timeout time.Duration) error {
	playbook, err := resolveEntry(entry, playbookCandidates)
	if err != nil {
		return err
	}

	r.logger.Info("running ansible playbook",
		zap.String("playbook", playbook), zap.String("phase", string(phase)))

	cmd := exec.Command("ansible-playbook",
		"-i", "localhost,",
		"--connection=local",
		"--tags="+string(phase),
		playbook,
	)
	cmd.Dir = filepath.Dir(playbook)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	return r.wait(cmd, playbook, timeout)
}

// wait runs cmd to completion, enforcing timeout when non-zero, and
// maps the exit status.
func (r *Runner) wait(cmd *exec.Cmd, entry string, timeout time.Duration) error {
	if timeout <= 0 {
		return exitError(cmd.Run(), entry)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", entry, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitError(err, entry)
	case <-time.After(timeout):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
		r.logger.Warn("execution timed out",
			zap.String("entry", entry), zap.Duration("timeout", timeout))
		return &TimeoutError{Entry: entry, Timeout: timeout}
	}
}

func exitError(err error, entry string) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &ExecError{Entry: entry, Code: ee.ExitCode(), Err: err}
	}
	return fmt.Errorf("failed to execute %s: %w", entry, err)
}

// resolveEntry locates the actual file to execute. A file path is used
// as-is; a directory is searched for the conventional candidate names,
// first directly and then depth-first through subdirectories.
func resolveEntry(entry string, candidates []string) (string, error) {
	info, err := os.Stat(entry)
	if err != nil {
		return "", &NotFoundError{Dir: entry, Candidates: candidates}
	}
	if !info.IsDir() {
		return entry, nil
	}
	return findInDir(entry, candidates)
}

func findInDir(dir string, candidates []string) (string, error) {
	for _, name := range candidates {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if found, err := findInDir(filepath.Join(dir, e.Name()), candidates); err == nil {
			return found, nil
		}
	}

	return "", &NotFoundError{Dir: dir, Candidates: candidates}
}

// StrategiesFor maps a script kind name to its ordered strategy list.
// Mixed payloads try ansible first and fall back to bash.
func StrategiesFor(kind string) []Strategy {
	switch kind {
	case "bash":
		return []Strategy{StrategyBash}
	case "ansible":
		return []Strategy{StrategyAnsible}
	case "mixed":
		return []Strategy{StrategyAnsible, StrategyBash}
	default:
		return nil
	}
}
