package unit

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"provisor/internal/config"
	"provisor/internal/runner"
	"provisor/internal/state"
	"provisor/internal/transport"
)

// Engine drives the unit lifecycle. It owns no unit collection; the
// caller passes the tasks a stack operation may reference.
type Engine struct {
	cfg    *config.Config
	client *transport.Client
	runner *runner.Runner
	states *state.Store
	logger *zap.Logger
}

// NewEngine wires the lifecycle engine from its collaborators.
func NewEngine(cfg *config.Config, client *transport.Client, run *runner.Runner, states *state.Store, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: client,
		runner: run,
		states: states,
		logger: logger,
	}
}

// Download materializes the task's payload under the tasks directory
// and records the local path on the task. A payload already on disk is
// reused.
func (e *Engine) Download(t *Task) error {
	if t.LocalPath != "" {
		if _, err := os.Stat(t.LocalPath); err == nil {
			return nil
		}
		t.LocalPath = ""
	}

	dest := e.cfg.Resolve(t.Name, config.CategoryTasks)
	local, err := e.client.FetchAndMaterialize(t.URL, dest)
	if err != nil {
		return fmt.Errorf("failed to fetch payload for task %s: %w", t.Name, err)
	}
	t.LocalPath = local
	return nil
}

// InstallTask downloads the payload, runs the install phase and
// records the task as installed. Installing an already-installed task
// re-runs the payload and rewrites the marker; install has no
// precondition. Missing dependencies only produce a warning; they
// never block.
func (e *Engine) InstallTask(t *Task, known []*Task) error {
	if missing := e.missingDependencies(t, known); len(missing) > 0 {
		e.logger.Warn("task has uninstalled dependencies",
			zap.String("task", t.Name),
			zap.Strings("missing", missing))
	}

	if err := e.Download(t); err != nil {
		return err
	}

	if err := e.runPhase(t, runner.PhaseInstall); err != nil {
		return err
	}

	if err := e.states.MarkInstalled(t.Name); err != nil {
		return err
	}
	t.Installed = true

	e.logger.Info("task installed", zap.String("task", t.Name))
	if t.RequiresReboot {
		e.logger.Warn("task requires a reboot to take effect", zap.String("task", t.Name))
	}
	return nil
}

// UninstallTask reverts an installed task. A configured cleanup
// command takes precedence over the payload's uninstall phase,
// whatever the task's kind.
func (e *Engine) UninstallTask(t *Task) error {
	if !t.CanUninstall() {
		return &PreconditionError{Unit: t.Name, Op: "uninstall"}
	}

	if err := e.Download(t); err != nil {
		return err
	}

	if t.CleanupCommand != "" {
		if err := e.runner.RunCommand(t.CleanupCommand); err != nil {
			return fmt.Errorf("cleanup command for task %s: %w", t.Name, err)
		}
	} else {
		if err := e.runPhase(t, runner.PhaseUninstall); err != nil {
			return err
		}
	}

	if err := e.states.ClearInstalled(t.Name); err != nil {
		return err
	}
	t.Installed = false

	e.logger.Info("task uninstalled", zap.String("task", t.Name))
	return nil
}

// ResetTask re-runs an installed task's reset phase. The installed
// marker is left untouched.
func (e *Engine) ResetTask(t *Task) error {
	if !t.CanReset() {
		return &PreconditionError{Unit: t.Name, Op: "reset"}
	}
	if err := e.Download(t); err != nil {
		return err
	}
	if err := e.runPhase(t, runner.PhaseReset); err != nil {
		return err
	}
	e.logger.Info("task reset", zap.String("task", t.Name))
	return nil
}

// RemediateTask runs an installed task's remediate phase. The
// installed marker is left untouched.
func (e *Engine) RemediateTask(t *Task) error {
	if !t.CanRemediate() {
		return &PreconditionError{Unit: t.Name, Op: "remediate"}
	}
	if err := e.Download(t); err != nil {
		return err
	}
	if err := e.runPhase(t, runner.PhaseRemediate); err != nil {
		return err
	}
	e.logger.Info("task remediated", zap.String("task", t.Name))
	return nil
}

// RefreshTaskStatus reloads the installed flag from the state store.
func (e *Engine) RefreshTaskStatus(t *Task) error {
	installed, err := e.states.IsInstalled(t.Name)
	if err != nil {
		return err
	}
	t.Installed = installed
	return nil
}

// InstallStack installs the stack's tasks in declaration order,
// skipping members that are already installed. Failures do not stop
// the walk; they are collected and reported together.
func (e *Engine) InstallStack(s *Stack, tasks []*Task) error {
	err := e.walkStack(s, tasks, s.TaskNames, func(t *Task) error {
		if t.Installed {
			e.logger.Info("task already installed, skipping",
				zap.String("stack", s.Name), zap.String("task", t.Name))
			return nil
		}
		return e.InstallTask(t, tasks)
	})
	s.CheckInstallationStatus(tasks)
	return err
}

// UninstallStack uninstalls the stack's tasks in reverse declaration
// order, skipping members that are not installed.
func (e *Engine) UninstallStack(s *Stack, tasks []*Task) error {
	reversed := make([]string, len(s.TaskNames))
	for i, name := range s.TaskNames {
		reversed[len(s.TaskNames)-1-i] = name
	}

	err := e.walkStack(s, tasks, reversed, func(t *Task) error {
		if !t.Installed {
			e.logger.Info("task not installed, skipping",
				zap.String("stack", s.Name), zap.String("task", t.Name))
			return nil
		}
		return e.UninstallTask(t)
	})
	s.CheckInstallationStatus(tasks)
	return err
}

// ResetStack resets the stack's installed tasks in declaration order.
func (e *Engine) ResetStack(s *Stack, tasks []*Task) error {
	return e.walkStack(s, tasks, s.TaskNames, func(t *Task) error {
		if !t.Installed {
			return nil
		}
		return e.ResetTask(t)
	})
}

// RemediateStack remediates the stack's installed tasks in declaration
// order.
func (e *Engine) RemediateStack(s *Stack, tasks []*Task) error {
	return e.walkStack(s, tasks, s.TaskNames, func(t *Task) error {
		if !t.Installed {
			return nil
		}
		return e.RemediateTask(t)
	})
}

// walkStack applies op to each named member, resolving names against
// tasks. Unknown names and per-task failures are collected; the walk
// always reaches the end.
func (e *Engine) walkStack(s *Stack, tasks []*Task, names []string, op func(*Task) error) error {
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
	}

	var failed []string
	for _, name := range names {
		t, ok := byName[name]
		if !ok {
			e.logger.Error("task not found",
				zap.String("stack", s.Name), zap.String("task", name))
			failed = append(failed, name)
			continue
		}
		if err := op(t); err != nil {
			e.logger.Error("stack member failed",
				zap.String("stack", s.Name), zap.String("task", name), zap.Error(err))
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("stack %s: %d of %d tasks failed: %s",
			s.Name, len(failed), len(names), strings.Join(failed, ", "))
	}
	return nil
}

func (e *Engine) runPhase(t *Task, phase runner.Phase) error {
	strategies := runner.StrategiesFor(string(t.Kind))
	if strategies == nil {
		return fmt.Errorf("task %s has no execution strategy for kind %q", t.Name, t.Kind)
	}
	return e.runner.RunPhase(t.LocalPath, phase, strategies)
}

func (e *Engine) missingDependencies(t *Task, known []*Task) []string {
	byName := make(map[string]*Task, len(known))
	for _, k := range known {
		byName[k.Name] = k
	}
	var missing []string
	for _, dep := range t.Dependencies {
		if k, ok := byName[dep]; !ok || !k.Installed {
			missing = append(missing, dep)
		}
	}
	return missing
}
