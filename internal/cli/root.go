// Package cli is the non-interactive frontend: cobra commands for the
// unit lifecycle, definition listing and configuration management.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"provisor/internal/config"
	"provisor/internal/logging"
	"provisor/internal/runner"
	"provisor/internal/state"
	"provisor/internal/transport"
	"provisor/internal/tui"
	"provisor/internal/unit"
	"provisor/internal/version"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "provisor",
	Short:   "Install and maintain tasks and stacks on this machine",
	Long:    `Provisor downloads task payloads (bash scripts or ansible playbooks), runs their lifecycle phases and tracks what is installed. Run without arguments for the interactive interface.`,
	Version: version.Full(),
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file")

	rootCmd.AddCommand(
		newLifecycleCmd("install", "Install the named tasks or stacks"),
		newLifecycleCmd("uninstall", "Uninstall the named tasks or stacks"),
		newLifecycleCmd("reset", "Re-run the reset phase of installed tasks or stacks"),
		newLifecycleCmd("remediate", "Re-run the remediate phase of installed tasks or stacks"),
		listCmd,
		sourcesCmd,
		configCmd,
		doctorCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// LaunchTUI bootstraps the shared components and starts the
// interactive interface.
func LaunchTUI() error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(&tui.Deps{
		Config: a.cfg,
		Engine: a.engine,
		Loader: a.loader,
		Logger: a.logger,
	})
}

// app bundles the wired components every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *unit.Engine
	loader *unit.Loader
}

// bootstrap loads the configuration, opens the log file and wires the
// engine. Remote sources are synced when configured; otherwise empty
// definition directories get example documents.
func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, logPath, err := logging.New(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	logger.Info("starting", zap.String("version", version.Version), zap.String("log", logPath))

	client := transport.NewClient(cfg.Timeout(), logger)
	states := state.NewStore(cfg.StateDir)
	run := runner.New(logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		engine: unit.NewEngine(cfg, client, run, states, logger),
		loader: unit.NewLoader(cfg, client, states, logger),
	}

	if cfg.HasSources() {
		a.loader.SyncSources()
	} else if err := a.loader.EnsureExamples(); err != nil {
		logger.Warn("failed to scaffold example definitions", zap.Error(err))
	}

	return a, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// loadUnits reads the definitions and returns the collection for kind
// ("task" or "stack") along with the full task list.
func (a *app) loadUnits(kind string) ([]unit.Unit, []*unit.Task, error) {
	tasks, err := a.loader.LoadTasks()
	if err != nil {
		return nil, nil, err
	}

	switch kind {
	case "task", "tasks":
		units := make([]unit.Unit, len(tasks))
		for i, t := range tasks {
			units[i] = t
		}
		return units, tasks, nil
	case "stack", "stacks":
		stacks, err := a.loader.LoadStacks(tasks)
		if err != nil {
			return nil, nil, err
		}
		units := make([]unit.Unit, len(stacks))
		for i, s := range stacks {
			units[i] = s
		}
		return units, tasks, nil
	default:
		return nil, nil, fmt.Errorf("unknown unit kind %q, want task or stack", kind)
	}
}
