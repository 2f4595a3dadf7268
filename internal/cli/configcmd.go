package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"provisor/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the provisor configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Long:  `Writes a commented example configuration with sample sources. Without a path it goes to /etc/provisor/provisor.yaml.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.SystemConfigDir + "/provisor.yaml"
	if len(args) == 1 {
		path = args[0]
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing configuration at %s", path)
	}

	if err := config.CreateExample(path); err != nil {
		return err
	}
	fmt.Printf("Wrote example configuration to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	source := a.cfg.FilePath
	if source == "" {
		source = "(built-in defaults)"
	}
	fmt.Printf("config file:      %s\n", source)
	fmt.Printf("tasks_dir:        %s\n", a.cfg.TasksDir)
	fmt.Printf("stacks_dir:       %s\n", a.cfg.StacksDir)
	fmt.Printf("state_dir:        %s\n", a.cfg.StateDir)
	fmt.Printf("log_dir:          %s\n", a.cfg.LogDir)
	fmt.Printf("download_timeout: %d\n", a.cfg.DownloadTimeout)
	fmt.Printf("ui_theme:         %s\n", a.cfg.UITheme)
	fmt.Printf("task_sources:     %d\n", len(a.cfg.TaskSources))
	fmt.Printf("stack_sources:    %d\n", len(a.cfg.StackSources))
	return nil
}
