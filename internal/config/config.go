// Package config loads and persists the provisor configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configName = "provisor"
	// SystemConfigDir is checked before the executable's directory.
	SystemConfigDir = "/etc/provisor"
)

// Path categories accepted by Resolve.
const (
	CategoryTasks  = "tasks"
	CategoryStacks = "stacks"
	CategoryState  = "state"
)

// Config holds the directory layout, download settings and remote
// definition sources for one provisor installation.
type Config struct {
	TasksDir        string   `mapstructure:"tasks_dir" yaml:"tasks_dir"`
	StacksDir       string   `mapstructure:"stacks_dir" yaml:"stacks_dir"`
	StateDir        string   `mapstructure:"state_dir" yaml:"state_dir"`
	LogDir          string   `mapstructure:"log_dir" yaml:"log_dir"`
	DownloadTimeout int      `mapstructure:"download_timeout" yaml:"download_timeout"`
	UITheme         string   `mapstructure:"ui_theme" yaml:"ui_theme"`
	TaskSources     []string `mapstructure:"task_sources" yaml:"task_sources"`
	StackSources    []string `mapstructure:"stack_sources" yaml:"stack_sources"`

	// FilePath is where the configuration was read from, empty when
	// running on built-in defaults. Never serialized.
	FilePath string `mapstructure:"-" yaml:"-"`
}

// Default returns a configuration rooted next to the executable.
func Default() *Config {
	base := baseDir()
	return &Config{
		TasksDir:        filepath.Join(base, "tasks"),
		StacksDir:       filepath.Join(base, "stacks"),
		StateDir:        filepath.Join(base, "state"),
		LogDir:          filepath.Join(base, "logs"),
		DownloadTimeout: 60,
		UITheme:         "default",
	}
}

// Load reads the configuration from explicitPath if given, otherwise
// from /etc/provisor/provisor.yaml and then the executable's
// directory. When no file is found the defaults are written next to
// the executable so the next run finds them.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("tasks_dir", cfg.TasksDir)
	v.SetDefault("stacks_dir", cfg.StacksDir)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("log_dir", cfg.LogDir)
	v.SetDefault("download_timeout", cfg.DownloadTimeout)
	v.SetDefault("ui_theme", cfg.UITheme)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(SystemConfigDir)
		v.AddConfigPath(baseDir())
	}

	err := v.ReadInConfig()
	switch {
	case err == nil:
		cfg.FilePath = v.ConfigFileUsed()
	case explicitPath != "":
		return nil, fmt.Errorf("failed to read config file %s: %w", explicitPath, err)
	default:
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config anywhere: persist the defaults beside the binary.
		// A read-only install location is not fatal.
		path := filepath.Join(baseDir(), configName+".yaml")
		if saveErr := cfg.Save(path); saveErr == nil {
			cfg.FilePath = path
		}
	}

	if cfg.FilePath != "" {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ensureDirectories(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as YAML to path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Resolve joins rel onto the base directory for the given category.
// Unknown categories are treated as literal base directories.
func (c *Config) Resolve(rel, category string) string {
	var base string
	switch category {
	case CategoryTasks:
		base = c.TasksDir
	case CategoryStacks:
		base = c.StacksDir
	case CategoryState:
		base = c.StateDir
	default:
		base = category
	}
	return filepath.Join(base, rel)
}

// Timeout returns the download timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DownloadTimeout) * time.Second
}

// HasSources reports whether any remote definition source is configured.
func (c *Config) HasSources() bool {
	return len(c.TaskSources) > 0 || len(c.StackSources) > 0
}

// AddTaskSource appends url to the task sources. Returns false if the
// url was already present.
func (c *Config) AddTaskSource(url string) bool {
	if slices.Contains(c.TaskSources, url) {
		return false
	}
	c.TaskSources = append(c.TaskSources, url)
	return true
}

// AddStackSource appends url to the stack sources. Returns false if
// the url was already present.
func (c *Config) AddStackSource(url string) bool {
	if slices.Contains(c.StackSources, url) {
		return false
	}
	c.StackSources = append(c.StackSources, url)
	return true
}

// RemoveTaskSource deletes url from the task sources. Returns false if
// it was not present.
func (c *Config) RemoveTaskSource(url string) bool {
	before := len(c.TaskSources)
	c.TaskSources = slices.DeleteFunc(c.TaskSources, func(s string) bool { return s == url })
	return len(c.TaskSources) < before
}

// RemoveStackSource deletes url from the stack sources. Returns false
// if it was not present.
func (c *Config) RemoveStackSource(url string) bool {
	before := len(c.StackSources)
	c.StackSources = slices.DeleteFunc(c.StackSources, func(s string) bool { return s == url })
	return len(c.StackSources) < before
}

func (c *Config) ensureDirectories() error {
	for _, dir := range []string{c.TasksDir, c.StacksDir, c.StateDir, c.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateExample writes a commented example configuration with sample
// sources to path.
func CreateExample(path string) error {
	cfg := Default()
	cfg.AddTaskSource("https://example.com/tasks/security.zip")
	cfg.AddTaskSource("https://example.com/tasks/monitoring.zip")
	cfg.AddStackSource("https://example.com/stacks/web_server.zip")
	return cfg.Save(path)
}

// baseDir is the directory holding the running executable, falling
// back to the working directory.
func baseDir() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
