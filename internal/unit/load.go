package unit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"provisor/internal/config"
	"provisor/internal/state"
	"provisor/internal/transport"
)

// Definition documents are YAML files with a .conf suffix holding a
// tasks: or stacks: list (or both).
const definitionSuffix = ".conf"

// Loader discovers unit definitions: it syncs remote sources into the
// local directories, scaffolds examples on first run and parses the
// .conf documents found on disk.
type Loader struct {
	cfg    *config.Config
	client *transport.Client
	states *state.Store
	logger *zap.Logger
}

// NewLoader wires a definition loader.
func NewLoader(cfg *config.Config, client *transport.Client, states *state.Store, logger *zap.Logger) *Loader {
	return &Loader{cfg: cfg, client: client, states: states, logger: logger}
}

type taskEntry struct {
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Description    string   `yaml:"description"`
	URL            string   `yaml:"url"`
	CleanupCommand string   `yaml:"cleanup_command"`
	Dependencies   []string `yaml:"dependencies"`
	Tags           []string `yaml:"tags"`
	RequiresReboot bool     `yaml:"requires_reboot"`
}

type stackEntry struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Tasks          []string `yaml:"tasks"`
	Tags           []string `yaml:"tags"`
	RequiresReboot bool     `yaml:"requires_reboot"`
}

// Raw nodes so that one malformed entry never discards the rest of the
// document.
type definitionDoc struct {
	Tasks  []yaml.Node `yaml:"tasks"`
	Stacks []yaml.Node `yaml:"stacks"`
}

// LoadTasks parses every definition document under the tasks
// directory and returns the tasks with their installed flag loaded
// from the state store. Malformed entries are skipped with a warning.
func (l *Loader) LoadTasks() ([]*Task, error) {
	docs, err := l.readDefinitions(l.cfg.TasksDir)
	if err != nil {
		return nil, err
	}

	var tasks []*Task
	seen := make(map[string]bool)
	for _, doc := range docs {
		for _, node := range doc.doc.Tasks {
			t, ok := l.parseTask(doc.path, node)
			if !ok {
				continue
			}
			if seen[t.Name] {
				l.logger.Warn("duplicate task definition skipped",
					zap.String("task", t.Name), zap.String("file", doc.path))
				continue
			}
			seen[t.Name] = true

			installed, err := l.states.IsInstalled(t.Name)
			if err != nil {
				return nil, err
			}
			t.Installed = installed
			tasks = append(tasks, t)
		}
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks, nil
}

// LoadStacks parses every definition document under the stacks
// directory and derives each stack's status from tasks.
func (l *Loader) LoadStacks(tasks []*Task) ([]*Stack, error) {
	docs, err := l.readDefinitions(l.cfg.StacksDir)
	if err != nil {
		return nil, err
	}

	var stacks []*Stack
	seen := make(map[string]bool)
	for _, doc := range docs {
		for _, node := range doc.doc.Stacks {
			s, ok := l.parseStack(doc.path, node)
			if !ok {
				continue
			}
			if seen[s.Name] {
				l.logger.Warn("duplicate stack definition skipped",
					zap.String("stack", s.Name), zap.String("file", doc.path))
				continue
			}
			seen[s.Name] = true

			s.CheckInstallationStatus(tasks)
			stacks = append(stacks, s)
		}
	}

	sort.Slice(stacks, func(i, j int) bool { return stacks[i].Name < stacks[j].Name })
	return stacks, nil
}

// SyncSources downloads every configured remote definition source into
// its local directory. A source whose file is already present is
// skipped; a failing source is logged and skipped so one dead mirror
// cannot block the rest.
func (l *Loader) SyncSources() {
	for _, url := range l.cfg.TaskSources {
		l.syncSource(url, l.cfg.TasksDir)
	}
	for _, url := range l.cfg.StackSources {
		l.syncSource(url, l.cfg.StacksDir)
	}
}

func (l *Loader) syncSource(url, dir string) {
	if name, err := transport.FileName(url); err == nil {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			l.logger.Debug("source already present, skipping",
				zap.String("url", url), zap.String("dir", dir))
			return
		}
	}
	if _, err := l.client.FetchAndMaterialize(url, dir); err != nil {
		l.logger.Warn("failed to sync source",
			zap.String("url", url), zap.Error(err))
	}
}

// EnsureExamples writes example definition documents into empty
// definition directories so a first run has something to show.
func (l *Loader) EnsureExamples() error {
	empty, err := hasNoDefinitions(l.cfg.TasksDir)
	if err != nil {
		return err
	}
	if empty {
		path := filepath.Join(l.cfg.TasksDir, "example"+definitionSuffix)
		if err := os.WriteFile(path, []byte(exampleTasksDoc), 0644); err != nil {
			return fmt.Errorf("failed to write example task definitions: %w", err)
		}
		l.logger.Info("created example task definitions", zap.String("file", path))
	}

	empty, err = hasNoDefinitions(l.cfg.StacksDir)
	if err != nil {
		return err
	}
	if empty {
		path := filepath.Join(l.cfg.StacksDir, "example"+definitionSuffix)
		if err := os.WriteFile(path, []byte(exampleStacksDoc), 0644); err != nil {
			return fmt.Errorf("failed to write example stack definitions: %w", err)
		}
		l.logger.Info("created example stack definitions", zap.String("file", path))
	}
	return nil
}

type parsedDoc struct {
	path string
	doc  definitionDoc
}

// readDefinitions parses every .conf document under dir, in name
// order. An unparseable document is skipped with a warning.
func (l *Loader) readDefinitions(dir string) ([]parsedDoc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read definitions directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), definitionSuffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []parsedDoc
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var doc definitionDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			l.logger.Warn("skipping unparseable definition document",
				zap.String("file", path), zap.Error(err))
			continue
		}
		docs = append(docs, parsedDoc{path: path, doc: doc})
	}
	return docs, nil
}

func (l *Loader) parseTask(path string, node yaml.Node) (*Task, bool) {
	var entry taskEntry
	if err := node.Decode(&entry); err != nil {
		l.logger.Warn("skipping malformed task entry",
			zap.String("file", path), zap.Int("line", node.Line), zap.Error(err))
		return nil, false
	}

	if entry.Name == "" || entry.URL == "" {
		l.logger.Warn("skipping task entry without name or url",
			zap.String("file", path), zap.Int("line", node.Line))
		return nil, false
	}

	kind, err := ParseScriptKind(entry.Type)
	if err != nil {
		l.logger.Warn("skipping task with unknown type",
			zap.String("file", path), zap.String("task", entry.Name), zap.Error(err))
		return nil, false
	}

	return &Task{
		Name:           entry.Name,
		Kind:           kind,
		Description:    entry.Description,
		URL:            entry.URL,
		CleanupCommand: entry.CleanupCommand,
		Dependencies:   entry.Dependencies,
		Tags:           entry.Tags,
		RequiresReboot: entry.RequiresReboot,
	}, true
}

func (l *Loader) parseStack(path string, node yaml.Node) (*Stack, bool) {
	var entry stackEntry
	if err := node.Decode(&entry); err != nil {
		l.logger.Warn("skipping malformed stack entry",
			zap.String("file", path), zap.Int("line", node.Line), zap.Error(err))
		return nil, false
	}

	if entry.Name == "" {
		l.logger.Warn("skipping stack entry without name",
			zap.String("file", path), zap.Int("line", node.Line))
		return nil, false
	}

	return &Stack{
		Name:           entry.Name,
		Description:    entry.Description,
		TaskNames:      entry.Tasks,
		Tags:           entry.Tags,
		RequiresReboot: entry.RequiresReboot,
	}, true
}

func hasNoDefinitions(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read definitions directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), definitionSuffix) {
			return false, nil
		}
	}
	return true, nil
}

const exampleTasksDoc = `# Example task definitions. Each task points at a downloadable payload:
# a bash script, an ansible playbook, or an archive containing either.
tasks:
  - name: example-nginx
    type: bash
    description: Install and configure nginx
    url: https://example.com/tasks/nginx.tar.gz
    tags: [web]
  - name: example-hardening
    type: ansible
    description: Apply baseline hardening playbook
    url: https://example.com/tasks/hardening.zip
    requires_reboot: true
  - name: example-monitoring
    type: mixed
    description: Install the monitoring agent
    url: https://example.com/tasks/monitoring.tgz
    dependencies: [example-nginx]
    cleanup_command: rm -rf /opt/monitoring
`

const exampleStacksDoc = `# Example stack definitions. A stack installs its tasks in order and
# uninstalls them in reverse.
stacks:
  - name: example-web-server
    description: Hardened web server with monitoring
    tasks:
      - example-hardening
      - example-nginx
      - example-monitoring
    tags: [web]
`
