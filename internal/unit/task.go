// Package unit defines the installable units provisor manages: Tasks
// (single bash or ansible actions fetched from a URL) and Stacks
// (ordered groups of task references), together with their lifecycle
// engine and definition-document loading.
package unit

import (
	"fmt"
	"strings"
)

// ScriptKind classifies how a task's payload is executed.
type ScriptKind string

const (
	KindBash    ScriptKind = "bash"
	KindAnsible ScriptKind = "ansible"
	// KindMixed tries the ansible strategy first and falls back to bash.
	KindMixed ScriptKind = "mixed"
)

// ParseScriptKind accepts the full kind names and their single-letter
// shorthands, case-insensitive.
func ParseScriptKind(s string) (ScriptKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bash", "b":
		return KindBash, nil
	case "ansible", "a":
		return KindAnsible, nil
	case "mixed", "m":
		return KindMixed, nil
	default:
		return "", fmt.Errorf("unknown script type: %s", s)
	}
}

// Letter returns the single-letter code used in list views.
func (k ScriptKind) Letter() string {
	switch k {
	case KindBash:
		return "B"
	case KindAnsible:
		return "A"
	case KindMixed:
		return "M"
	default:
		return "?"
	}
}

// PreconditionError reports an operation invoked on a unit in the
// wrong lifecycle state.
type PreconditionError struct {
	Unit string
	Op   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s %s: unit is not in a valid state for the operation", e.Op, e.Unit)
}

// Task is the atomic installable unit.
type Task struct {
	Name           string
	Kind           ScriptKind
	Description    string
	URL            string
	CleanupCommand string
	// Dependencies are declared but not enforced; install only warns
	// when some are missing.
	Dependencies   []string
	Tags           []string
	RequiresReboot bool

	// LocalPath is set once the payload has been materialized on disk.
	// It is never persisted across runs.
	LocalPath string

	// Installed mirrors the state store and is recomputed from it, not
	// authoritative on its own.
	Installed bool
}

// CanInstall reports whether install is applicable. Batches use this
// to skip installed tasks; a direct install ignores it and re-runs.
func (t *Task) CanInstall() bool { return !t.Installed }

// CanUninstall reports whether uninstall is applicable.
func (t *Task) CanUninstall() bool { return t.Installed }

// CanReset reports whether reset is applicable.
func (t *Task) CanReset() bool { return t.Installed }

// CanRemediate reports whether remediate is applicable.
func (t *Task) CanRemediate() bool { return t.Installed }

// UnitName implements Unit.
func (t *Task) UnitName() string { return t.Name }

// StatusMarker returns the list-view marker for the task's state.
func (t *Task) StatusMarker() string {
	if t.Installed {
		return "[✓]"
	}
	return "[ ]"
}

// ListLine formats the task for a one-line list entry.
func (t *Task) ListLine() string {
	return fmt.Sprintf("%s [%s] %s - %s", t.StatusMarker(), t.Kind.Letter(), t.Name, t.Description)
}

// Details formats the task for the detail panel.
func (t *Task) Details() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", t.Name)
	fmt.Fprintf(&sb, "Type: %s (%s)\n", t.Kind, t.Kind.Letter())
	fmt.Fprintf(&sb, "Description: %s\n", t.Description)
	fmt.Fprintf(&sb, "URL: %s\n", t.URL)
	if t.Installed {
		sb.WriteString("Status: installed\n")
	} else {
		sb.WriteString("Status: not installed\n")
	}
	if len(t.Dependencies) > 0 {
		fmt.Fprintf(&sb, "Dependencies: %s\n", strings.Join(t.Dependencies, ", "))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(t.Tags, ", "))
	}
	fmt.Fprintf(&sb, "Requires reboot: %v\n", t.RequiresReboot)
	if t.CleanupCommand != "" {
		fmt.Fprintf(&sb, "Cleanup command: %s\n", t.CleanupCommand)
	}
	if t.LocalPath != "" {
		fmt.Fprintf(&sb, "Local path: %s\n", t.LocalPath)
	}
	return sb.String()
}
