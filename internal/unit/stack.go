package unit

import (
	"fmt"
	"strings"
)

// Stack is an ordered group of task references installed together.
// Uninstall walks the tasks in reverse declaration order.
type Stack struct {
	Name           string
	Description    string
	TaskNames      []string
	Tags           []string
	RequiresReboot bool

	// FullyInstalled and PartiallyInstalled are derived by
	// CheckInstallationStatus and never persisted.
	FullyInstalled     bool
	PartiallyInstalled bool

	// memberInstalled caches per-member state for the detail panel,
	// refreshed together with the flags above.
	memberInstalled map[string]bool
}

// UnitName implements Unit.
func (s *Stack) UnitName() string { return s.Name }

// CanInstall reports whether install is applicable: at least one
// member task is still missing.
func (s *Stack) CanInstall() bool { return !s.FullyInstalled }

// CanUninstall reports whether uninstall is applicable: at least one
// member task is installed.
func (s *Stack) CanUninstall() bool { return s.FullyInstalled || s.PartiallyInstalled }

// CanReset reports whether reset is applicable.
func (s *Stack) CanReset() bool { return s.FullyInstalled || s.PartiallyInstalled }

// CanRemediate reports whether remediate is applicable.
func (s *Stack) CanRemediate() bool { return s.FullyInstalled || s.PartiallyInstalled }

// CheckInstallationStatus recomputes the derived status flags from the
// member tasks. Tasks not present in the collection count as not
// installed; an empty stack is neither fully nor partially installed.
func (s *Stack) CheckInstallationStatus(tasks []*Task) {
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t
	}

	installed := 0
	s.memberInstalled = make(map[string]bool, len(s.TaskNames))
	for _, name := range s.TaskNames {
		if t, ok := byName[name]; ok && t.Installed {
			s.memberInstalled[name] = true
			installed++
		}
	}

	s.FullyInstalled = len(s.TaskNames) > 0 && installed == len(s.TaskNames)
	s.PartiallyInstalled = installed > 0 && installed < len(s.TaskNames)
}

// StatusMarker returns the list-view marker for the stack's state.
func (s *Stack) StatusMarker() string {
	switch {
	case s.FullyInstalled:
		return "[✓]"
	case s.PartiallyInstalled:
		return "[!]"
	default:
		return "[ ]"
	}
}

// ListLine formats the stack for a one-line list entry.
func (s *Stack) ListLine() string {
	return fmt.Sprintf("%s %s (%d tasks) - %s", s.StatusMarker(), s.Name, len(s.TaskNames), s.Description)
}

// Details formats the stack for the detail panel.
func (s *Stack) Details() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", s.Name)
	fmt.Fprintf(&sb, "Description: %s\n", s.Description)
	switch {
	case s.FullyInstalled:
		sb.WriteString("Status: installed\n")
	case s.PartiallyInstalled:
		sb.WriteString("Status: partially installed\n")
	default:
		sb.WriteString("Status: not installed\n")
	}
	fmt.Fprintf(&sb, "Tasks (%d):\n", len(s.TaskNames))
	for _, name := range s.TaskNames {
		marker := "[ ]"
		if s.memberInstalled[name] {
			marker = "[✓]"
		}
		fmt.Fprintf(&sb, "  %s %s\n", marker, name)
	}
	if len(s.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(s.Tags, ", "))
	}
	fmt.Fprintf(&sb, "Requires reboot: %v\n", s.RequiresReboot)
	return sb.String()
}
