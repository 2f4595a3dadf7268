package unit

import (
	"strings"
	"testing"
)

func TestParseScriptKind(t *testing.T) {
	cases := []struct {
		in      string
		want    ScriptKind
		wantErr bool
	}{
		{"bash", KindBash, false},
		{"b", KindBash, false},
		{"ansible", KindAnsible, false},
		{"a", KindAnsible, false},
		{"mixed", KindMixed, false},
		{"m", KindMixed, false},
		{"BASH", KindBash, false},
		{"Ansible", KindAnsible, false},
		{" M ", KindMixed, false},
		{"python", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseScriptKind(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseScriptKind(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScriptKind(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseScriptKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestScriptKindLetter(t *testing.T) {
	if got := KindBash.Letter(); got != "B" {
		t.Errorf("bash letter = %q, want B", got)
	}
	if got := KindAnsible.Letter(); got != "A" {
		t.Errorf("ansible letter = %q, want A", got)
	}
	if got := KindMixed.Letter(); got != "M" {
		t.Errorf("mixed letter = %q, want M", got)
	}
}

func TestTaskApplicability(t *testing.T) {
	task := &Task{Name: "nginx", Kind: KindBash}

	if !task.CanInstall() || task.CanUninstall() || task.CanReset() || task.CanRemediate() {
		t.Error("a fresh task should only allow install")
	}

	task.Installed = true
	if task.CanInstall() || !task.CanUninstall() || !task.CanReset() || !task.CanRemediate() {
		t.Error("an installed task should allow everything except install")
	}
}

func TestTaskListLine(t *testing.T) {
	task := &Task{Name: "nginx", Kind: KindMixed, Description: "web server"}

	line := task.ListLine()
	if !strings.Contains(line, "[ ]") || !strings.Contains(line, "[M]") || !strings.Contains(line, "nginx") {
		t.Errorf("unexpected list line: %q", line)
	}

	task.Installed = true
	if !strings.Contains(task.ListLine(), "[✓]") {
		t.Errorf("installed task should carry the check marker: %q", task.ListLine())
	}
}

func TestTaskDetails(t *testing.T) {
	task := &Task{
		Name:           "nginx",
		Kind:           KindBash,
		Description:    "web server",
		URL:            "https://example.com/nginx.tar.gz",
		Dependencies:   []string{"base"},
		CleanupCommand: "rm -rf /etc/nginx",
		RequiresReboot: true,
	}

	details := task.Details()
	for _, want := range []string{"nginx", "bash", "web server", "https://example.com/nginx.tar.gz", "base", "rm -rf /etc/nginx", "not installed"} {
		if !strings.Contains(details, want) {
			t.Errorf("details missing %q:\n%s", want, details)
		}
	}
}

func TestStackStatus(t *testing.T) {
	tasks := []*Task{
		{Name: "a", Installed: true},
		{Name: "b", Installed: false},
		{Name: "c", Installed: true},
	}

	t.Run("fully installed", func(t *testing.T) {
		s := &Stack{Name: "s", TaskNames: []string{"a", "c"}}
		s.CheckInstallationStatus(tasks)
		if !s.FullyInstalled || s.PartiallyInstalled {
			t.Errorf("full=%v partial=%v, want full only", s.FullyInstalled, s.PartiallyInstalled)
		}
		if s.StatusMarker() != "[✓]" {
			t.Errorf("marker = %q", s.StatusMarker())
		}
	})

	t.Run("partially installed", func(t *testing.T) {
		s := &Stack{Name: "s", TaskNames: []string{"a", "b"}}
		s.CheckInstallationStatus(tasks)
		if s.FullyInstalled || !s.PartiallyInstalled {
			t.Errorf("full=%v partial=%v, want partial only", s.FullyInstalled, s.PartiallyInstalled)
		}
		if s.StatusMarker() != "[!]" {
			t.Errorf("marker = %q", s.StatusMarker())
		}
	})

	t.Run("not installed", func(t *testing.T) {
		s := &Stack{Name: "s", TaskNames: []string{"b"}}
		s.CheckInstallationStatus(tasks)
		if s.FullyInstalled || s.PartiallyInstalled {
			t.Error("stack of uninstalled tasks should be neither full nor partial")
		}
		if s.StatusMarker() != "[ ]" {
			t.Errorf("marker = %q", s.StatusMarker())
		}
	})

	t.Run("empty stack", func(t *testing.T) {
		s := &Stack{Name: "s"}
		s.CheckInstallationStatus(tasks)
		if s.FullyInstalled || s.PartiallyInstalled {
			t.Error("an empty stack is neither fully nor partially installed")
		}
	})

	t.Run("unknown members count as missing", func(t *testing.T) {
		s := &Stack{Name: "s", TaskNames: []string{"a", "ghost"}}
		s.CheckInstallationStatus(tasks)
		if s.FullyInstalled || !s.PartiallyInstalled {
			t.Errorf("full=%v partial=%v, want partial only", s.FullyInstalled, s.PartiallyInstalled)
		}
	})
}

func TestStackDetails(t *testing.T) {
	tasks := []*Task{
		{Name: "a", Installed: true},
		{Name: "b", Installed: false},
	}
	s := &Stack{Name: "web", Description: "web stack", TaskNames: []string{"a", "b"}}
	s.CheckInstallationStatus(tasks)

	details := s.Details()
	for _, want := range []string{"web", "web stack", "partially installed", "[✓] a", "[ ] b"} {
		if !strings.Contains(details, want) {
			t.Errorf("details missing %q:\n%s", want, details)
		}
	}
}

func TestStackApplicability(t *testing.T) {
	s := &Stack{Name: "s", TaskNames: []string{"a"}}
	if !s.CanInstall() || s.CanUninstall() {
		t.Error("an uninstalled stack should only allow install")
	}

	s.PartiallyInstalled = true
	if !s.CanInstall() || !s.CanUninstall() || !s.CanReset() || !s.CanRemediate() {
		t.Error("a partially installed stack should allow every operation")
	}

	s.PartiallyInstalled = false
	s.FullyInstalled = true
	if s.CanInstall() || !s.CanUninstall() {
		t.Error("a fully installed stack should not allow install")
	}
}
