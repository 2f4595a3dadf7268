// Package osprobe answers questions about the host: privileges,
// distribution name and the availability of external programs.
package osprobe

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// IsRoot reports whether the process runs with root privileges. Always
// false on Windows.
func IsRoot() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	return os.Geteuid() == 0
}

// OSName returns a human-readable operating system name, preferring
// the distribution's PRETTY_NAME from /etc/os-release.
func OSName() string {
	if runtime.GOOS == "linux" {
		if name := prettyName("/etc/os-release"); name != "" {
			return name
		}
	}
	return runtime.GOOS
}

// prettyName extracts PRETTY_NAME from an os-release style file.
func prettyName(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(strings.TrimSpace(value), `"`)
		}
	}
	return ""
}

// HasProgram reports whether name resolves on PATH.
func HasProgram(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// IsAnsibleAvailable reports whether ansible-playbook resolves on
// PATH. Ansible and mixed tasks need it; bash tasks do not.
func IsAnsibleAvailable() bool {
	return HasProgram("ansible-playbook")
}

// IsWritable reports whether the process can create files under dir.
func IsWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".provisor-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}
