package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"provisor/internal/osprobe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the host environment",
	Long:  `Reports whether the host can run every task kind: privileges, ansible availability and directory permissions.`,
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Printf("OS:              %s\n", osprobe.OSName())

	report := func(ok bool, okMsg, badMsg string) {
		if ok {
			fmt.Printf("✓ %s\n", okMsg)
		} else {
			fmt.Printf("! %s\n", badMsg)
		}
	}

	report(osprobe.IsRoot(),
		"running as root",
		"not running as root; tasks that touch system paths may fail")
	report(osprobe.IsAnsibleAvailable(),
		"ansible-playbook found on PATH",
		"ansible-playbook not found; ansible and mixed tasks cannot run")
	report(osprobe.IsWritable(a.cfg.TasksDir),
		fmt.Sprintf("tasks directory writable (%s)", a.cfg.TasksDir),
		fmt.Sprintf("tasks directory not writable (%s)", a.cfg.TasksDir))
	report(osprobe.IsWritable(a.cfg.StateDir),
		fmt.Sprintf("state directory writable (%s)", a.cfg.StateDir),
		fmt.Sprintf("state directory not writable (%s)", a.cfg.StateDir))
	report(osprobe.IsWritable(a.cfg.LogDir),
		fmt.Sprintf("log directory writable (%s)", a.cfg.LogDir),
		fmt.Sprintf("log directory not writable (%s)", a.cfg.LogDir))

	return nil
}
