package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [tasks|stacks]",
	Short: "List known tasks and stacks with their status",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	which := "all"
	if len(args) == 1 {
		which = args[0]
	}
	switch which {
	case "all", "tasks", "task", "stacks", "stack":
	default:
		return fmt.Errorf("unknown listing %q, want tasks or stacks", which)
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if which == "all" || which == "tasks" || which == "task" {
		tasks, err := a.loader.LoadTasks()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "TASK\tTYPE\tSTATUS\tDESCRIPTION")
		for _, t := range tasks {
			status := "not installed"
			if t.Installed {
				status = "installed"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Kind.Letter(), status, t.Description)
		}
		if which == "all" {
			fmt.Fprintln(w)
		}
	}

	if which == "all" || which == "stacks" || which == "stack" {
		tasks, err := a.loader.LoadTasks()
		if err != nil {
			return err
		}
		stacks, err := a.loader.LoadStacks(tasks)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "STACK\tTASKS\tSTATUS\tDESCRIPTION")
		for _, s := range stacks {
			status := "not installed"
			switch {
			case s.FullyInstalled:
				status = "installed"
			case s.PartiallyInstalled:
				status = "partial"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, strings.Join(s.TaskNames, ","), status, s.Description)
		}
	}

	return nil
}
