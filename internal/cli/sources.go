package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage remote definition sources",
	Long:  `Sources are URLs of definition documents or archives that are downloaded into the local tasks and stacks directories on startup.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sources",
	Args:  cobra.NoArgs,
	RunE:  runSourcesList,
}

var sourcesAddCmd = &cobra.Command{
	Use:   "add (task|stack) <url>",
	Short: "Add a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourcesAdd,
}

var sourcesRemoveCmd = &cobra.Command{
	Use:   "remove (task|stack) <url>",
	Short: "Remove a source",
	Args:  cobra.ExactArgs(2),
	RunE:  runSourcesRemove,
}

func init() {
	sourcesCmd.AddCommand(sourcesListCmd, sourcesAddCmd, sourcesRemoveCmd)
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	if !a.cfg.HasSources() {
		fmt.Println("No sources configured.")
		return nil
	}

	for _, url := range a.cfg.TaskSources {
		fmt.Printf("task\t%s\n", url)
	}
	for _, url := range a.cfg.StackSources {
		fmt.Printf("stack\t%s\n", url)
	}
	return nil
}

func runSourcesAdd(cmd *cobra.Command, args []string) error {
	kind, url := args[0], args[1]

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	var added bool
	switch kind {
	case "task":
		added = a.cfg.AddTaskSource(url)
	case "stack":
		added = a.cfg.AddStackSource(url)
	default:
		return fmt.Errorf("unknown source kind %q, want task or stack", kind)
	}

	if !added {
		fmt.Println("Source already configured.")
		return nil
	}
	if err := saveConfig(a); err != nil {
		return err
	}
	fmt.Printf("Added %s source %s\n", kind, url)
	return nil
}

func runSourcesRemove(cmd *cobra.Command, args []string) error {
	kind, url := args[0], args[1]

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	var removed bool
	switch kind {
	case "task":
		removed = a.cfg.RemoveTaskSource(url)
	case "stack":
		removed = a.cfg.RemoveStackSource(url)
	default:
		return fmt.Errorf("unknown source kind %q, want task or stack", kind)
	}

	if !removed {
		fmt.Println("Source was not configured.")
		return nil
	}
	if err := saveConfig(a); err != nil {
		return err
	}
	fmt.Printf("Removed %s source %s\n", kind, url)
	return nil
}

func saveConfig(a *app) error {
	if a.cfg.FilePath == "" {
		return fmt.Errorf("no writable configuration file; run provisor config init first")
	}
	return a.cfg.Save(a.cfg.FilePath)
}
