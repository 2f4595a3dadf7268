package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"provisor/internal/orchestrator"
	"provisor/internal/unit"
)

// newLifecycleCmd builds one of the four lifecycle commands. They all
// share the same shape: provisor <op> (task|stack) <name>...
func newLifecycleCmd(op, short string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s (task|stack) <name>...", op),
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLifecycle(orchestrator.Operation(op), args[0], args[1:])
		},
	}
}

func runLifecycle(op orchestrator.Operation, kind string, names []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	units, tasks, err := a.loadUnits(kind)
	if err != nil {
		return err
	}

	indices, err := resolveNames(units, names)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.EngineApply(a.engine, func() []*unit.Task { return tasks }), a.logger)
	result := orch.RunBatch(units, indices, op)

	fmt.Println(result.Summary())
	for _, ue := range result.Errors {
		fmt.Printf("  %s: %s\n", ue.Unit, ue.Message)
	}

	if result.Failed() {
		return fmt.Errorf("%d unit(s) failed", len(result.Errors))
	}
	return nil
}

// resolveNames maps names onto list indices, rejecting unknown names
// up front so a typo fails before anything runs.
func resolveNames(units []unit.Unit, names []string) ([]int, error) {
	byName := make(map[string]int, len(units))
	for i, u := range units {
		byName[u.UnitName()] = i
	}

	var indices []int
	var unknown []string
	for _, name := range names {
		i, ok := byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		indices = append(indices, i)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown unit(s): %s", strings.Join(unknown, ", "))
	}
	return indices, nil
}
