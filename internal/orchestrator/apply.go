package orchestrator

import (
	"fmt"

	"provisor/internal/unit"
)

// EngineApply adapts a lifecycle engine into an Apply. tasks supplies
// the current task collection so stack operations and dependency
// checks see fresh state.
func EngineApply(engine *unit.Engine, tasks func() []*unit.Task) Apply {
	return func(op Operation, u unit.Unit) error {
		switch v := u.(type) {
		case *unit.Task:
			switch op {
			case OpInstall:
				return engine.InstallTask(v, tasks())
			case OpUninstall:
				return engine.UninstallTask(v)
			case OpReset:
				return engine.ResetTask(v)
			case OpRemediate:
				return engine.RemediateTask(v)
			}
		case *unit.Stack:
			switch op {
			case OpInstall:
				return engine.InstallStack(v, tasks())
			case OpUninstall:
				return engine.UninstallStack(v, tasks())
			case OpReset:
				return engine.ResetStack(v, tasks())
			case OpRemediate:
				return engine.RemediateStack(v, tasks())
			}
		}
		return fmt.Errorf("no handler for operation %s on %T", op, u)
	}
}
