// Package orchestrator applies one lifecycle operation to a selection
// of units, skipping those the operation does not apply to and
// collecting per-unit failures without stopping the batch.
package orchestrator

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"provisor/internal/unit"
)

// Operation names a unit lifecycle operation.
type Operation string

const (
	OpInstall   Operation = "install"
	OpUninstall Operation = "uninstall"
	OpReset     Operation = "reset"
	OpRemediate Operation = "remediate"
)

// Applicable reports whether op makes sense for u in its current
// state.
func (op Operation) Applicable(u unit.Unit) bool {
	switch op {
	case OpInstall:
		return u.CanInstall()
	case OpUninstall:
		return u.CanUninstall()
	case OpReset:
		return u.CanReset()
	case OpRemediate:
		return u.CanRemediate()
	default:
		return false
	}
}

// UnitError records one failed unit within a batch.
type UnitError struct {
	Unit    string
	Message string
}

// BatchResult summarizes a batch run. SuccessCount + Skipped +
// len(Errors) always equals the number of selected units.
type BatchResult struct {
	Operation    Operation
	SuccessCount int
	Skipped      int
	Errors       []UnitError
}

// Failed reports whether any unit in the batch failed.
func (r *BatchResult) Failed() bool { return len(r.Errors) > 0 }

// Summary formats the result as a one-line report.
func (r *BatchResult) Summary() string {
	total := r.SuccessCount + r.Skipped + len(r.Errors)
	return fmt.Sprintf("%s: %d/%d succeeded, %d skipped, %d failed",
		r.Operation, r.SuccessCount, total, r.Skipped, len(r.Errors))
}

// Apply runs op against a single unit.
type Apply func(op Operation, u unit.Unit) error

// Orchestrator walks selections in index order.
type Orchestrator struct {
	apply  Apply
	logger *zap.Logger
}

// New creates an orchestrator delegating per-unit work to apply.
func New(apply Apply, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{apply: apply, logger: logger}
}

// RunBatch applies op to the units at the selected indices, in
// ascending index order. Units the operation does not apply to are
// skipped silently; a failing unit never stops the rest. Out-of-range
// indices are ignored.
func (o *Orchestrator) RunBatch(units []unit.Unit, selected []int, op Operation) *BatchResult {
	result := &BatchResult{Operation: op}

	indices := append([]int(nil), selected...)
	sort.Ints(indices)

	for _, i := range indices {
		if i < 0 || i >= len(units) {
			continue
		}
		u := units[i]

		if !op.Applicable(u) {
			o.logger.Info("operation not applicable, skipping",
				zap.String("unit", u.UnitName()), zap.String("operation", string(op)))
			result.Skipped++
			continue
		}

		if err := o.apply(op, u); err != nil {
			o.logger.Error("unit failed",
				zap.String("unit", u.UnitName()),
				zap.String("operation", string(op)),
				zap.Error(err))
			result.Errors = append(result.Errors, UnitError{Unit: u.UnitName(), Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	return result
}
