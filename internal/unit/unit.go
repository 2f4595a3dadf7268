package unit

// Unit is the closed set of installable things: Task and Stack. The
// orchestrator and the TUI operate on this surface only.
type Unit interface {
	UnitName() string
	CanInstall() bool
	CanUninstall() bool
	CanReset() bool
	CanRemediate() bool
	StatusMarker() string
	ListLine() string
	Details() string
}

var (
	_ Unit = (*Task)(nil)
	_ Unit = (*Stack)(nil)
)
