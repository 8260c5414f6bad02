package models

// RunStatus is the terminal state of a release run
type RunStatus int

const (
	// Converged means main and the release branch point at the same commit
	Converged RunStatus = iota
	// ConvergedWithWarnings means main contains the release content but a
	// best-effort step was blocked (force push denied, PR path unavailable)
	ConvergedWithWarnings
	// Failed means the run aborted before main contained the release content
	Failed
)

// Display returns a display string for the status line
func (s RunStatus) Display() string {
	switch s {
	case Converged:
		return "converged"
	case ConvergedWithWarnings:
		return "converged with warnings"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// ExitCode returns the process exit code for this status.
// Warnings still count as success: main has the release content.
func (s RunStatus) ExitCode() int {
	if s == Failed {
		return 1
	}
	return 0
}
