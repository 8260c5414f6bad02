package sync

// Step identifies one state of the release run's state machine. States
// execute strictly in order; each is gated on the previous one succeeding.
type Step int

const (
	// StepPrepare creates or fast-forwards the release branch
	StepPrepare Step = iota
	// StepRewrite applies the version bump and commits it
	StepRewrite
	// StepTag creates the release tag
	StepTag
	// StepPublish pushes the branch and tags, with rebase/merge fallback
	StepPublish
	// StepMergeTrunk merges the latest main into the release branch
	StepMergeTrunk
	// StepLand lands the release branch back into main
	StepLand
	// StepConverge forces the release branch to match main exactly
	StepConverge
	// StepRetention prunes release branches beyond the keep-count
	StepRetention
)

// Steps lists every step in execution order
var Steps = []Step{
	StepPrepare, StepRewrite, StepTag, StepPublish,
	StepMergeTrunk, StepLand, StepConverge, StepRetention,
}

// Display returns a display string for this step
func (s Step) Display() string {
	switch s {
	case StepPrepare:
		return "prepare release branch"
	case StepRewrite:
		return "rewrite versions"
	case StepTag:
		return "tag release"
	case StepPublish:
		return "publish branch"
	case StepMergeTrunk:
		return "merge trunk forward"
	case StepLand:
		return "land into main"
	case StepConverge:
		return "converge branches"
	case StepRetention:
		return "prune old branches"
	default:
		return ""
	}
}

// StepUpdate is a progress event emitted as the run advances, consumed by
// the terminal UI
type StepUpdate struct {
	// Step that changed
	Step Step
	// Started is true when the step begins, false when it ends
	Started bool
	// Err is set when the step failed
	Err error
	// Note carries extra context (branch names, warnings)
	Note string
}
