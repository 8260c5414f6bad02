package git

import "strings"

// GitError provides better context for git command failures
type GitError struct {
	Command string
	Output  string
}

func (e *GitError) Error() string {
	return "git " + e.Command + ": " + e.Output
}

// Rejected reports whether the failure is a push rejected by the remote
// (remote moved since our last fetch), the recoverable case
func (e *GitError) Rejected() bool {
	out := strings.ToLower(e.Output)
	return strings.Contains(out, "[rejected]") ||
		strings.Contains(out, "failed to push some refs") ||
		strings.Contains(out, "stale info")
}

// Protected reports whether the failure is a branch-protection denial,
// treated as a non-fatal warning during convergence
func (e *GitError) Protected() bool {
	out := strings.ToLower(e.Output)
	return strings.Contains(out, "protected branch") ||
		strings.Contains(out, "cannot force-push") ||
		strings.Contains(out, "denying non-fast-forward")
}

// BranchNotFoundError indicates a branch was not found on the remote
type BranchNotFoundError struct {
	Branches []string
}

func (e *BranchNotFoundError) Error() string {
	return "branch not found on remote: " + strings.Join(e.Branches, ", ")
}
