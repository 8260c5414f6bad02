package git

import (
	"context"
	"os/exec"
	"strings"
)

// run executes a git command in repoPath using the git CLI (to inherit the
// SSH agent and credential helpers) and converts failures to GitError
func run(repoPath string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	outputStr := strings.TrimSpace(string(output))
	if err != nil {
		if outputStr == "" {
			outputStr = err.Error()
		}
		return outputStr, &GitError{Command: args[0], Output: outputStr}
	}
	return outputStr, nil
}

// runCtx is run with a context for calls that need their own timeout
func runCtx(ctx context.Context, repoPath string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	outputStr := strings.TrimSpace(string(output))
	if err != nil {
		if ctx.Err() != nil {
			outputStr = "timed out: " + outputStr
		}
		if outputStr == "" {
			outputStr = err.Error()
		}
		return outputStr, &GitError{Command: args[0], Output: outputStr}
	}
	return outputStr, nil
}

// Fetch fetches the given refs from origin
func Fetch(repoPath string, refs ...string) error {
	args := append([]string{"fetch", "origin"}, refs...)
	output, err := run(repoPath, args...)
	if err != nil && strings.Contains(output, "couldn't find remote ref") {
		return &BranchNotFoundError{Branches: refs}
	}
	return err
}

// PushOptions controls how a push is performed
type PushOptions struct {
	// ForceWithLease force-pushes but fails safely if the remote moved
	// since the last fetch
	ForceWithLease bool
	// SetUpstream records origin as the branch's upstream
	SetUpstream bool
}

// Push publishes a branch to origin. Tags are pushed separately via
// PushTags so a rejected tag cannot fail the branch ref.
func Push(repoPath, branch string, opts PushOptions) error {
	args := []string{"push"}
	if opts.ForceWithLease {
		args = append(args, "--force-with-lease")
	}
	if opts.SetUpstream {
		args = append(args, "--set-upstream")
	}
	args = append(args, "origin", branch)
	_, err := run(repoPath, args...)
	return err
}

// PushTags publishes local tags to origin. A tag the remote already holds
// at a different commit comes back as a rejection.
func PushTags(repoPath string) error {
	_, err := run(repoPath, "push", "origin", "--tags")
	return err
}

// LsRemote probes remote reachability with a lightweight listing call.
// The context bounds how long an unreachable remote can stall the run.
func LsRemote(ctx context.Context, repoPath string) error {
	_, err := runCtx(ctx, repoPath, "ls-remote", "--heads", "origin")
	return err
}

// RemoteURL returns the configured origin URL
func RemoteURL(repoPath string) (string, error) {
	return run(repoPath, "remote", "get-url", "origin")
}

// SetRemoteURL rewrites the origin URL (transport switching)
func SetRemoteURL(repoPath, url string) error {
	_, err := run(repoPath, "remote", "set-url", "origin", url)
	return err
}

// CurrentBranch returns the checked-out branch name
func CurrentBranch(repoPath string) (string, error) {
	return run(repoPath, "rev-parse", "--abbrev-ref", "HEAD")
}

// Checkout switches the working tree to a branch, creating it from
// startPoint when create is set
func Checkout(repoPath, branch string, create bool, startPoint string) error {
	args := []string{"checkout"}
	if create {
		args = append(args, "-b")
	}
	args = append(args, branch)
	if create && startPoint != "" {
		args = append(args, startPoint)
	}
	_, err := run(repoPath, args...)
	return err
}

// AddAll stages every change in the working tree
func AddAll(repoPath string) error {
	_, err := run(repoPath, "add", "-A")
	return err
}

// Commit records staged changes with the given message
func Commit(repoPath, message string) error {
	_, err := run(repoPath, "commit", "-m", message)
	return err
}

// HasStagedChanges reports whether a commit would be non-empty
func HasStagedChanges(repoPath string) bool {
	_, err := run(repoPath, "diff", "--cached", "--quiet")
	return err != nil
}

// Tag creates a lightweight tag at HEAD
func Tag(repoPath, tagName string) error {
	_, err := run(repoPath, "tag", tagName)
	return err
}

// LatestTag returns the most recent tag reachable from HEAD
func LatestTag(repoPath string) (string, error) {
	return run(repoPath, "describe", "--tags", "--abbrev=0")
}

// MergeOptions controls how a merge is performed
type MergeOptions struct {
	// NoFF forces a merge commit even when fast-forward is possible,
	// preserving both histories
	NoFF bool
	// PreferLocal resolves every conflicting path by taking the current
	// branch's version (the deterministic "local wins" policy)
	PreferLocal bool
	// Strategy selects a whole merge strategy (e.g. "ours") instead of
	// the default recursive one
	Strategy string
	// Message overrides the default merge commit message
	Message string
}

// Merge merges rev into the current branch
func Merge(repoPath, rev string, opts MergeOptions) error {
	args := []string{"merge"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.Strategy != "" {
		args = append(args, "-s", opts.Strategy)
	} else if opts.PreferLocal {
		args = append(args, "-X", "ours")
	}
	if opts.Message != "" {
		args = append(args, "-m", opts.Message)
	}
	args = append(args, rev)
	_, err := run(repoPath, args...)
	return err
}

// MergeAbort aborts an in-progress merge
func MergeAbort(repoPath string) error {
	_, err := run(repoPath, "merge", "--abort")
	return err
}

// Rebase replays the current branch onto rev
func Rebase(repoPath, rev string) error {
	_, err := run(repoPath, "rebase", rev)
	return err
}

// RebaseAbort aborts an in-progress rebase
func RebaseAbort(repoPath string) error {
	_, err := run(repoPath, "rebase", "--abort")
	return err
}

// FastForward advances the current branch to its upstream when possible
func FastForward(repoPath, rev string) error {
	_, err := run(repoPath, "merge", "--ff-only", rev)
	return err
}

// ResetHard moves the current branch and working tree to rev exactly
func ResetHard(repoPath, rev string) error {
	_, err := run(repoPath, "reset", "--hard", rev)
	return err
}

// LsFiles lists version-controlled files (the rewriter's input set)
func LsFiles(repoPath string) ([]string, error) {
	output, err := run(repoPath, "ls-files")
	if err != nil {
		return nil, err
	}
	if output == "" {
		return nil, nil
	}
	return strings.Split(output, "\n"), nil
}

// Move renames a tracked file, keeping the index in sync
func Move(repoPath, from, to string) error {
	_, err := run(repoPath, "mv", from, to)
	return err
}

// Remove deletes a tracked file, keeping the index in sync
func Remove(repoPath, path string) error {
	_, err := run(repoPath, "rm", "-f", path)
	return err
}

// ListRemoteBranches lists origin branches matching prefix, newest first
// by creation time
func ListRemoteBranches(repoPath, prefix string) ([]string, error) {
	output, err := run(repoPath,
		"for-each-ref",
		"--sort=-creatordate",
		"--format=%(refname:strip=3)",
		"refs/remotes/origin/"+prefix+"*",
	)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return nil, nil
	}
	return strings.Split(output, "\n"), nil
}

// DeleteRemoteBranch removes a branch from origin
func DeleteRemoteBranch(repoPath, branch string) error {
	_, err := run(repoPath, "push", "origin", "--delete", branch)
	return err
}
