// Package sync orchestrates a release run: prepare the release branch,
// commit the version bump, tag, publish, merge trunk forward, land the
// branch back into main, and force the two to converge. Conflict policy is
// fixed and deterministic (local wins) so nothing is ever interactive.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wahlandcase/attuned.relsync/internal/config"
	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/models"
	"github.com/wahlandcase/attuned.relsync/internal/retry"
	"github.com/wahlandcase/attuned.relsync/internal/rewrite"
	"github.com/wahlandcase/attuned.relsync/internal/transport"

	"github.com/rs/zerolog"
)

// ErrPublishExhausted means every publish attempt was rejected
var ErrPublishExhausted = errors.New("publish retries exhausted")

// Run holds the explicit context threaded through every step of one
// release run. Built once in the command layer; no ambient state.
type Run struct {
	Cfg        *config.Config
	Repo       models.RepoInfo
	OldVersion models.Version
	NewVersion models.Version
	Transport  *transport.Resolver
	Capability models.PRCapability
	Log        zerolog.Logger
	DryRun     bool

	// Notify receives progress events for the UI; nil is fine
	Notify func(StepUpdate)

	branch   string
	warnings []string
}

// Branch returns the release branch name for this run
func (r *Run) Branch() string {
	if r.branch == "" {
		r.branch = r.NewVersion.BranchName(r.Cfg.Branches.ReleasePrefix)
	}
	return r.branch
}

// Warnings returns what was degraded on a converged-with-warnings run
func (r *Run) Warnings() []string {
	return r.warnings
}

func (r *Run) warn(msg string) {
	r.warnings = append(r.warnings, msg)
	r.Log.Warn().Msg(msg)
}

func (r *Run) emit(u StepUpdate) {
	if r.Notify != nil {
		r.Notify(u)
	}
}

func (r *Run) step(ctx context.Context, s Step, fn func(context.Context) error) error {
	r.emit(StepUpdate{Step: s, Started: true})
	r.Log.Info().Str("step", s.Display()).Msg("starting")
	err := fn(ctx)
	r.emit(StepUpdate{Step: s, Err: err})
	if err != nil {
		r.Log.Error().Str("step", s.Display()).Err(err).Msg("step failed")
	}
	return err
}

// Execute drives the full state machine and returns the terminal status.
// The returned error names the failed state on a Failed status.
func (r *Run) Execute(ctx context.Context) (models.RunStatus, error) {
	type stage struct {
		s  Step
		fn func(context.Context) error
	}

	// No state is reachable without a resolved transport
	if r.Transport != nil {
		if _, err := r.Transport.Resolve(ctx); err != nil {
			return models.Failed, fmt.Errorf("resolving remote transport: %w", err)
		}
	}

	stages := []stage{
		{StepPrepare, r.prepare},
		{StepRewrite, r.rewriteAndStage},
		{StepTag, r.tag},
		{StepPublish, func(ctx context.Context) error { return r.publish(ctx, r.Branch(), false) }},
		{StepMergeTrunk, r.mergeTrunkForward},
		{StepLand, r.land},
		{StepConverge, r.converge},
		{StepRetention, r.retention},
	}

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			return models.Failed, err
		}
		if err := r.step(ctx, st.s, st.fn); err != nil {
			return models.Failed, fmt.Errorf("%s: %w", st.s.Display(), err)
		}
	}

	if len(r.warnings) > 0 {
		return models.ConvergedWithWarnings, nil
	}
	return models.Converged, nil
}

// fetch wraps git fetch in the bounded retry used by every network call
func (r *Run) fetch(ctx context.Context, refs ...string) error {
	return retry.Do(ctx, r.Log, "fetch "+strings.Join(refs, " "),
		r.Cfg.Publish.Attempts, r.Cfg.RetryDelay(), func() error {
			return git.Fetch(r.Repo.Path, refs...)
		})
}

// prepare makes the release branch the checked-out branch, creating it
// from the latest main and publishing it when it does not exist yet
func (r *Run) prepare(ctx context.Context) error {
	branch := r.Branch()
	main := r.Repo.MainBranch

	if err := r.fetch(ctx, main); err != nil {
		return err
	}
	// Best effort: the branch may not exist remotely yet
	_ = git.Fetch(r.Repo.Path, branch)

	if r.DryRun {
		r.Log.Info().Str("branch", branch).Msg("dry-run: would prepare release branch")
		return nil
	}

	if git.HasBranch(r.Repo.Path, branch) {
		if err := git.Checkout(r.Repo.Path, branch, false, ""); err != nil {
			return err
		}
		// Fast-forward onto the remote tip when it exists; divergence is
		// handled later by publish
		if _, err := git.ResolveHead(r.Repo.Path, "refs/remotes/origin/"+branch); err == nil {
			if err := git.FastForward(r.Repo.Path, "origin/"+branch); err != nil {
				r.Log.Debug().Err(err).Msg("fast-forward skipped, branches diverged")
			}
		}
		return nil
	}

	if err := git.Checkout(r.Repo.Path, branch, true, "origin/"+main); err != nil {
		return err
	}
	// Publish immediately so later steps have a stable remote target
	return r.publish(ctx, branch, true)
}

// rewriteAndStage runs the version rewriter and commits any change
func (r *Run) rewriteAndStage(ctx context.Context) error {
	if r.DryRun {
		r.Log.Info().
			Str("old", r.OldVersion.String()).
			Str("new", r.NewVersion.String()).
			Msg("dry-run: would rewrite versions")
		return nil
	}

	rw := rewrite.New(r.Repo.Path, r.Cfg.Rewrite.ExcludePatterns, r.Log)
	report, err := rw.Apply(r.OldVersion, r.NewVersion)
	if err != nil {
		return err
	}

	r.Log.Info().
		Int("rewritten", len(report.RewrittenFiles)).
		Int("renamed", len(report.RenamedFiles)).
		Int("excluded", len(report.ExcludedFiles)).
		Int("duplicates_deleted", len(report.DeletedDuplicates)).
		Msg("rewrite complete")

	if !report.Changed() {
		r.Log.Info().Msg("nothing to commit, tree already at target version")
		return nil
	}

	if err := git.AddAll(r.Repo.Path); err != nil {
		return err
	}
	if !git.HasStagedChanges(r.Repo.Path) {
		return nil
	}
	msg := fmt.Sprintf("chore(release): bump version %s to %s", r.OldVersion, r.NewVersion)
	return git.Commit(r.Repo.Path, msg)
}

// tag creates the release tag; a pre-existing tag never fails the run
func (r *Run) tag(ctx context.Context) error {
	tagName := r.NewVersion.TagName()

	if git.TagExists(r.Repo.Path, tagName) {
		r.Log.Debug().Str("tag", tagName).Msg("tag already exists, skipping")
		return nil
	}
	if r.DryRun {
		r.Log.Info().Str("tag", tagName).Msg("dry-run: would create tag")
		return nil
	}

	if err := git.Tag(r.Repo.Path, tagName); err != nil {
		// Raced with another tagger between the check and the create
		var gerr *git.GitError
		if errors.As(err, &gerr) && strings.Contains(gerr.Output, "already exists") {
			r.Log.Debug().Str("tag", tagName).Msg("tag already exists, skipping")
			return nil
		}
		return err
	}
	return nil
}

// publish pushes a branch and its tags. On rejection it fetches and
// rebases onto the remote tip; if the rebase conflicts, it aborts and
// merges the remote tip instead with the local side winning, then retries
// with force-with-lease. Attempts are bounded; exhaustion is fatal.
func (r *Run) publish(ctx context.Context, branch string, setUpstream bool) error {
	if r.DryRun {
		r.Log.Info().Str("branch", branch).Msg("dry-run: would push branch and tags")
		return nil
	}

	force := false
	var lastErr error
	for attempt := 1; attempt <= r.Cfg.Publish.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = git.Push(r.Repo.Path, branch, git.PushOptions{
			ForceWithLease: force,
			SetUpstream:    setUpstream,
		})
		if lastErr == nil {
			return r.pushTags()
		}

		var gerr *git.GitError
		if !errors.As(lastErr, &gerr) || !gerr.Rejected() {
			return lastErr
		}

		r.Log.Warn().Int("attempt", attempt).Msg("push rejected, reconciling with remote tip")

		if err := r.fetch(ctx, branch); err != nil {
			return err
		}
		if err := git.Rebase(r.Repo.Path, "origin/"+branch); err != nil {
			r.Log.Warn().Err(err).Msg("rebase conflicted, falling back to prefer-local merge")
			_ = git.RebaseAbort(r.Repo.Path)
			if err := r.mergePreferLocal(ctx, "origin/"+branch,
				fmt.Sprintf("merge remote %s (local wins)", branch)); err != nil {
				return err
			}
		}
		// The remote may have moved past our rebase base; a lease-guarded
		// force push fails safely if it moved again
		force = true
	}

	return fmt.Errorf("%w for %s: %v", ErrPublishExhausted, branch, lastErr)
}

// pushTags publishes tags after the branch ref has landed. A remote that
// already holds a tag at another commit keeps it; that is a skip, never a
// publish failure.
func (r *Run) pushTags() error {
	err := git.PushTags(r.Repo.Path)
	if err == nil {
		return nil
	}
	var gerr *git.GitError
	if errors.As(err, &gerr) && gerr.Rejected() {
		r.Log.Warn().Msg("remote already holds diverging tags, skipping tag push")
		return nil
	}
	return err
}

// mergePreferLocal merges rev with a merge commit, resolving conflicts by
// taking the current branch's version of every conflicting path
func (r *Run) mergePreferLocal(ctx context.Context, rev, msg string) error {
	err := git.Merge(r.Repo.Path, rev, git.MergeOptions{
		NoFF:        true,
		PreferLocal: true,
		Message:     msg,
	})
	if err == nil {
		return nil
	}

	// -X ours resolves content conflicts but tree-level conflicts
	// (delete/modify) can still fail; fall back to the ours strategy that
	// records the merge while keeping the local tree untouched
	r.Log.Warn().Err(err).Msg("merge still conflicted, resolving with local tree")
	_ = git.MergeAbort(r.Repo.Path)
	return git.Merge(r.Repo.Path, rev, git.MergeOptions{
		Strategy: "ours",
		Message:  msg,
	})
}

// mergeTrunkForward merges the latest main into the release branch so the
// release branch carries both histories, then republishes
func (r *Run) mergeTrunkForward(ctx context.Context) error {
	main := r.Repo.MainBranch

	if err := r.fetch(ctx, main); err != nil {
		return err
	}
	if r.DryRun {
		r.Log.Info().Str("main", main).Msg("dry-run: would merge trunk into release branch")
		return nil
	}

	// Nothing to merge when main is already contained
	ahead, err := git.AheadCount(r.Repo.Path, "refs/heads/"+r.Branch(), "refs/remotes/origin/"+main)
	if err == nil && ahead == 0 {
		r.Log.Debug().Msg("main already contained in release branch")
		return nil
	}

	msg := fmt.Sprintf("merge %s into %s", main, r.Branch())
	if err := r.mergePreferLocal(ctx, "origin/"+main, msg); err != nil {
		return err
	}
	return r.publish(ctx, r.Branch(), false)
}

// converge re-fetches main and forces the release branch to match it
// exactly. Branch protection can deny the force push; that degrades the
// run to converged-with-warnings instead of failing it.
func (r *Run) converge(ctx context.Context) error {
	main := r.Repo.MainBranch
	branch := r.Branch()

	if err := r.fetch(ctx, main); err != nil {
		return err
	}
	if r.DryRun {
		r.Log.Info().Msg("dry-run: would converge release branch onto main")
		return nil
	}

	mainHead, err := git.ResolveHead(r.Repo.Path, "refs/remotes/origin/"+main)
	if err != nil {
		return err
	}
	branchHead, err := git.ResolveHead(r.Repo.Path, "refs/heads/"+branch)
	if err != nil {
		return err
	}
	if mainHead == branchHead {
		r.Log.Info().Str("head", mainHead).Msg("branches already converged")
		return nil
	}

	if err := git.Checkout(r.Repo.Path, branch, false, ""); err != nil {
		return err
	}
	if err := git.ResetHard(r.Repo.Path, mainHead); err != nil {
		return err
	}

	err = git.Push(r.Repo.Path, branch, git.PushOptions{ForceWithLease: true})
	if err != nil {
		var gerr *git.GitError
		if errors.As(err, &gerr) && (gerr.Protected() || gerr.Rejected()) {
			// Convergence is best-effort under branch protection; main
			// already contains the release content
			r.warn(fmt.Sprintf("force push of %s blocked by branch protection", branch))
			return nil
		}
		return err
	}

	r.Log.Info().Str("head", mainHead).Msg("release branch converged onto main")
	return nil
}

// retention prunes release branches beyond the keep-count; failures
// there are best-effort and never fail the run
func (r *Run) retention(ctx context.Context) error {
	result := Prune(r.Repo, r.Cfg.Branches.ReleasePrefix, r.Cfg.Branches.Keep, r.DryRun, r.Log)
	for branch, msg := range result.Failed {
		r.Log.Warn().Str("branch", branch).Str("error", msg).Msg("branch deletion failed, continuing")
	}
	return nil
}
