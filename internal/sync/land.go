package sync

import (
	"context"
	"fmt"

	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/github"
	"github.com/wahlandcase/attuned.relsync/internal/models"
)

// land gets every commit of the release branch into main. Preference
// order: pull request through the gh CLI, pull request through the raw
// REST API, offline merge of a local main checkout pushed directly.
func (r *Run) land(ctx context.Context) error {
	main := r.Repo.MainBranch
	branch := r.Branch()

	if r.DryRun {
		r.Log.Info().Msg("dry-run: would land release branch into main")
		return nil
	}

	ahead, err := git.AheadCount(r.Repo.Path, "refs/remotes/origin/"+main, "refs/heads/"+branch)
	if err != nil {
		return err
	}
	if ahead == 0 {
		r.Log.Info().Msg("release branch already landed in main")
		return nil
	}

	title := fmt.Sprintf("Release %s", r.NewVersion.TagName())
	body := fmt.Sprintf("Automated release of version %s.", r.NewVersion)

	switch r.Capability {
	case models.PRCli:
		if err := r.landViaCli(ctx, branch, main, title, body); err != nil {
			r.warn(fmt.Sprintf("pull request path failed (%v), falling back to offline merge", err))
			return r.offlineMerge(ctx)
		}
		return nil

	case models.PRAPIOnly:
		if err := r.landViaAPI(ctx, branch, main, title, body); err != nil {
			r.warn(fmt.Sprintf("rest api path failed (%v), falling back to offline merge", err))
			return r.offlineMerge(ctx)
		}
		return nil

	default:
		r.warn("no authenticated pull request path available, using offline merge")
		return r.offlineMerge(ctx)
	}
}

// landViaCli opens (or reuses) a PR with the gh CLI and merges it
func (r *Run) landViaCli(ctx context.Context, branch, main, title, body string) error {
	pr, err := github.GetExistingPR(r.Repo.Path, branch, main)
	if err != nil {
		return err
	}
	if pr == nil {
		pr, err = github.CreatePR(r.Repo.Path, branch, main, title, body)
		if err != nil {
			return err
		}
		r.Log.Info().Uint64("pr", pr.Number).Str("url", pr.URL).Msg("pull request created")
	} else {
		r.Log.Info().Uint64("pr", pr.Number).Str("url", pr.URL).Msg("reusing open pull request")
	}

	if err := github.MergePR(r.Repo.Path, pr.Number); err != nil {
		return err
	}
	// Auto-merge can queue the PR behind required checks instead of
	// merging it; later states need the content on main now
	if merged, err := github.GetPR(r.Repo.Path, pr.Number); err == nil && !merged.IsMerged() {
		return fmt.Errorf("pull request %d queued but not merged", pr.Number)
	}
	r.Log.Info().Uint64("pr", pr.Number).Msg("pull request merged")
	return nil
}

// landViaAPI is landViaCli over raw REST for hosts without the gh CLI
func (r *Run) landViaAPI(ctx context.Context, branch, main, title, body string) error {
	client := github.NewRestClient(r.Repo.Slug, r.Cfg.Token)

	pr, err := client.GetExistingPR(branch, main)
	if err != nil {
		return err
	}
	if pr == nil {
		pr, err = client.CreatePR(branch, main, title, body)
		if err != nil {
			return err
		}
		r.Log.Info().Uint64("pr", pr.Number).Str("url", pr.URL).Msg("pull request created via api")
	}

	if err := client.MergePR(pr.Number); err != nil {
		return err
	}
	if merged, err := client.GetPR(pr.Number); err == nil && !merged.IsMerged() {
		return fmt.Errorf("pull request %d queued but not merged", pr.Number)
	}
	r.Log.Info().Uint64("pr", pr.Number).Msg("pull request merged via api")
	return nil
}

// offlineMerge lands the release branch by merging it into a local main
// checkout and pushing main directly
func (r *Run) offlineMerge(ctx context.Context) error {
	main := r.Repo.MainBranch
	branch := r.Branch()

	if err := git.Checkout(r.Repo.Path, main, false, ""); err != nil {
		return err
	}
	// Start from the remote tip; local main may be behind
	if err := git.ResetHard(r.Repo.Path, "origin/"+main); err != nil {
		return err
	}

	msg := fmt.Sprintf("merge %s into %s", branch, main)
	if err := git.Merge(r.Repo.Path, branch, git.MergeOptions{NoFF: true, Message: msg}); err != nil {
		_ = git.MergeAbort(r.Repo.Path)
		_ = git.Checkout(r.Repo.Path, branch, false, "")
		return err
	}

	if err := r.publish(ctx, main, false); err != nil {
		_ = git.Checkout(r.Repo.Path, branch, false, "")
		return err
	}

	r.Log.Info().Str("main", main).Msg("release branch landed via offline merge")
	return git.Checkout(r.Repo.Path, branch, false, "")
}
