package git

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/wahlandcase/attuned.relsync/internal/models"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// IsGitRepo checks if the path is a git repository
func IsGitRepo(path string) bool {
	_, err := gogit.PlainOpen(path)
	return err == nil
}

// GetRepoInfo opens a repository and derives its remote identity and trunk
func GetRepoInfo(path string) (*models.RepoInfo, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, err
	}

	mainBranch, err := DetectMainBranch(repo)
	if err != nil {
		return nil, err
	}

	slug := remoteSlug(repo)

	info := models.NewRepoInfo(path, slug, mainBranch)
	return &info, nil
}

// FindRepoRoot walks up from the current directory to the git root
func FindRepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	path := cwd
	for {
		if IsGitRepo(path) {
			return path, nil
		}
		parent := filepath.Dir(path)
		if parent == path {
			return "", os.ErrNotExist
		}
		path = parent
	}
}

// DetectMainBranch determines if the repo uses "main" or "master"
func DetectMainBranch(repo *gogit.Repository) (string, error) {
	refs, err := repo.References()
	if err != nil {
		return "main", nil
	}

	hasRemoteMain := false
	hasRemoteMaster := false
	hasLocalMain := false
	hasLocalMaster := false

	refs.ForEach(func(ref *plumbing.Reference) error {
		switch ref.Name().String() {
		case "refs/remotes/origin/main":
			hasRemoteMain = true
		case "refs/remotes/origin/master":
			hasRemoteMaster = true
		case "refs/heads/main":
			hasLocalMain = true
		case "refs/heads/master":
			hasLocalMaster = true
		}
		return nil
	})

	// Prefer remote refs
	if hasRemoteMain {
		return "main", nil
	}
	if hasRemoteMaster {
		return "master", nil
	}

	if hasLocalMain {
		return "main", nil
	}
	if hasLocalMaster {
		return "master", nil
	}

	return "main", nil
}

// remoteSlug extracts "owner/repo" from the origin URL, for either the
// ssh or https form. Empty when no origin is configured.
func remoteSlug(repo *gogit.Repository) string {
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return ""
	}

	url := remote.Config().URLs[0]
	url = strings.TrimSuffix(url, ".git")

	if idx := strings.Index(url, "github.com:"); idx >= 0 {
		return url[idx+len("github.com:"):]
	}
	if idx := strings.Index(url, "github.com/"); idx >= 0 {
		return url[idx+len("github.com/"):]
	}
	return ""
}

// ResolveHead returns the commit hash a revision points at
func ResolveHead(repoPath, revision string) (string, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return "", err
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", &BranchNotFoundError{Branches: []string{revision}}
	}
	return hash.String(), nil
}

// TagExists checks whether a tag name is already present
func TagExists(repoPath, tagName string) bool {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false
	}
	_, err = repo.Reference(plumbing.NewTagReferenceName(tagName), true)
	return err == nil
}

// HasBranch checks if a branch exists locally or on the remote
func HasBranch(repoPath, branchName string) bool {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return false
	}

	_, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", branchName), true)
	if err == nil {
		return true
	}

	_, err = repo.Reference(plumbing.NewBranchReferenceName(branchName), true)
	return err == nil
}

// AheadCount counts commits reachable from headRev but not from baseRev.
// Zero means head is already contained in base.
func AheadCount(repoPath, baseRev, headRev string) (int, error) {
	repo, err := gogit.PlainOpen(repoPath)
	if err != nil {
		return 0, err
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(baseRev))
	if err != nil {
		return 0, &BranchNotFoundError{Branches: []string{baseRev}}
	}
	headHash, err := repo.ResolveRevision(plumbing.Revision(headRev))
	if err != nil {
		return 0, &BranchNotFoundError{Branches: []string{headRev}}
	}

	// Build set of commits reachable from base
	baseCommits := make(map[plumbing.Hash]bool)
	baseIter, err := repo.Log(&gogit.LogOptions{From: *baseHash})
	if err != nil {
		return 0, err
	}
	baseIter.ForEach(func(c *object.Commit) error {
		baseCommits[c.Hash] = true
		return nil
	})

	headIter, err := repo.Log(&gogit.LogOptions{From: *headHash})
	if err != nil {
		return 0, err
	}

	count := 0
	seen := make(map[plumbing.Hash]bool)
	err = headIter.ForEach(func(c *object.Commit) error {
		// Don't stop iteration on the first contained commit - merge
		// commits have multiple parents and every path must be walked.
		if seen[c.Hash] || baseCommits[c.Hash] {
			return nil
		}
		seen[c.Hash] = true
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
