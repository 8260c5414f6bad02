package models

// RepoInfo contains information about the repository a run mutates
type RepoInfo struct {
	// Path to the working copy root
	Path string
	// Slug is the remote identity (e.g. "wahlandcase/attuned-web")
	Slug string
	// MainBranch name ("main" or "master")
	MainBranch string
}

// NewRepoInfo creates a new RepoInfo
func NewRepoInfo(path, slug, mainBranch string) RepoInfo {
	return RepoInfo{
		Path:       path,
		Slug:       slug,
		MainBranch: mainBranch,
	}
}

// SSHRemoteURL returns the key-based remote URL for this repo
func (r RepoInfo) SSHRemoteURL() string {
	return "git@github.com:" + r.Slug + ".git"
}

// TokenRemoteURL returns the token-authenticated HTTPS remote URL.
// The token ends up in git config for the duration of the run only.
func (r RepoInfo) TokenRemoteURL(token string) string {
	return "https://x-access-token:" + token + "@github.com/" + r.Slug + ".git"
}
