package github

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wahlandcase/attuned.relsync/internal/models"
)

// CheckAuth verifies gh CLI is authenticated
func CheckAuth() error {
	cmd := exec.Command("gh", "auth", "status")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("not authenticated with GitHub CLI. Run 'gh auth login' first")
	}
	return nil
}

// DetectCapability determines once per run which pull-request path exists:
// the gh CLI when installed and authenticated, raw REST when only a token
// is available, otherwise none (landing falls back to an offline merge).
func DetectCapability(token string) models.PRCapability {
	if _, err := exec.LookPath("gh"); err == nil {
		if err := CheckAuth(); err == nil {
			return models.PRCli
		}
	}
	if token != "" {
		return models.PRAPIOnly
	}
	return models.PRUnavailable
}

// GetExistingPR gets an existing open PR for the given head -> base branch
func GetExistingPR(repoPath, headBranch, baseBranch string) (*models.GhPr, error) {
	cmd := exec.Command("gh", "pr", "list",
		"--head", headBranch,
		"--base", baseBranch,
		"--state", "open",
		"--json", "number,url,title,state",
	)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("gh pr list failed: %s", string(output))
	}

	var prs []models.GhPr
	if err := json.Unmarshal(output, &prs); err != nil {
		return nil, fmt.Errorf("failed to parse gh pr list output: %w", err)
	}

	if len(prs) == 0 {
		return nil, nil
	}

	return &prs[0], nil
}

// CreatePR creates a new pull request
func CreatePR(repoPath, headBranch, baseBranch, title, body string) (*models.GhPr, error) {
	cmd := exec.Command("gh", "pr", "create",
		"--head", headBranch,
		"--base", baseBranch,
		"--title", title,
		"--body", body,
	)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("gh pr create failed: %s", string(output))
	}

	// gh pr create outputs the URL
	url := strings.TrimSpace(string(output))

	// Extract PR number from URL (e.g., https://github.com/org/repo/pull/123)
	parts := strings.Split(url, "/")
	var number uint64
	if len(parts) > 0 {
		number, _ = strconv.ParseUint(parts[len(parts)-1], 10, 64)
	}

	return &models.GhPr{
		Number: number,
		URL:    url,
		Title:  title,
		State:  "open",
	}, nil
}

// GetPR gets PR details by number
func GetPR(repoPath string, prNumber uint64) (*models.GhPr, error) {
	cmd := exec.Command("gh", "pr", "view",
		strconv.FormatUint(prNumber, 10),
		"--json", "number,url,title,state",
	)
	cmd.Dir = repoPath

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gh pr view failed: %w", err)
	}

	var pr models.GhPr
	if err := json.Unmarshal(output, &pr); err != nil {
		return nil, fmt.Errorf("failed to parse gh pr view output: %w", err)
	}

	return &pr, nil
}

// MergePR merges a PR using a regular merge commit (not squash). Auto-merge
// is tried first; if repository policy rejects it, a direct merge follows.
func MergePR(repoPath string, prNumber uint64) error {
	if err := mergeWith(repoPath, prNumber, true); err == nil {
		return nil
	}
	return mergeWith(repoPath, prNumber, false)
}

func mergeWith(repoPath string, prNumber uint64, auto bool) error {
	args := []string{"pr", "merge",
		strconv.FormatUint(prNumber, 10),
		"--merge",
		"--delete-branch=false",
	}
	if auto {
		args = append(args, "--auto")
	}

	cmd := exec.Command("gh", args...)
	cmd.Dir = repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gh pr merge failed: %s", string(output))
	}

	return nil
}
