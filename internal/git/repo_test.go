package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func initRepo(t *testing.T, defaultBranch string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-b", defaultBranch)
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	if err := os.WriteFile(filepath.Join(dir, "VERSION"), []byte("1.0.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", "initial")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v: %s", args, err, output)
	}
}

func TestIsGitRepo(t *testing.T) {
	dir := initRepo(t, "main")
	if !IsGitRepo(dir) {
		t.Fatal("expected initialized repo to be detected")
	}
	if IsGitRepo(t.TempDir()) {
		t.Fatal("expected plain directory to not be a repo")
	}
}

func TestDetectMainBranch(t *testing.T) {
	tests := []struct {
		name   string
		branch string
		want   string
	}{
		{name: "main repo", branch: "main", want: "main"},
		{name: "master repo", branch: "master", want: "master"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := initRepo(t, tc.branch)
			info, err := GetRepoInfo(dir)
			if err != nil {
				t.Fatalf("GetRepoInfo: %v", err)
			}
			if info.MainBranch != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, info.MainBranch)
			}
		})
	}
}

func TestTagExists(t *testing.T) {
	dir := initRepo(t, "main")

	if TagExists(dir, "v1.0.0") {
		t.Fatal("tag should not exist yet")
	}
	if err := Tag(dir, "v1.0.0"); err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	if !TagExists(dir, "v1.0.0") {
		t.Fatal("tag should exist now")
	}

	// Creating it again is the error tagging must treat as success
	if err := Tag(dir, "v1.0.0"); err == nil {
		t.Fatal("expected duplicate tag to error at this layer")
	}
}

func TestAheadCount(t *testing.T) {
	dir := initRepo(t, "main")

	runGit(t, dir, "checkout", "-b", "release/v1.0.1")
	for _, name := range []string{"a.txt", "b.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644); err != nil {
			t.Fatal(err)
		}
		runGit(t, dir, "add", "-A")
		runGit(t, dir, "commit", "-m", "commit "+name)
	}

	ahead, err := AheadCount(dir, "refs/heads/main", "refs/heads/release/v1.0.1")
	if err != nil {
		t.Fatalf("AheadCount: %v", err)
	}
	if ahead != 2 {
		t.Fatalf("expected 2 commits ahead, got %d", ahead)
	}

	behind, err := AheadCount(dir, "refs/heads/release/v1.0.1", "refs/heads/main")
	if err != nil {
		t.Fatalf("AheadCount: %v", err)
	}
	if behind != 0 {
		t.Fatalf("expected main 0 ahead of release, got %d", behind)
	}
}

func TestAheadCountUnknownBranch(t *testing.T) {
	dir := initRepo(t, "main")

	_, err := AheadCount(dir, "refs/heads/main", "refs/heads/missing")
	if err == nil {
		t.Fatal("expected error for missing branch")
	}
	if _, ok := err.(*BranchNotFoundError); !ok {
		t.Fatalf("expected BranchNotFoundError, got %T", err)
	}
}

func TestGitErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		rejected  bool
		protected bool
	}{
		{
			name:     "rejected push",
			output:   "! [rejected] main -> main (fetch first)\nerror: failed to push some refs",
			rejected: true,
		},
		{
			name:     "stale lease",
			output:   "! [rejected] release/v1.2.1 -> release/v1.2.1 (stale info)",
			rejected: true,
		},
		{
			name:      "protected branch",
			output:    "remote: error: GH006: Protected branch update failed",
			protected: true,
		},
		{
			name:      "deny non fast forward",
			output:    "remote: error: denying non-fast-forward refs/heads/release/v1.2.1",
			protected: true,
		},
		{name: "unrelated failure", output: "fatal: repository not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := &GitError{Command: "push", Output: tc.output}
			if got := err.Rejected(); got != tc.rejected {
				t.Errorf("Rejected() = %v, want %v", got, tc.rejected)
			}
			if got := err.Protected(); got != tc.protected {
				t.Errorf("Protected() = %v, want %v", got, tc.protected)
			}
		})
	}
}
