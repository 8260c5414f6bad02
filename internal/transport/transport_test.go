package transport

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/wahlandcase/attuned.relsync/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, output)
}

// repoWithRemote builds a working copy whose origin is a local bare repo,
// so the ls-remote probe exercises a real remote without a network
func repoWithRemote(t *testing.T) models.RepoInfo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	base := t.TempDir()
	remote := filepath.Join(base, "origin.git")
	work := filepath.Join(base, "work")
	require.NoError(t, os.MkdirAll(remote, 0755))
	require.NoError(t, os.MkdirAll(work, 0755))

	runGit(t, remote, "init", "--bare")
	runGit(t, work, "init")
	runGit(t, work, "config", "user.email", "test@example.com")
	runGit(t, work, "config", "user.name", "Test User")
	require.NoError(t, os.WriteFile(filepath.Join(work, "VERSION"), []byte("1.0.0\n"), 0644))
	runGit(t, work, "add", "-A")
	runGit(t, work, "commit", "-m", "initial")
	runGit(t, work, "remote", "add", "origin", remote)
	runGit(t, work, "push", "origin", "HEAD")

	// Empty slug keeps the resolver probing the file-path origin as-is
	return models.NewRepoInfo(work, "", "main")
}

func TestResolveReachableRemote(t *testing.T) {
	repo := repoWithRemote(t)
	r := NewResolver(repo, "", 5*time.Second, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mode, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, models.TransportSSH, mode)

	// Memoized on second call
	again, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.Equal(t, mode, again)
}

func TestResolveUnreachableWithoutToken(t *testing.T) {
	repo := repoWithRemote(t)

	// Point origin somewhere that does not exist
	runGit(t, repo.Path, "remote", "set-url", "origin", filepath.Join(t.TempDir(), "missing.git"))

	r := NewResolver(repo, "", 5*time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mode, err := r.Resolve(ctx)
	require.True(t, errors.Is(err, ErrUnavailable))
	require.Equal(t, models.TransportUnavailable, mode)

	// The failure is memoized too
	_, err = r.Resolve(ctx)
	require.True(t, errors.Is(err, ErrUnavailable))
}

func TestCleanupRestoresRemoteURL(t *testing.T) {
	repo := repoWithRemote(t)

	orig, err := exec.Command("git", "-C", repo.Path, "remote", "get-url", "origin").Output()
	require.NoError(t, err)

	r := NewResolver(repo, "", 5*time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = r.Resolve(ctx)
	require.NoError(t, err)

	r.Cleanup()

	after, err := exec.Command("git", "-C", repo.Path, "remote", "get-url", "origin").Output()
	require.NoError(t, err)
	require.Equal(t, string(orig), string(after))
}
