package rewrite

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wahlandcase/attuned.relsync/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")

	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
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
	require.NoError(t, err, "git %v: %s", args, output)
}

func TestContentReplacement(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION":   "1.2.0\n",
		"README.md": "Install launcher 1.2.0 from releases.\nVersion 1.2.0 is current.\n",
		"setup.sh":  "PKG=launcher-1.2.0.tar.gz\n",
		"other.txt": "nothing to see\n",
	})

	r := New(dir, nil, zerolog.Nop())
	report, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)

	readme, _ := os.ReadFile(filepath.Join(dir, "README.md"))
	assert.NotContains(t, string(readme), "1.2.0")
	assert.Equal(t, 2, strings.Count(string(readme), "1.2.1"))

	version, _ := os.ReadFile(filepath.Join(dir, "VERSION"))
	assert.Equal(t, "1.2.1\n", string(version))

	assert.Contains(t, report.RewrittenFiles, "README.md")
	assert.Contains(t, report.RewrittenFiles, "setup.sh")
	assert.NotContains(t, report.RewrittenFiles, "other.txt")
	assert.True(t, report.Changed())
}

func TestRenamePass(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION":                "1.2.0\n",
		"docs/launcher-1.2.0.md": "notes\n",
	})

	r := New(dir, nil, zerolog.Nop())
	report, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "docs/launcher-1.2.0.md"))
	assert.FileExists(t, filepath.Join(dir, "docs/launcher-1.2.1.md"))
	assert.Equal(t, filepath.Join("docs", "launcher-1.2.1.md"), report.RenamedFiles[filepath.Join("docs", "launcher-1.2.0.md")])
}

func TestExclusionPredicate(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION":           "1.2.0\n",
		"upgrade_v1.2.0.sh": "echo historical upgrade script\n",
	})

	r := New(dir, []string{"*v[0-9]*.[0-9]*.[0-9]*.*"}, zerolog.Nop())
	report, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)

	// Excluded from renaming, but content is still rewritten elsewhere
	assert.FileExists(t, filepath.Join(dir, "upgrade_v1.2.0.sh"))
	assert.Contains(t, report.ExcludedFiles, "upgrade_v1.2.0.sh")
	assert.Empty(t, report.RenamedFiles)
}

func TestDuplicateSuppression(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION":           "1.2.0\n",
		"pkg/app-1.2.0.cfg": "old artifact\n",
		"pkg/app-1.2.1.cfg": "already present for new version\n",
	})

	r := New(dir, nil, zerolog.Nop())
	report, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)

	// Source deleted rather than overwriting the existing target
	assert.NoFileExists(t, filepath.Join(dir, "pkg/app-1.2.0.cfg"))
	target, _ := os.ReadFile(filepath.Join(dir, "pkg/app-1.2.1.cfg"))
	assert.Equal(t, "already present for new version\n", string(target))
	assert.Contains(t, report.DeletedDuplicates, filepath.Join("pkg", "app-1.2.0.cfg"))
}

func TestBinarySkipped(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION": "1.2.0\n",
	})
	// A binary blob containing the version token as text bytes
	blob := append([]byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}, []byte("1.2.0")...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tool.bin"), blob, 0644))
	runGit(t, dir, "add", "tool.bin")
	runGit(t, dir, "commit", "-m", "add binary")

	r := New(dir, nil, zerolog.Nop())
	report, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)

	data, _ := os.ReadFile(filepath.Join(dir, "tool.bin"))
	assert.Contains(t, string(data), "1.2.0")
	assert.Contains(t, report.SkippedBinaries, "tool.bin")
}

func TestIdempotentRewrite(t *testing.T) {
	dir := initRepo(t, map[string]string{
		"VERSION":       "1.2.0\n",
		"README.md":     "launcher 1.2.0\n",
		"app-1.2.0.cfg": "cfg\n",
	})

	r := New(dir, nil, zerolog.Nop())
	first, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)
	require.True(t, first.Changed())

	runGit(t, dir, "add", "-A")
	runGit(t, dir, "commit", "-m", "bump")

	second, err := r.Apply(models.Version("1.2.0"), models.Version("1.2.1"))
	require.NoError(t, err)
	assert.False(t, second.Changed(), "second apply must be a no-op")
}

func TestCurrentVersion(t *testing.T) {
	dir := initRepo(t, map[string]string{"VERSION": "6.9.67\n"})

	v, err := CurrentVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, models.Version("6.9.67"), v)
}
