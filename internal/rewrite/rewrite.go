// Package rewrite performs the version bump over the working tree: a
// content pass replacing the exact old token, then a rename pass over
// filenames embedding it. Running twice with the same pair is a no-op the
// second time.
package rewrite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/models"

	"github.com/rs/zerolog"
)

// VersionFile is the canonical source-of-truth artifact at the repo root
const VersionFile = "VERSION"

// sniffLen bounds how much of a file the binary check reads
const sniffLen = 8000

// Rewriter applies a version bump to a repository working tree
type Rewriter struct {
	repoPath string
	exclude  []string
	log      zerolog.Logger
}

// New creates a Rewriter for the repo at repoPath. excludePatterns are
// filename globs the rename pass leaves alone (historical per-version
// scripts like "upgrade_v1.2.3.sh").
func New(repoPath string, excludePatterns []string, log zerolog.Logger) *Rewriter {
	return &Rewriter{
		repoPath: repoPath,
		exclude:  excludePatterns,
		log:      log,
	}
}

// CurrentVersion reads the persisted VERSION artifact
func CurrentVersion(repoPath string) (models.Version, error) {
	data, err := os.ReadFile(filepath.Join(repoPath, VersionFile))
	if err != nil {
		return "", err
	}
	return models.ParseVersion(strings.TrimSpace(string(data)))
}

// Apply replaces every exact occurrence of oldVersion with newVersion in
// tracked text files, renames files embedding the token, and writes the
// new VERSION artifact. Returns a report of everything it touched.
func (r *Rewriter) Apply(oldVersion, newVersion models.Version) (*models.RewriteReport, error) {
	report := &models.RewriteReport{
		OldVersion:   oldVersion,
		NewVersion:   newVersion,
		RenamedFiles: make(map[string]string),
	}

	files, err := git.LsFiles(r.repoPath)
	if err != nil {
		return nil, fmt.Errorf("listing tracked files: %w", err)
	}

	if err := r.contentPass(files, oldVersion, newVersion, report); err != nil {
		return nil, err
	}
	if err := r.renamePass(files, oldVersion, newVersion, report); err != nil {
		return nil, err
	}

	// New source of truth, even when nothing else contained the old token
	versionPath := filepath.Join(r.repoPath, VersionFile)
	prev, _ := os.ReadFile(versionPath)
	next := newVersion.String() + "\n"
	if string(prev) != next {
		if err := os.WriteFile(versionPath, []byte(next), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", VersionFile, err)
		}
		report.RewrittenFiles = appendUnique(report.RewrittenFiles, VersionFile)
	}

	return report, nil
}

func (r *Rewriter) contentPass(files []string, oldVersion, newVersion models.Version, report *models.RewriteReport) error {
	oldTok := []byte(oldVersion.String())
	newTok := []byte(newVersion.String())

	for _, rel := range files {
		path := filepath.Join(r.repoPath, rel)
		data, err := os.ReadFile(path)
		if err != nil {
			// ls-files can report paths deleted from disk; skip them
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("reading %s: %w", rel, err)
		}

		if isBinary(data) {
			report.SkippedBinaries = append(report.SkippedBinaries, rel)
			continue
		}

		if !bytes.Contains(data, oldTok) {
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", rel, err)
		}
		replaced := bytes.ReplaceAll(data, oldTok, newTok)
		if err := os.WriteFile(path, replaced, info.Mode().Perm()); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
		report.RewrittenFiles = append(report.RewrittenFiles, rel)
	}

	return nil
}

func (r *Rewriter) renamePass(files []string, oldVersion, newVersion models.Version, report *models.RewriteReport) error {
	for _, rel := range files {
		base := filepath.Base(rel)
		if !strings.Contains(base, oldVersion.String()) {
			continue
		}

		if r.excluded(base) {
			report.ExcludedFiles = append(report.ExcludedFiles, rel)
			continue
		}

		newBase := strings.ReplaceAll(base, oldVersion.String(), newVersion.String())
		newRel := filepath.Join(filepath.Dir(rel), newBase)

		// A pre-existing target means the logical artifact already exists
		// for the new version; keeping both would duplicate it. Delete the
		// source instead of overwriting.
		if _, err := os.Stat(filepath.Join(r.repoPath, newRel)); err == nil {
			if err := git.Remove(r.repoPath, rel); err != nil {
				return fmt.Errorf("deleting duplicate %s: %w", rel, err)
			}
			report.DeletedDuplicates = append(report.DeletedDuplicates, rel)
			r.log.Warn().Str("file", rel).Str("target", newRel).
				Msg("rename target exists, deleted source as duplicate")
			continue
		}

		if err := git.Move(r.repoPath, rel, newRel); err != nil {
			return fmt.Errorf("renaming %s: %w", rel, err)
		}
		report.RenamedFiles[rel] = newRel
	}

	return nil
}

func (r *Rewriter) excluded(base string) bool {
	for _, pattern := range r.exclude {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// isBinary uses the NUL-byte heuristic over the file's first bytes
func isBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

func appendUnique(list []string, item string) []string {
	for _, v := range list {
		if v == item {
			return list
		}
	}
	return append(list, item)
}
