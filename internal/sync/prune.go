package sync

import (
	"strings"

	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/models"

	"github.com/rs/zerolog"
)

// Prune deletes remote release branches beyond keep, oldest first.
// Individual deletion failures are recorded and skipped; cleanup is
// best-effort and never aborts the rest.
func Prune(repo models.RepoInfo, prefix string, keep int, dryRun bool, log zerolog.Logger) models.PruneResult {
	result := models.PruneResult{Failed: make(map[string]string)}

	listed, err := git.ListRemoteBranches(repo.Path, prefix)
	if err != nil {
		log.Warn().Err(err).Msg("listing release branches failed, skipping retention")
		return result
	}

	// Only exact version-shaped names are retention candidates; anything
	// else sharing the prefix is left alone
	branches := listed[:0:0]
	for _, b := range listed {
		if models.IsValidVersion(strings.TrimPrefix(b, prefix)) {
			branches = append(branches, b)
		}
	}

	if len(branches) <= keep {
		result.Kept = branches
		log.Debug().Int("count", len(branches)).Int("keep", keep).Msg("nothing to prune")
		return result
	}

	result.Kept = branches[:keep]
	for _, branch := range branches[keep:] {
		if dryRun {
			log.Info().Str("branch", branch).Msg("dry-run: would delete release branch")
			result.Deleted = append(result.Deleted, branch)
			continue
		}
		if err := git.DeleteRemoteBranch(repo.Path, branch); err != nil {
			result.Failed[branch] = err.Error()
			continue
		}
		result.Deleted = append(result.Deleted, branch)
		log.Info().Str("branch", branch).Msg("deleted release branch")
	}

	return result
}
