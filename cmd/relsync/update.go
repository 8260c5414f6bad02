package main

import (
	"fmt"

	"github.com/wahlandcase/attuned.relsync/internal/config"
	"github.com/wahlandcase/attuned.relsync/internal/update"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// maybeNotifyUpdate mentions a newer release after a run, at most once a
// day. Best effort; failures stay silent.
func maybeNotifyUpdate(cfg *config.Config, log zerolog.Logger) {
	if !cfg.ShouldCheckForUpdate() {
		return
	}
	// Stamp the check time on a fresh load so flag overrides on cfg are
	// not persisted
	if fresh, err := config.Load(); err == nil {
		fresh.RecordUpdateCheck()
		_ = fresh.Save()
	}

	release, err := update.CheckForUpdate(version, cfg.Update.Repo)
	if err != nil || release == nil {
		return
	}
	log.Info().
		Str("version", update.VersionDisplay(release.TagName)).
		Msg("newer release available, run 'relsync update'")
}

func updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update relsync to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			release, err := update.CheckForUpdate(version, cfg.Update.Repo)
			if err != nil {
				return err
			}
			if release == nil {
				fmt.Println("already up to date")
				return nil
			}

			fmt.Printf("updating to %s...\n", update.VersionDisplay(release.TagName))
			if err := update.DownloadAndInstall(release, cfg.Update.Repo); err != nil {
				return err
			}

			cfg.RecordUpdateCheck()
			_ = cfg.Save()

			fmt.Println("updated successfully")
			return nil
		},
	}
}
