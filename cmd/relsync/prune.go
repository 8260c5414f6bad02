package main

import (
	"fmt"

	"github.com/wahlandcase/attuned.relsync/internal/config"
	syncer "github.com/wahlandcase/attuned.relsync/internal/sync"

	"github.com/spf13/cobra"
)

func pruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete release branches beyond the keep-count, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("keep") {
				cfg.Branches.Keep = keep
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := newLogger(false)
			repo, err := openRepo(cfg)
			if err != nil {
				return err
			}

			result := syncer.Prune(*repo, cfg.Branches.ReleasePrefix, cfg.Branches.Keep, dryRun, log)

			fmt.Printf("kept %d, deleted %d, failed %d\n",
				len(result.Kept), len(result.Deleted), len(result.Failed))
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "How many release branches to keep")
	return cmd
}
