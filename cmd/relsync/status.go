package main

import (
	"fmt"

	"github.com/wahlandcase/attuned.relsync/internal/config"
	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/rewrite"
	"github.com/wahlandcase/attuned.relsync/internal/ui"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current version, latest tag, and branch heads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			repo, err := openRepo(cfg)
			if err != nil {
				return err
			}

			if branch, err := git.CurrentBranch(repo.Path); err == nil {
				style := lipgloss.NewStyle().Foreground(ui.BranchColor(branch, repo.MainBranch))
				fmt.Printf("branch:   %s\n", style.Render(branch))
			}

			if v, err := rewrite.CurrentVersion(repo.Path); err == nil {
				fmt.Printf("version:  %s\n", v)
			} else {
				fmt.Println("version:  (no VERSION file)")
			}

			if tag, err := git.LatestTag(repo.Path); err == nil {
				fmt.Printf("tag:      %s\n", tag)
			} else {
				fmt.Println("tag:      (none)")
			}

			if head, err := git.ResolveHead(repo.Path, "refs/heads/"+repo.MainBranch); err == nil {
				fmt.Printf("%-8s  %s\n", repo.MainBranch+":", head)
			}

			branches, err := git.ListRemoteBranches(repo.Path, cfg.Branches.ReleasePrefix)
			if err == nil && len(branches) > 0 {
				fmt.Printf("release:  %s (%d total)\n", branches[0], len(branches))
			}

			if path, err := config.Path(); err == nil {
				fmt.Printf("config:   %s\n", path)
			}

			return nil
		},
	}
}
