package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/wahlandcase/attuned.relsync/internal/config"
	"github.com/wahlandcase/attuned.relsync/internal/git"
	"github.com/wahlandcase/attuned.relsync/internal/github"
	"github.com/wahlandcase/attuned.relsync/internal/lockfile"
	"github.com/wahlandcase/attuned.relsync/internal/models"
	"github.com/wahlandcase/attuned.relsync/internal/rewrite"
	syncer "github.com/wahlandcase/attuned.relsync/internal/sync"
	"github.com/wahlandcase/attuned.relsync/internal/termfix"
	"github.com/wahlandcase/attuned.relsync/internal/transport"
	"github.com/wahlandcase/attuned.relsync/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func bumpCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "bump <version>",
		Short: "Bump the repository to a new version and converge release branch with main",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			newVersion, err := models.ParseVersion(args[0])
			if err != nil {
				return err
			}

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

			return runBump(cfg, newVersion)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 50, "How many release branches retention keeps")
	return cmd
}

func runBump(cfg *config.Config, newVersion models.Version) error {
	interactive := useTUI()
	log := newLogger(interactive)

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}

	oldVersion, err := deriveOldVersion(repo.Path)
	if err != nil {
		return err
	}
	if oldVersion == newVersion {
		log.Info().Str("version", newVersion.String()).Msg("already at target version, converging anyway")
	}

	// Interruption must still release the lock and restore the remote URL
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := lockfile.Acquire(repo.Path, cfg.LockTimeout(), cfg.LockPoll())
	if err != nil {
		return err
	}
	defer lock.Release()

	resolver := transport.NewResolver(*repo, cfg.Token, cfg.ProbeTimeout(), log)
	defer resolver.Cleanup()

	run := &syncer.Run{
		Cfg:        cfg,
		Repo:       *repo,
		OldVersion: oldVersion,
		NewVersion: newVersion,
		Transport:  resolver,
		Capability: github.DetectCapability(cfg.Token),
		Log:        log,
		DryRun:     dryRun,
	}

	if interactive {
		_, err = executeWithProgress(ctx, run, newVersion)
	} else {
		var status models.RunStatus
		status, err = run.Execute(ctx)
		log.Debug().Str("transport", resolver.Mode().Display()).Msg("run finished")
		fmt.Println(ui.RenderStatusLine(newVersion, status, run.Warnings()))
	}

	maybeNotifyUpdate(cfg, log)
	return err
}

// executeWithProgress drives the run under the bubbletea progress display.
// The display owns the terminal in raw mode, so ctrl+c arrives as a key
// event that quits it; the run is then cancelled and always waited for, so
// the deferred lock release and remote cleanup never race in-flight git
// mutations.
func executeWithProgress(ctx context.Context, run *syncer.Run, newVersion models.Version) (models.RunStatus, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewProgressModel(newVersion, run.DryRun))
	run.Notify = func(u syncer.StepUpdate) {
		p.Send(u)
	}

	status := models.Failed
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		status, runErr = run.Execute(runCtx)
		p.Send(ui.RunDoneMsg{Status: status, Warnings: run.Warnings(), Err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-done

	if uiErr != nil {
		return models.Failed, fmt.Errorf("error running progress display: %w", uiErr)
	}
	return status, runErr
}

// openRepo locates and inspects the repository the run will mutate
func openRepo(cfg *config.Config) (*models.RepoInfo, error) {
	root := cfg.RepoRoot
	if root == "" {
		found, err := git.FindRepoRoot()
		if err != nil {
			return nil, fmt.Errorf("not inside a git repository (set RELSYNC_ROOT to override)")
		}
		root = found
	}

	repo, err := git.GetRepoInfo(root)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}
	if cfg.Branches.MainBranch != "" {
		repo.MainBranch = cfg.Branches.MainBranch
	}
	return repo, nil
}

// deriveOldVersion reads the VERSION artifact, falling back to the most
// recent tag when the artifact does not exist yet
func deriveOldVersion(repoPath string) (models.Version, error) {
	if v, err := rewrite.CurrentVersion(repoPath); err == nil {
		return v, nil
	}

	tag, err := git.LatestTag(repoPath)
	if err != nil {
		return "", fmt.Errorf("no VERSION file and no tags: cannot derive current version")
	}
	return models.ParseVersion(strings.TrimPrefix(tag, "v"))
}

func useTUI() bool {
	if noTUI {
		return false
	}
	return termfix.InteractiveProfile() && isatty.IsTerminal(os.Stdout.Fd())
}
