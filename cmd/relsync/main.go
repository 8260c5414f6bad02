package main

// Must be first import - fixes Warp terminal delay before lipgloss loads
import _ "github.com/wahlandcase/attuned.relsync/internal/termfix"

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is the binary's own version, set at build time
var version = "dev"

var (
	verbose bool
	dryRun  bool
	noTUI   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "relsync",
		Short:   "Release branch synchronization for version bumps",
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Simulate operations without making changes")
	rootCmd.PersistentFlags().BoolVar(&noTUI, "no-tui", false, "Force plain output even on a terminal")

	rootCmd.AddCommand(bumpCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(updateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the run logger. Interactive runs keep the console quiet
// below warn so the progress display stays readable.
func newLogger(interactive bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	} else if interactive {
		level = zerolog.WarnLevel
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
