// Package termfix normalizes terminal environment quirks before any
// lipgloss/termenv initialization. Import this package FIRST using:
//
//	_ "github.com/wahlandcase/attuned.relsync/internal/termfix"
package termfix

import (
	"os"

	"github.com/muesli/termenv"
)

func init() {
	if os.Getenv("TERM_PROGRAM") == "WarpTerminal" {
		os.Setenv("TERM", "dumb")
		os.Setenv("COLORTERM", "truecolor")
	}
}

// InteractiveProfile returns true when styled/interactive output makes
// sense: a real color terminal that is not a CI job
func InteractiveProfile() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}
