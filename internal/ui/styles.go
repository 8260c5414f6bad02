package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/wahlandcase/attuned.relsync/internal/models"
)

// Note: Warp terminal fix is in internal/termfix package, imported first in main.go

var (
	ColorCyan     = lipgloss.Color("#00FFFF")
	ColorGreen    = lipgloss.Color("#00FF00")
	ColorYellow   = lipgloss.Color("#FFFF00")
	ColorRed      = lipgloss.Color("#FF0000")
	ColorMagenta  = lipgloss.Color("#FF00FF")
	ColorWhite    = lipgloss.Color("#FFFFFF")
	ColorDarkGray = lipgloss.Color("8") // ANSI 8
)

// StatusColor maps a terminal run status to its display color
func StatusColor(status models.RunStatus) lipgloss.Color {
	switch status {
	case models.Converged:
		return ColorGreen
	case models.ConvergedWithWarnings:
		return ColorYellow
	case models.Failed:
		return ColorRed
	default:
		return ColorWhite
	}
}

// BranchColor styles branch names by role
func BranchColor(branch, mainBranch string) lipgloss.Color {
	switch branch {
	case mainBranch:
		return ColorRed
	default:
		return ColorCyan
	}
}
