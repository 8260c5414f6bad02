package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Banner returns the ASCII art banner for the application header
var Banner = []string{
	` ____  _____ _     ______   ___   _  ____ `,
	`|  _ \| ____| |   / ___\ \ / / \ | |/ ___|`,
	`| |_) |  _| | |   \___ \\ V /|  \| | |    `,
	`|  _ <| |___| |___ ___) || | | |\  | |___ `,
	`|_| \_\_____|_____|____/ |_| |_| \_|\____|`,
}

// RenderBanner returns the styled banner as a string
func RenderBanner(dryRun bool) string {
	bannerStyle := lipgloss.NewStyle().Foreground(ColorCyan)

	var lines []string
	for _, line := range Banner {
		lines = append(lines, bannerStyle.Render(line))
	}

	if dryRun {
		lines = append(lines, "")
		warningStyle := lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)
		lines = append(lines, warningStyle.Render("⚠ DRY RUN MODE"))
	}

	return strings.Join(lines, "\n")
}
