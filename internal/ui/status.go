package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wahlandcase/attuned.relsync/internal/models"
)

// RenderStatusLine renders the single terminal summary line for a run
func RenderStatusLine(version models.Version, status models.RunStatus, warnings []string) string {
	style := lipgloss.NewStyle().Foreground(StatusColor(status)).Bold(true)

	line := fmt.Sprintf("release %s: %s", version.TagName(), style.Render(status.Display()))
	if len(warnings) == 0 {
		return line
	}

	warnStyle := lipgloss.NewStyle().Foreground(ColorYellow)
	var b strings.Builder
	b.WriteString(line)
	for _, w := range warnings {
		b.WriteString("\n  ")
		b.WriteString(warnStyle.Render("⚠ " + w))
	}
	return b.String()
}
