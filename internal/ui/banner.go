package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const bannerArt = `
  _______ _     _                     _        _______ _    _ _____
 |__   __(_)   | |                   | |      |__   __| |  | |_   _|
    | |   _  __| |_   _  ___ ___   __| | ___     | |  | |  | | | |
    | |  | |/ _` + "`" + ` | | | |/ __/ _ \ / _` + "`" + ` |/ _ \    | |  | |  | | | |
    | |  | | (_| | |_| | (_| (_) | (_| |  __/    | |  | |__| |_| |_
    |_|  |_|\__,_|\__, |\___\___/ \__,_|\___|    |_|   \____/|_____|
                   __/ |
                  |___/`

const bannerSubtitle = "Magento Terminal Administration"

// RenderBanner returns the styled logo with its subtitle.
func RenderBanner() string {
	lines := splitLines(bannerArt)
	rendered := ""

	maxWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}

	lineStyle := BannerStyle.Width(maxWidth)
	for _, line := range lines {
		if line == "" {
			continue
		}
		rendered += lineStyle.Render(line) + "\n"
	}

	subtitleWidth := lipgloss.Width(bannerSubtitle)
	blockWidth := maxWidth
	if blockWidth < subtitleWidth {
		blockWidth = subtitleWidth
	}

	subtitleStyle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(blockWidth).
		Align(lipgloss.Center)
	subtitle := subtitleStyle.Render(bannerSubtitle)

	underlineStyle := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Width(blockWidth).
		Align(lipgloss.Center)
	underline := underlineStyle.Render(strings.Repeat("─", subtitleWidth))

	return "\n" + rendered + "\n" + subtitle + "\n" + underline + "\n"
}

// RenderCompactBanner is the one-line title used when the terminal is too
// short for the logo.
func RenderCompactBanner() string {
	return BannerStyle.Render("Tidycode TUI") + MutedStyle.Render(" • "+bannerSubtitle)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
