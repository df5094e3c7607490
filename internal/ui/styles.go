package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/services"
)

// --- Theme Colors ---

var (
	ColorPrimary    = lipgloss.Color("#7f57b4") // purple
	ColorSecondary  = lipgloss.Color("#436b77") // teal
	ColorAccent     = lipgloss.Color("#a7754e") // warm
	ColorBackground = lipgloss.Color("#16161d") // dark
	ColorText       = lipgloss.Color("#d7d9da") // main text
	ColorMuted      = lipgloss.Color("#9ba0bf") // muted text
	ColorSuccess    = lipgloss.Color("#3f866b") // green
	ColorError      = lipgloss.Color("#e06c75") // red
	ColorWarning    = lipgloss.Color("#c78854") // warning
	ColorBorder     = lipgloss.Color("#273540") // border
	ColorBlue       = lipgloss.Color("#6f9fb0") // blue-teal
)

// --- Reusable Styles ---

var (
	BannerStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	MenuActiveStyle = lipgloss.NewStyle().
			Foreground(ColorBackground).
			Background(ColorPrimary).
			Bold(true)

	MenuInactiveStyle = lipgloss.NewStyle().
				Foreground(ColorText)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	BlueStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	MetaKeyStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)
)

// Divider returns a horizontal line.
func Divider(width int) string {
	if width <= 0 {
		return ""
	}
	return DividerStyle.Render(strings.Repeat("─", width))
}

// SourceStyle colours a configuration source: env.php wins over
// config.php, which wins over the database.
func SourceStyle(source string) lipgloss.Style {
	switch source {
	case services.SourceEnv:
		return ErrorStyle
	case services.SourceConfig:
		return WarningStyle
	case services.SourceDatabase:
		return SuccessStyle
	}
	return NormalStyle
}

// IndexStatusStyle colours an indexer status.
func IndexStatusStyle(status string) lipgloss.Style {
	switch status {
	case services.IndexValid:
		return SuccessStyle
	case services.IndexInvalid:
		return ErrorStyle
	case services.IndexWorking:
		return WarningStyle
	}
	return MutedStyle
}

// EnabledText is the status cell used by the cache and module tables.
func EnabledText(enabled bool) string {
	if enabled {
		return "✓ Enabled"
	}
	return "✗ Disabled"
}

// EnabledStyle colours EnabledText.
func EnabledStyle(enabled bool) lipgloss.Style {
	if enabled {
		return SuccessStyle
	}
	return ErrorStyle
}
