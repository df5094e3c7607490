package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	hintDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9ba0bf"))
	keyCapStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16161d")).
			Background(lipgloss.Color("#888ba4")).
			Bold(true).
			Padding(0, 1)
	hintRuleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#273540"))
)

// hintGap separates hints on one row.
const hintGap = "  "

// KeyHint is one key and the action it triggers on the current screen.
type KeyHint struct {
	Key  string
	Desc string
}

// StatusBar renders the hints under a rule, wrapped to width. Rows are
// left aligned so the same key sits in the same place on every screen.
func StatusBar(hints []KeyHint, width int) string {
	if len(hints) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(hints))
	for _, h := range hints {
		rendered = append(rendered, Hint(h.Key, h.Desc))
	}

	rows := wrapSegments(rendered, width)
	ruleWidth := width
	if ruleWidth <= 0 {
		for _, row := range rows {
			ruleWidth = maxInt(ruleWidth, lipgloss.Width(row))
		}
	}
	rule := hintRuleStyle.Render(strings.Repeat("─", ruleWidth))
	return rule + "\n" + strings.Join(rows, "\n")
}

// Hint formats one key cap followed by its action. Keys are case
// sensitive, so "f" and "F" stay distinct.
func Hint(key, desc string) string {
	return keyCapStyle.Render(key) + hintDescStyle.Render(" "+desc)
}

func wrapSegments(segments []string, width int) []string {
	if width <= 0 {
		return []string{strings.Join(segments, hintGap)}
	}
	gap := lipgloss.Width(hintGap)
	rows := make([]string, 0, 2)
	var current []string
	currentWidth := 0
	for _, seg := range segments {
		segWidth := lipgloss.Width(seg)
		if len(current) > 0 && currentWidth+gap+segWidth > width {
			rows = append(rows, strings.Join(current, hintGap))
			current, currentWidth = nil, 0
		}
		if len(current) > 0 {
			currentWidth += gap
		}
		current = append(current, seg)
		currentWidth += segWidth
	}
	if len(current) > 0 {
		rows = append(rows, strings.Join(current, hintGap))
	}
	return rows
}
