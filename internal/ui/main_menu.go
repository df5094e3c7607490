package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/ui/components"
)

type menuItem struct {
	id    ScreenID
	label string
}

var menuItems = []menuItem{
	{ScreenConfig, "Configuration Management"},
	{ScreenLogs, "Log Monitoring"},
	{ScreenCache, "Cache Management"},
	{ScreenIndexer, "Index Management"},
	{ScreenDeploy, "Deployment Management"},
	{ScreenModules, "Module Management"},
	{ScreenURLs, "URL Management"},
	{ScreenDatabase, "Database Management"},
	{ScreenStats, "System Statistics"},
	{ScreenMaintenance, "Maintenance Mode"},
}

// tallBanner is the height from which the full logo is drawn.
const tallBanner = 34

// MainScreen is the menu every other screen returns to.
type MainScreen struct {
	list *components.List
}

// NewMainScreen returns the menu with the first item selected.
func NewMainScreen() *MainScreen {
	l := components.NewList(len(menuItems))
	l.SetLen(len(menuItems))
	return &MainScreen{list: l}
}

// Selected is the highlighted menu entry.
func (s *MainScreen) Selected() ScreenID {
	return menuItems[s.list.Selected()].id
}

func (s *MainScreen) HandleInput(k input.Key, _ *Context) ScreenID {
	if k.Type == input.KeyRune && k.Rune >= '0' && k.Rune <= '9' {
		i := int(k.Rune - '1')
		if k.Rune == '0' {
			i = 9
		}
		if i < len(menuItems) {
			return menuItems[i].id
		}
		return ScreenNone
	}
	switch {
	case isEnter(k):
		return s.Selected()
	case isKey(k, "q"):
		return ScreenQuit
	case isEscape(k):
		return ScreenMain
	case isUp(k):
		s.list.Up()
	case isDown(k):
		s.list.Down()
	}
	return ScreenNone
}

func (s *MainScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *MainScreen) Render(width, height int, c *Context) string {
	var blocks []string

	if height >= tallBanner {
		blocks = append(blocks, centerBlockUniform(RenderBanner(), width))
	} else {
		blocks = append(blocks, centerBlock(RenderCompactBanner(), width))
	}

	if c.Maintenance != nil && c.Maintenance.IsEnabled() {
		blocks = append(blocks, components.AlertBanner("!! WARNING: MAINTENANCE MODE IS ENABLED !!", ColorError, width))
	}
	if c.Deploy != nil && c.Deploy.Mode(c.ctx()) == "developer" {
		blocks = append(blocks, components.AlertBanner("!! DEVELOPER MODE IS ACTIVE !!", ColorWarning, width))
	}

	blocks = append(blocks, components.TitledBox("Main Menu", s.renderMenu(), width))

	if c.System != nil {
		footer := WarningStyle.Render(c.System.Sample().Footer())
		blocks = append(blocks, components.TitledBox("System Info", centerText(footer, contentWidth(width)), width))
	}
	return strings.Join(blocks, "\n")
}

func (s *MainScreen) renderMenu() string {
	lines := make([]string, 0, len(menuItems))
	for i, item := range menuItems {
		text := fmt.Sprintf("[%d] %s", (i+1)%10, item.label)
		if s.list.IsSelected(i) {
			lines = append(lines, MenuActiveStyle.Render("► "+text))
			continue
		}
		lines = append(lines, MenuInactiveStyle.Render("  "+text))
	}
	return strings.Join(lines, "\n")
}

func centerText(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s)
}
