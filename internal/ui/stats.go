package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tidycode/magetui/internal/history"
	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

const statsJournalRows = 5

var statsKeys = struct {
	Dashboard, Refresh key.Binding
}{
	Dashboard: binding("d", "live dashboard", "d", "D"),
	Refresh:   binding("r", "refresh", "r", "R"),
}

// StatsScreen shows read-only system, database and module statistics.
type StatsScreen struct {
	snap   services.StatsSnapshot
	loaded bool
}

func NewStatsScreen() *StatsScreen {
	return &StatsScreen{}
}

func (s *StatsScreen) load(c *Context) {
	s.snap, s.loaded = c.Stats.Snapshot(c.ctx()), true
}

func (s *StatsScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *StatsScreen) HandleInput(k input.Key, c *Context) ScreenID {
	switch {
	case matches(k, statsKeys.Dashboard):
		return ScreenDashboard
	case matches(k, statsKeys.Refresh):
		s.load(c)
	case isBack(k):
		s.loaded = false
		return ScreenMain
	}
	return ScreenNone
}

func (s *StatsScreen) Render(width, height int, c *Context) string {
	if !s.loaded {
		s.load(c)
	}
	snap := s.snap

	dbRows := append(snap.Database.Rows(), snap.Performance.Rows()...)
	top := columns(width,
		func(w int) string { return components.Panel("System Information", infoRows(snap.System.Rows()), w) },
		func(w int) string { return components.Panel("Database Statistics", infoRows(dbRows), w) },
	)
	modules := components.Panel("Module Statistics", infoRows(snap.Modules.Rows()), width)

	journal := MutedStyle.Render("No recorded actions")
	if len(snap.Recent) > 0 {
		n := len(snap.Recent)
		if n > statsJournalRows {
			n = statsJournalRows
		}
		lines := make([]string, 0, n)
		for _, e := range snap.Recent[:n] {
			line := fmt.Sprintf("%s  %s/%s %s", humanize.Time(e.At), e.Screen, e.Action, e.Target)
			lines = append(lines, outcomeStyle(e.Outcome).Render(components.ClampTextWidth(line, contentWidth(width))))
		}
		journal = strings.Join(lines, "\n")
	}

	var warn string
	if snap.Err != nil {
		warn = WarningStyle.Render("⚠ " + components.SanitizeOneLine(snap.Err.Error()))
	}

	return page(
		joinBlocks(
			components.TitledBox("System Statistics", joinBlocks(top, modules), width),
			components.Panel("Recent Actions", journal, width),
			warn,
		),
		hintBar(width, statsKeys.Dashboard, statsKeys.Refresh, nav.Back),
	)
}

func outcomeStyle(outcome string) lipgloss.Style {
	if outcome == history.OutcomeOK {
		return NormalStyle
	}
	return ErrorStyle
}
