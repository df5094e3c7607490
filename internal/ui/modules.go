package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/process"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

var moduleKeys = struct {
	Toggle, Filter, EnabledOnly, DisabledOnly, Clear, Refresh, Details key.Binding
}{
	Toggle:       binding("enter", "toggle", "enter"),
	Filter:       binding("f", "search", "f", "F"),
	EnabledOnly:  binding("e", "enabled only", "e", "E"),
	DisabledOnly: binding("d", "disabled only", "d", "D"),
	Clear:        binding("c", "clear filters", "c", "C"),
	Refresh:      binding("r", "refresh", "r", "R"),
	Details:      binding("v", "error details", "v", "V"),
}

// moduleError keeps the output of the last failed toggle for the details
// modal.
type moduleError struct {
	module string
	action string
	output string
}

// ModulesScreen lists modules and enables or disables them.
type ModulesScreen struct {
	list     *components.List
	modules  []services.Module
	filtered []services.Module
	loaded   bool

	filter       prompt
	filterText   string
	enabledOnly  bool
	disabledOnly bool

	lastErr     *moduleError
	showDetails bool
	msg         string
}

func NewModulesScreen() *ModulesScreen {
	return &ModulesScreen{
		list:   components.NewList(20),
		filter: newPrompt("module name", 100),
	}
}

func (s *ModulesScreen) load(c *Context) {
	mods, err := c.Modules.List(c.ctx())
	if err != nil {
		logging.Error("ui", err, "list modules")
		s.msg = failMsg("Cannot read modules: " + err.Error())
	}
	s.modules, s.loaded = mods, true
	s.apply()
}

func (s *ModulesScreen) apply() {
	s.filtered = services.FilterModules(s.modules, s.filterText, s.enabledOnly, s.disabledOnly)
	s.list.SetLen(len(s.filtered))
}

func (s *ModulesScreen) filtersActive() bool {
	return s.filterText != "" || s.enabledOnly || s.disabledOnly
}

func (s *ModulesScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *ModulesScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if s.showDetails {
		s.showDetails = false
		return ScreenNone
	}
	if s.filter.active {
		s.handleFilter(k)
		return ScreenNone
	}
	if !s.loaded {
		s.load(c)
	}

	switch {
	case matches(k, moduleKeys.Filter):
		s.filter.open(s.filterText)
	case matches(k, moduleKeys.EnabledOnly):
		s.enabledOnly = !s.enabledOnly
		s.msg = "Showing all modules"
		if s.enabledOnly {
			s.disabledOnly = false
			s.msg = okMsg("Showing enabled modules only")
		}
		s.list.Reset()
		s.apply()
	case matches(k, moduleKeys.DisabledOnly):
		s.disabledOnly = !s.disabledOnly
		s.msg = "Showing all modules"
		if s.disabledOnly {
			s.enabledOnly = false
			s.msg = okMsg("Showing disabled modules only")
		}
		s.list.Reset()
		s.apply()
	case matches(k, moduleKeys.Clear):
		s.filterText, s.enabledOnly, s.disabledOnly = "", false, false
		s.list.Reset()
		s.apply()
		s.msg = "All filters cleared"
	case matches(k, moduleKeys.Details):
		if s.lastErr != nil {
			s.showDetails = true
		}
	case matches(k, moduleKeys.Refresh):
		s.load(c)
		s.msg = "Module list refreshed"
	case isEnter(k):
		s.toggle(c)
	default:
		return handleNav(k, s.list)
	}
	return ScreenNone
}

func (s *ModulesScreen) handleFilter(k input.Key) {
	switch {
	case isEscape(k):
		s.filter.close()
	case isEnter(k):
		s.filterText = strings.TrimSpace(s.filter.value())
		s.filter.close()
		s.list.Reset()
		s.apply()
		s.msg = okMsg(fmt.Sprintf("Filtering by: '%s'", s.filterText))
	default:
		s.filter.update(k)
	}
}

func (s *ModulesScreen) toggle(c *Context) {
	if len(s.filtered) == 0 {
		return
	}
	m := s.filtered[s.list.Selected()]
	if m.Enabled && m.Name == c.Modules.Hosting() {
		s.msg = fmt.Sprintf("⚠ Cannot disable %s module", m.Name)
		return
	}

	action := "enable"
	var res services.ToggleResult
	if m.Enabled {
		action = "disable"
		res = c.Modules.Disable(c.ctx(), m.Name)
	} else {
		res = c.Modules.Enable(c.ctx(), m.Name)
	}

	if res.Success {
		s.msg = okMsg(res.Message)
		s.lastErr = nil
		s.load(c)
		return
	}
	s.msg = failMsg(res.Message)
	s.lastErr = nil
	if res.HasDetails {
		s.lastErr = &moduleError{module: m.Name, action: action, output: res.FullOutput}
		s.msg += " - Press [V] to view details"
	}
}

func (s *ModulesScreen) Render(width, height int, c *Context) string {
	if s.showDetails && s.lastErr != nil {
		return s.renderDetails(width, height)
	}
	if s.filter.active {
		return components.PromptDialog("Filter Modules", "Enter module name: "+s.filter.view(), "", width)
	}
	if !s.loaded {
		s.load(c)
	}
	s.list.SetPageSize(visibleRows(height, 14))

	counts := services.CountModules(s.modules)
	title := fmt.Sprintf("Module Management [Total: %d | Enabled: %d | Disabled: %d",
		counts.Total, counts.Enabled, counts.Disabled)
	if s.filtersActive() {
		title += fmt.Sprintf(" | Showing: %d", len(s.filtered))
	}
	title += "]"

	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "Module Name", Width: cw * 60 / 100},
		{Header: "Status", Width: cw * 20 / 100},
		{Header: "Version", Width: cw * 20 / 100},
	}
	start, end := s.list.Window()
	rows := make([][]string, 0, end-start)
	for _, m := range s.filtered[start:end] {
		version := m.Version
		if version == "" {
			version = "N/A"
		}
		rows = append(rows, []string{m.Name, EnabledText(m.Enabled), version})
	}
	styler := func(row, col int) (lipgloss.Style, bool) {
		if col != 1 {
			return lipgloss.Style{}, false
		}
		return EnabledStyle(s.filtered[start+row].Enabled), true
	}

	body := MutedStyle.Render("No modules match")
	if len(s.filtered) > 0 {
		body = components.TableGridStyled(cols, rows, cw, s.list.Selected()-start, styler)
	}

	var status []string
	if s.filtersActive() {
		status = append(status, SuccessStyle.Render("✓ Active filters: "+s.activeFilters()))
	}
	if s.msg != "" {
		status = append(status, message(s.msg))
	}
	if s.lastErr != nil {
		status = append(status, WarningStyle.Render("⚠ Error details available - press [V] to view"))
	}

	return page(
		joinBlocks(components.TitledBox(title, body, width), strings.Join(status, "\n")),
		hintBar(width, nav.Move, moduleKeys.Toggle, moduleKeys.Refresh, moduleKeys.Filter,
			moduleKeys.EnabledOnly, moduleKeys.DisabledOnly, moduleKeys.Clear, nav.Back),
	)
}

func (s *ModulesScreen) activeFilters() string {
	var parts []string
	if s.filterText != "" {
		parts = append(parts, fmt.Sprintf("Text: '%s'", s.filterText))
	}
	if s.enabledOnly {
		parts = append(parts, "Enabled only")
	}
	if s.disabledOnly {
		parts = append(parts, "Disabled only")
	}
	return strings.Join(parts, ", ")
}

func (s *ModulesScreen) renderDetails(width, height int) string {
	lines := process.LastLines(s.lastErr.output, visibleRows(height, 14))
	cw := contentWidth(width)
	for i, l := range lines {
		lines[i] = components.ClampTextWidth(l, cw)
	}
	body := strings.Join([]string{
		components.InfoRow("Module", s.lastErr.module),
		components.InfoRow("Action", s.lastErr.action),
		"",
		MetaKeyStyle.Render("Error Output:"),
		strings.Join(lines, "\n"),
		"",
		MutedStyle.Render("Press any key to return..."),
	}, "\n")
	return components.TitledBox("Module Error Details", body, width)
}
