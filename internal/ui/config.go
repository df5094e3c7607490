package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

// ConfigPageSize is the number of entries per page.
const ConfigPageSize = 20

var configKeys = struct {
	Filter, Edit key.Binding
}{
	Filter: binding("/", "filter", "/"),
	Edit:   binding("enter", "edit", "enter"),
}

// ConfigScreen pages through core_config_data with the effective value
// each path resolves to.
type ConfigScreen struct {
	list     *components.List
	pager    pager
	all      []services.ConfigEntry
	filtered []services.ConfigEntry
	rows     []services.ConfigEntry
	loaded   bool
	loadErr  error

	filterMode bool
	filter     prompt
	filterText string

	edit    prompt
	editing *services.ConfigEntry
	msg     string
}

func NewConfigScreen() *ConfigScreen {
	return &ConfigScreen{
		list:   components.NewList(ConfigPageSize),
		pager:  pager{perPage: ConfigPageSize},
		filter: newPrompt("path or value", 0),
		edit:   newPrompt("", 0),
	}
}

func (s *ConfigScreen) load(c *Context) {
	entries, err := c.Config.List(c.ctx())
	if err != nil {
		logging.Error("ui", err, "list configuration")
	}
	s.all, s.loadErr, s.loaded = entries, err, true
	s.apply()
}

// apply recomputes the filtered set and the rows of the current page.
func (s *ConfigScreen) apply() {
	s.filtered = services.FilterConfig(s.all, s.filterText)
	s.pager.setCount(len(s.filtered))
	start, end := s.pager.bounds()
	s.rows = s.filtered[start:end]
	s.list.SetLen(len(s.rows))
}

// Page is the zero based current page; TotalPages is at least 1.
func (s *ConfigScreen) Page() int       { return s.pager.page }
func (s *ConfigScreen) TotalPages() int { return s.pager.totalPages() }

func (s *ConfigScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if !s.loaded {
		s.load(c)
	}
	if s.edit.active {
		s.handleEdit(k, c)
		return ScreenNone
	}
	if s.filterMode {
		s.handleFilter(k)
		return ScreenNone
	}

	switch {
	case matches(k, configKeys.Filter):
		s.filterMode = true
		s.filter.open("")
		return ScreenNone
	case isPageUp(k):
		if s.pager.prev() {
			s.list.Reset()
			s.apply()
		}
		return ScreenNone
	case isPageDown(k):
		if s.pager.next() {
			s.list.Reset()
			s.apply()
		}
		return ScreenNone
	case isEnter(k):
		if len(s.rows) > 0 {
			e := s.rows[s.list.Selected()]
			s.editing = &e
			s.edit.open(e.Value)
		}
		return ScreenNone
	}
	return handleNav(k, s.list)
}

func (s *ConfigScreen) handleEdit(k input.Key, c *Context) {
	switch {
	case isEscape(k):
		s.edit.close()
		s.editing = nil
	case isEnter(k):
		e, value := s.editing, s.edit.value()
		s.edit.close()
		s.editing = nil
		if e == nil {
			return
		}
		if err := c.Config.Save(c.ctx(), e.Path, value, e.Scope, e.ScopeID); err != nil {
			logging.Error("ui", err, "save %s", e.Path)
			s.msg = failMsg(err.Error())
			return
		}
		s.msg = okMsg("Saved " + e.Path)
		s.load(c)
	default:
		s.edit.update(k)
	}
}

func (s *ConfigScreen) handleFilter(k input.Key) {
	switch {
	case isEscape(k):
		s.filterMode = false
		s.filter.close()
		s.filterText = ""
		s.pager.page = 0
		s.list.Reset()
		s.apply()
	case isEnter(k):
		s.filterMode = false
		s.filterText = s.filter.value()
		s.filter.close()
		s.pager.page = 0
		s.list.Reset()
		s.apply()
	default:
		s.filter.update(k)
	}
}

func (s *ConfigScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *ConfigScreen) title() string {
	switch {
	case s.editing != nil:
		return fmt.Sprintf("Editing: %s [Enter=Save ESC=Cancel]", s.editing.Path)
	case s.filterMode:
		return "Filter Mode [Type to search, Enter=Apply, ESC=Cancel]"
	}
	t := "Configuration Management [/=Filter Enter=Edit PgUp/PgDn=Page ESC/q=Back]"
	if s.filterText != "" {
		t += fmt.Sprintf(" [Filter: %q - %d results]", s.filterText, len(s.filtered))
	}
	return t + fmt.Sprintf(" [Page %d/%d]", s.pager.page+1, s.pager.totalPages())
}

func (s *ConfigScreen) Render(width, height int, c *Context) string {
	s.load(c)
	s.list.SetPageSize(visibleRows(height, 16))

	var body string
	switch {
	case s.loadErr != nil:
		body = components.ErrorBox("Cannot load configuration", s.loadErr.Error(), width)
	case len(s.rows) == 0:
		body = components.TitledBox(s.title(), MutedStyle.Render("No configuration entries"), width)
	default:
		body = components.TitledBox(s.title(), s.table(width), width)
	}

	var modal string
	switch {
	case s.edit.active:
		modal = components.PromptDialog("New Value (type to edit)", s.edit.view(), "enter: save | esc: cancel", width)
	case s.filterMode:
		modal = components.PromptDialog("Filter (type to search)", s.filter.view(), "enter: apply | esc: clear", width)
	}

	return page(
		joinBlocks(body, modal, message(s.msg)),
		hintBar(width, nav.Move, nav.Page, configKeys.Filter, configKeys.Edit, nav.Back),
	)
}

func (s *ConfigScreen) table(width int) string {
	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "Path", Width: cw * 40 / 100},
		{Header: "DB Value", Width: cw * 20 / 100},
		{Header: "Source", Width: cw * 15 / 100},
		{Header: "Final Value", Width: cw * 25 / 100},
	}

	start, end := s.list.Window()
	visible := s.rows[start:end]
	rows := make([][]string, 0, len(visible))
	for _, e := range visible {
		rows = append(rows, []string{e.Path, e.Value, e.Source, e.FinalValue})
	}
	style := func(row, col int) (lipgloss.Style, bool) {
		e := visible[row]
		switch col {
		case 2:
			return SourceStyle(e.Source), true
		case 3:
			if e.Overridden {
				return ErrorStyle, true
			}
		}
		return lipgloss.Style{}, false
	}
	active := s.list.Selected() - start
	if s.editing != nil {
		active = -1
	}
	return components.TableGridStyled(cols, rows, cw, active, style)
}
