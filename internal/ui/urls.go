package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

type urlStep int

const (
	urlStepNone urlStep = iota
	urlStepBase
	urlStepSecure
	urlStepConfirm
)

var urlKeys = struct {
	Edit, Refresh key.Binding
}{
	Edit:    binding("enter", "edit", "enter"),
	Refresh: binding("r", "refresh", "r", "R"),
}

// URLScreen lists store base URLs and edits them in three steps.
type URLScreen struct {
	list   *components.List
	stores []services.StoreURL
	loaded bool

	step      urlStep
	editing   services.StoreURL
	input     prompt
	newBase   string
	newSecure string

	msg string
}

func NewURLScreen() *URLScreen {
	return &URLScreen{
		list:  components.NewList(20),
		input: newPrompt("https://example.com/", 255),
	}
}

// Step reports the edit step; 0 when not editing.
func (s *URLScreen) Step() int {
	return int(s.step)
}

func (s *URLScreen) load(c *Context) {
	stores, err := c.URLs.List(c.ctx())
	if err != nil {
		logging.Error("ui", err, "list store urls")
		s.msg = failMsg("Cannot read stores: " + err.Error())
	}
	s.stores, s.loaded = stores, true
	s.list.SetLen(len(stores))
}

func (s *URLScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *URLScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if s.step != urlStepNone {
		s.handleEdit(k, c)
		return ScreenNone
	}
	if !s.loaded {
		s.load(c)
	}

	switch {
	case matches(k, urlKeys.Refresh):
		s.load(c)
		s.msg = "Store list refreshed"
	case isEnter(k):
		if len(s.stores) == 0 {
			return ScreenNone
		}
		s.editing = s.stores[s.list.Selected()]
		s.newBase, s.newSecure = "", ""
		s.step = urlStepBase
		s.input.open(s.editing.BaseURL)
	default:
		return handleNav(k, s.list)
	}
	return ScreenNone
}

func (s *URLScreen) handleEdit(k input.Key, c *Context) {
	if isEscape(k) {
		s.cancelEdit()
		return
	}

	switch s.step {
	case urlStepBase:
		if !isEnter(k) {
			s.input.update(k)
			return
		}
		s.newBase = orDefault(s.input.value(), s.editing.BaseURL)
		s.step = urlStepSecure
		s.input.open(s.editing.SecureURL)
	case urlStepSecure:
		if !isEnter(k) {
			s.input.update(k)
			return
		}
		s.newSecure = orDefault(s.input.value(), s.editing.SecureURL)
		s.input.close()
		s.step = urlStepConfirm
	case urlStepConfirm:
		switch {
		case isEnter(k), isConfirm(k):
			res := c.URLs.Update(c.ctx(), s.editing.StoreID, s.newBase, s.newSecure)
			s.step = urlStepNone
			if !res.Success {
				s.msg = failMsg(res.Message)
				return
			}
			s.msg = okMsg(res.Message)
			s.load(c)
		case isCancel(k):
			s.cancelEdit()
		}
	}
}

func (s *URLScreen) cancelEdit() {
	s.input.close()
	s.step = urlStepNone
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func notSet(v string) string {
	if v == "" {
		return "Not set"
	}
	return v
}

func (s *URLScreen) Render(width, height int, c *Context) string {
	if s.step != urlStepNone {
		return s.renderEdit(width)
	}
	if !s.loaded {
		s.load(c)
	}
	s.list.SetPageSize(visibleRows(height, 12))

	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "Store Name", Width: cw * 20 / 100},
		{Header: "Code", Width: cw * 12 / 100},
		{Header: "Base URL", Width: cw * 34 / 100},
		{Header: "Secure Base URL", Width: cw * 34 / 100},
	}
	start, end := s.list.Window()
	rows := make([][]string, 0, end-start)
	for _, st := range s.stores[start:end] {
		rows = append(rows, []string{st.Name, st.Code, notSet(st.BaseURL), notSet(st.SecureURL)})
	}

	body := MutedStyle.Render("No stores found")
	if len(s.stores) > 0 {
		body = components.TableGridWithActiveRow(cols, rows, cw, s.list.Selected()-start)
	}
	title := fmt.Sprintf("URL Management [%d stores]", len(s.stores))

	return page(
		joinBlocks(components.TitledBox(title, body, width), message(s.msg)),
		hintBar(width, nav.Move, urlKeys.Edit, urlKeys.Refresh, nav.Back),
	)
}

func (s *URLScreen) renderEdit(width int) string {
	store := fmt.Sprintf("Store: %s (%s)", s.editing.Name, s.editing.Code)
	switch s.step {
	case urlStepBase:
		field := strings.Join([]string{
			AccentStyle.Render(store),
			"Enter new Base URL:",
			s.input.view(),
			MutedStyle.Render("Current: " + notSet(s.editing.BaseURL)),
		}, "\n")
		return components.PromptDialog("Edit Base URL", field, "enter: next | esc: cancel", width)
	case urlStepSecure:
		field := strings.Join([]string{
			AccentStyle.Render(store),
			"Enter new Secure Base URL:",
			s.input.view(),
			MutedStyle.Render("Current: " + notSet(s.editing.SecureURL)),
		}, "\n")
		return components.PromptDialog("Edit Secure Base URL", field, "enter: next | esc: cancel", width)
	}

	summary := []components.TableRow{
		{Label: "Store", Value: fmt.Sprintf("%s (%s)", s.editing.Name, s.editing.Code)},
		{Label: "Scope", Value: fmt.Sprintf("stores / %d", s.editing.StoreID)},
	}
	diffs := []components.DiffRow{
		{Label: "Base URL", From: s.editing.BaseURL, To: services.NormalizeURL(s.newBase)},
		{Label: "Secure Base URL", From: s.editing.SecureURL, To: services.NormalizeURL(s.newSecure)},
	}
	return components.ConfirmPreviewDialog("Confirm URL Changes", summary, diffs, width)
}
