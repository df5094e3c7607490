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

var cacheKeys = struct {
	Toggle, Enable, Disable, EnableAll, DisableAll, Flush, FlushAll key.Binding
}{
	Toggle:     binding("t", "toggle", "t", "T"),
	Enable:     binding("e", "enable", "e", "E"),
	Disable:    binding("d", "disable", "d", "D"),
	EnableAll:  binding("a", "enable all", "a", "A"),
	DisableAll: binding("x", "disable all", "x", "X"),
	Flush:      binding("f", "flush", "f"),
	FlushAll:   binding("F", "flush storage", "F"),
}

// CacheScreen lists cache types and toggles or flushes them.
type CacheScreen struct {
	list     *components.List
	types    []services.CacheType
	enabled  int
	disabled int
	msg      string
}

func NewCacheScreen() *CacheScreen {
	return &CacheScreen{list: components.NewList(20)}
}

func (s *CacheScreen) load(c *Context) {
	types, err := c.Cache.List(c.ctx())
	if err != nil {
		logging.Error("ui", err, "list cache types")
		s.msg = failMsg("Cannot read cache types: " + err.Error())
	}
	s.types = types
	s.list.SetLen(len(types))

	enabled, disabled, err := c.Cache.Stats(c.ctx())
	if err != nil {
		enabled, disabled = 0, 0
		for _, t := range types {
			if t.Enabled {
				enabled++
			} else {
				disabled++
			}
		}
	}
	s.enabled, s.disabled = enabled, disabled
}

func (s *CacheScreen) selected() (services.CacheType, bool) {
	if len(s.types) == 0 {
		return services.CacheType{}, false
	}
	return s.types[s.list.Selected()], true
}

func (s *CacheScreen) HandleInput(k input.Key, c *Context) ScreenID {
	s.load(c)
	ctx := c.ctx()

	switch {
	case matches(k, cacheKeys.EnableAll):
		s.report(c.Cache.EnableAll(ctx), "All caches enabled")
		return ScreenNone
	case matches(k, cacheKeys.DisableAll):
		s.report(c.Cache.DisableAll(ctx), "All caches disabled")
		return ScreenNone
	case matches(k, cacheKeys.FlushAll):
		s.report(c.Cache.FlushAll(ctx), "Cache storage flushed")
		return ScreenNone
	}

	if t, ok := s.selected(); ok {
		switch {
		case matches(k, cacheKeys.Flush):
			s.report(c.Cache.Flush(ctx, t.ID), "Flushed "+t.ID)
			return ScreenNone
		case matches(k, cacheKeys.Toggle):
			on, err := c.Cache.Toggle(ctx, t.ID)
			state := "disabled"
			if on {
				state = "enabled"
			}
			s.report(err, t.ID+" "+state)
			return ScreenNone
		case matches(k, cacheKeys.Enable):
			s.report(c.Cache.Enable(ctx, t.ID), "Enabled "+t.ID)
			return ScreenNone
		case matches(k, cacheKeys.Disable):
			s.report(c.Cache.Disable(ctx, t.ID), "Disabled "+t.ID)
			return ScreenNone
		}
	}
	return handleNav(k, s.list)
}

func (s *CacheScreen) report(err error, success string) {
	if err != nil {
		logging.Error("ui", err, "cache action")
		s.msg = failMsg(err.Error())
		return
	}
	s.msg = okMsg(success)
}

func (s *CacheScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *CacheScreen) Render(width, height int, c *Context) string {
	s.load(c)
	s.list.SetPageSize(visibleRows(height, 14))

	cw := contentWidth(width)
	cols := []components.TableColumn{
		{Header: "Cache Type", Width: cw * 70 / 100},
		{Header: "Status", Width: cw * 30 / 100},
	}
	start, end := s.list.Window()
	rows := make([][]string, 0, end-start)
	for _, t := range s.types[start:end] {
		rows = append(rows, []string{t.ID, EnabledText(t.Enabled)})
	}
	style := func(row, col int) (lipgloss.Style, bool) {
		if col != 1 {
			return lipgloss.Style{}, false
		}
		return EnabledStyle(s.types[start+row].Enabled), true
	}

	body := MutedStyle.Render("No cache types found")
	if len(s.types) > 0 {
		body = components.TableGridStyled(cols, rows, cw, s.list.Selected()-start, style)
	}
	if s.msg != "" {
		body += "\n\n" + message(s.msg)
	}

	title := fmt.Sprintf("Cache Management [%d enabled / %d disabled]", s.enabled, s.disabled)
	return page(
		components.TitledBox(title, body, width),
		hintBar(width, nav.Move, cacheKeys.Toggle, cacheKeys.Enable, cacheKeys.Disable,
			cacheKeys.EnableAll, cacheKeys.DisableAll, cacheKeys.Flush, cacheKeys.FlushAll, nav.Back),
	)
}
