package ui

import (
	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/ui/components"
)

// ScreenID names a screen. The empty ID means "stay where you are".
type ScreenID string

const (
	ScreenNone        ScreenID = ""
	ScreenMain        ScreenID = "main"
	ScreenConfig      ScreenID = "config"
	ScreenLogs        ScreenID = "logs"
	ScreenCache       ScreenID = "cache"
	ScreenIndexer     ScreenID = "indexer"
	ScreenDeploy      ScreenID = "deploy"
	ScreenModules     ScreenID = "modules"
	ScreenURLs        ScreenID = "urls"
	ScreenDatabase    ScreenID = "database"
	ScreenStats       ScreenID = "stats"
	ScreenMaintenance ScreenID = "maintenance"
	ScreenDashboard   ScreenID = "dashboard"
	ScreenQuit        ScreenID = "quit"
)

// Screen is one full-viewport view with its own state machine.
type Screen interface {
	Render(width, height int, c *Context) string
	HandleInput(k input.Key, c *Context) ScreenID
	NeedsAutoRefresh(c *Context) bool
}

// handleNav is the default input handling shared by the list screens:
// Escape or q goes back to the main menu and the arrows move the cursor.
func handleNav(k input.Key, l *components.List) ScreenID {
	switch {
	case isBack(k):
		return ScreenMain
	case isUp(k):
		l.Up()
	case isDown(k):
		l.Down()
	}
	return ScreenNone
}

// pager slices a filtered dataset into fixed size pages.
type pager struct {
	page     int
	perPage  int
	total    int
	filtered int
}

func (p *pager) setCount(n int) {
	p.filtered = n
	p.total = (n + p.perPage - 1) / p.perPage
	if p.page > p.total-1 {
		p.page = p.total - 1
	}
	if p.page < 0 {
		p.page = 0
	}
}

func (p *pager) bounds() (start, end int) {
	start = p.page * p.perPage
	end = start + p.perPage
	if end > p.filtered {
		end = p.filtered
	}
	if start > end {
		start = end
	}
	return start, end
}

// next and prev report whether the page changed.
func (p *pager) next() bool {
	if p.page < p.total-1 {
		p.page++
		return true
	}
	return false
}

func (p *pager) prev() bool {
	if p.page > 0 {
		p.page--
		return true
	}
	return false
}

func (p *pager) totalPages() int {
	if p.total < 1 {
		return 1
	}
	return p.total
}
