package ui

import (
	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
)

// Manager owns one instance of every screen and the current position.
// Screens are created once, so their state survives navigation.
type Manager struct {
	screens map[ScreenID]Screen
	current ScreenID
	cleared bool
}

// NewManager builds every screen with main active.
func NewManager() *Manager {
	return NewManagerWith(map[ScreenID]Screen{
		ScreenMain:        NewMainScreen(),
		ScreenConfig:      NewConfigScreen(),
		ScreenLogs:        NewLogsScreen(),
		ScreenCache:       NewCacheScreen(),
		ScreenIndexer:     NewIndexerScreen(),
		ScreenDeploy:      NewDeployScreen(),
		ScreenModules:     NewModulesScreen(),
		ScreenURLs:        NewURLScreen(),
		ScreenDatabase:    NewDatabaseScreen(),
		ScreenStats:       NewStatsScreen(),
		ScreenMaintenance: NewMaintenanceScreen(),
		ScreenDashboard:   NewDashboardScreen(),
	})
}

// NewManagerWith uses the given screens. It must contain ScreenMain.
func NewManagerWith(screens map[ScreenID]Screen) *Manager {
	return &Manager{screens: screens, current: ScreenMain}
}

// Current is the active screen.
func (m *Manager) Current() ScreenID {
	return m.current
}

// Screen returns the instance registered for id.
func (m *Manager) Screen(id ScreenID) Screen {
	return m.screens[id]
}

// Render draws the active screen.
func (m *Manager) Render(width, height int, c *Context) string {
	return m.screens[m.current].Render(width, height, c)
}

// HandleInput dispatches k to the active screen and follows the returned
// navigation. It reports true when the session should end.
func (m *Manager) HandleInput(k input.Key, c *Context) bool {
	next := m.screens[m.current].HandleInput(k, c)
	switch {
	case next == ScreenNone:
		return false
	case next == ScreenQuit:
		return true
	case next == m.current:
		return false
	}
	if _, ok := m.screens[next]; !ok {
		logging.Warn("ui", "unknown screen %q requested from %q", next, m.current)
		return false
	}
	logging.Debug("ui", "screen %s -> %s", m.current, next)
	m.current = next
	m.cleared = true
	return false
}

// NeedsClear reports, once, that the screen changed since the last call
// and the terminal should be wiped before the next frame.
func (m *Manager) NeedsClear() bool {
	c := m.cleared
	m.cleared = false
	return c
}

// NeedsAutoRefresh asks the active screen.
func (m *Manager) NeedsAutoRefresh(c *Context) bool {
	return m.screens[m.current].NeedsAutoRefresh(c)
}
