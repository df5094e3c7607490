package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
)

func TestManagerStartsOnMainWithEveryScreen(t *testing.T) {
	m := NewManager()
	assert.Equal(t, ScreenMain, m.Current())
	for _, item := range menuItems {
		assert.NotNil(t, m.Screen(item.id), item.id)
	}
	assert.NotNil(t, m.Screen(ScreenDashboard))
	assert.False(t, m.NeedsClear())
}

func TestManagerKeepsScreenStateAcrossVisits(t *testing.T) {
	c, f := newTestContext()
	f.urls.stores = []services.StoreURL{{StoreID: 0, Code: "admin"}, {StoreID: 1, Code: "default"}}
	m := NewManager()

	assert.False(t, m.HandleInput(input.Rune('7'), c))
	require.Equal(t, ScreenURLs, m.Current())
	assert.True(t, m.NeedsClear())
	assert.False(t, m.NeedsClear())

	m.Render(120, 40, c)
	m.HandleInput(keyDown, c)
	m.HandleInput(keyEsc, c)
	require.Equal(t, ScreenMain, m.Current())

	m.HandleInput(input.Rune('7'), c)
	urls := m.Screen(ScreenURLs).(*URLScreen)
	assert.Equal(t, 1, urls.list.Selected())
}

func TestManagerEscapeOnMainStays(t *testing.T) {
	c, _ := newTestContext()
	m := NewManager()
	assert.False(t, m.HandleInput(keyEsc, c))
	assert.Equal(t, ScreenMain, m.Current())
	assert.False(t, m.NeedsClear())
}

func TestManagerIgnoresUnknownScreens(t *testing.T) {
	c, _ := newTestContext()
	m := NewManagerWith(map[ScreenID]Screen{ScreenMain: &stubScreen{next: ScreenLogs}})
	assert.False(t, m.HandleInput(input.Rune('x'), c))
	assert.Equal(t, ScreenMain, m.Current())
	assert.False(t, m.NeedsClear())
}

func TestManagerQuit(t *testing.T) {
	c, _ := newTestContext()
	m := NewManager()
	assert.True(t, m.HandleInput(input.Rune('q'), c))
}

func TestManagerAutoRefreshFollowsScreen(t *testing.T) {
	c, _ := newTestContext()
	m := NewManager()
	assert.False(t, m.NeedsAutoRefresh(c))

	m.HandleInput(input.Rune('9'), c)
	m.HandleInput(input.Rune('d'), c)
	require.Equal(t, ScreenDashboard, m.Current())
	assert.True(t, m.NeedsAutoRefresh(c))
}
