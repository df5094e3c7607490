package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidycode/magetui/internal/input"
)

func TestMaintenanceToggleAndStatus(t *testing.T) {
	c, f := newTestContext()
	s := NewMaintenanceScreen()

	assert.Contains(t, plain(s.Render(120, 40, c)), "MAINTENANCE MODE DISABLED")
	press(s, c, input.Rune('t'))
	assert.True(t, f.maintenance.enabled)
	assert.Equal(t, "✓ Maintenance mode enabled", s.msg)
	assert.Contains(t, plain(s.Render(120, 40, c)), "MAINTENANCE MODE ENABLED")
}

func TestMaintenanceAddIPModal(t *testing.T) {
	c, f := newTestContext()
	s := NewMaintenanceScreen()

	press(s, c, input.Rune('a'))
	require.True(t, s.input.active)
	assert.Contains(t, plain(s.Render(120, 40, c)), "Add Allowed IP")

	press(s, c, typeText("10.0.0.1")...)
	assert.Equal(t, ScreenNone, press(s, c, keyEnter))
	assert.Equal(t, []string{"10.0.0.1"}, f.maintenance.ips)
	assert.Equal(t, "✓ Added 10.0.0.1", s.msg)

	press(s, c, input.Rune('a'))
	press(s, c, typeText("nope")...)
	press(s, c, keyEnter)
	assert.Equal(t, "✗ invalid IP address", s.msg)

	press(s, c, input.Rune('a'), input.Rune('1'), keyEsc)
	assert.False(t, s.input.active)
	assert.Len(t, f.maintenance.ips, 1)
}

func TestMaintenanceDeleteCurrentAndClear(t *testing.T) {
	c, f := newTestContext()
	f.maintenance.ips = []string{"10.0.0.1", "10.0.0.2"}
	f.maintenance.current = "192.0.2.10"
	s := NewMaintenanceScreen()

	out := plain(s.Render(120, 40, c))
	assert.Contains(t, out, "192.0.2.10")
	assert.Contains(t, out, "► 10.0.0.1")

	press(s, c, keyDown, input.Rune('d'))
	assert.Equal(t, []string{"10.0.0.1"}, f.maintenance.ips)

	press(s, c, input.Rune('c'))
	assert.Equal(t, []string{"10.0.0.1", "192.0.2.10"}, f.maintenance.ips)

	press(s, c, input.Rune('X'))
	assert.Empty(t, f.maintenance.ips)
	assert.Contains(t, plain(s.Render(120, 40, c)), "No IP restrictions")

	assert.Equal(t, ScreenNone, press(s, c, input.Rune('d')))
	assert.Equal(t, ScreenMain, press(s, c, keyEsc))
}
