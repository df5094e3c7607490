package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tidycode/magetui/internal/history"
	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
)

func TestStatsRendersSnapshot(t *testing.T) {
	c, f := newTestContext()
	f.stats.snap = services.StatsSnapshot{
		System:   services.SystemInfo{PHPVersion: "8.3.4", MagentoVersion: "2.4.7"},
		Database: services.DBStats{Name: "shop", Tables: 412},
		Modules:  services.ModuleStats{Total: 4, Enabled: 3},
		Recent: []history.Entry{
			{At: testNow, Screen: "cache", Action: "flush", Target: "config", Outcome: history.OutcomeOK},
		},
		Err: services.ErrNoDatabase,
	}
	s := NewStatsScreen()

	out := plain(s.Render(140, 60, c))
	assert.Contains(t, out, "System Information")
	assert.Contains(t, out, "PHP Version: 8.3.4")
	assert.Contains(t, out, "Table Count: 412")
	assert.Contains(t, out, "Total Modules: 4")
	assert.Contains(t, out, "cache/flush config")
	assert.Contains(t, out, "database not configured")
	assert.Equal(t, 1, f.stats.snapshots)

	s.Render(140, 60, c)
	assert.Equal(t, 1, f.stats.snapshots)
	press(s, c, input.Rune('r'))
	assert.Equal(t, 2, f.stats.snapshots)
}

func TestStatsNavigation(t *testing.T) {
	c, f := newTestContext()
	s := NewStatsScreen()
	s.Render(120, 40, c)

	assert.Equal(t, ScreenDashboard, press(s, c, input.Rune('d')))
	assert.Equal(t, ScreenMain, press(s, c, keyEsc))

	s.Render(120, 40, c)
	assert.Equal(t, 2, f.stats.snapshots)
	assert.False(t, s.NeedsAutoRefresh(c))
}

func TestDashboardReloadsOnInterval(t *testing.T) {
	c, f := newTestContext()
	now := testNow
	c.Now = func() time.Time { return now }
	f.stats.dash = services.Dashboard{
		Cache: services.CacheSummary{Enabled: 12, Total: 14},
		Orders: services.OrderDashboard{
			Today:  services.PeriodStats{Orders: 3, Revenue: 1234.5, Average: 411.5},
			Recent: []services.RecentOrder{{IncrementID: "000000042", Status: "processing", GrandTotal: 99.9}},
			Top:    []services.TopProduct{{Name: "Yoga Mat", Qty: 7}},
		},
	}
	s := NewDashboardScreen()
	assert.True(t, s.NeedsAutoRefresh(c))

	out := plain(s.Render(140, 60, c))
	assert.Contains(t, out, "Live Dashboard - Real-Time Statistics")
	assert.Contains(t, out, "Cache Enabled: 12/14")
	assert.Contains(t, out, "Total Revenue: EUR 1,234.50")
	assert.Contains(t, out, "000000042")
	assert.Contains(t, out, "EUR 99.90")
	assert.Contains(t, out, "x7")
	assert.Equal(t, 1, f.stats.dashboards)

	now = now.Add(time.Second)
	s.Render(140, 60, c)
	assert.Equal(t, 1, f.stats.dashboards)

	now = now.Add(DashboardInterval)
	s.Render(140, 60, c)
	assert.Equal(t, 2, f.stats.dashboards)

	press(s, c, input.Rune('R'))
	assert.Equal(t, 3, f.stats.dashboards)
	assert.Equal(t, ScreenMain, press(s, c, input.Rune('q')))
}

func TestDashboardEmptyPanels(t *testing.T) {
	c, _ := newTestContext()
	out := plain(NewDashboardScreen().Render(80, 60, c))
	assert.Contains(t, out, "No orders")
	assert.Contains(t, out, "No sales in the last 30 days")
}
