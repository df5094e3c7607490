package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/services"
	"github.com/tidycode/magetui/internal/ui/components"
)

// DashboardInterval is how often the live dashboard reloads its data.
const DashboardInterval = 3 * time.Second

var dashboardKeys = struct {
	Refresh key.Binding
}{
	Refresh: binding("r", "refresh now", "r", "R"),
}

// DashboardScreen is the live statistics view opened from Stats.
type DashboardScreen struct {
	data     services.Dashboard
	loadedAt time.Time
}

func NewDashboardScreen() *DashboardScreen {
	return &DashboardScreen{}
}

func (s *DashboardScreen) load(c *Context) {
	s.data = c.Stats.Dashboard(c.ctx())
	s.loadedAt = c.now()
}

func (s *DashboardScreen) NeedsAutoRefresh(*Context) bool {
	return true
}

func (s *DashboardScreen) HandleInput(k input.Key, c *Context) ScreenID {
	switch {
	case matches(k, dashboardKeys.Refresh):
		s.load(c)
	case isBack(k):
		s.loadedAt = time.Time{}
		return ScreenMain
	}
	return ScreenNone
}

func eur(v float64) string {
	return "EUR " + humanize.FormatFloat("#,###.##", v)
}

func (s *DashboardScreen) Render(width, height int, c *Context) string {
	now := c.now()
	if s.loadedAt.IsZero() || now.Sub(s.loadedAt) >= DashboardInterval {
		s.load(c)
	}
	d := s.data
	o := d.Orders
	host := c.System.Sample()

	live := []services.InfoRow{
		{Label: "Online Customers", Value: strconv.Itoa(o.Online)},
		{Label: "Total Orders", Value: humanize.Comma(int64(o.TotalOrders))},
		{Label: "Cache Enabled", Value: fmt.Sprintf("%d/%d", d.Cache.Enabled, d.Cache.Total)},
		{Label: "DB Tables", Value: strconv.Itoa(d.Database.Tables)},
		{Label: "DB Size", Value: humanize.IBytes(d.Database.TotalSize)},
	}
	today := []services.InfoRow{
		{Label: "Order Count", Value: strconv.Itoa(o.Today.Orders)},
		{Label: "Total Revenue", Value: eur(o.Today.Revenue)},
		{Label: "Avg Order Value", Value: eur(o.Today.Average)},
	}
	customers := []services.InfoRow{
		{Label: "Total Customers", Value: humanize.Comma(int64(o.Customers.Total))},
		{Label: "New This Month", Value: humanize.Comma(int64(o.Customers.NewThisMonth))},
		{Label: "Total Products", Value: humanize.Comma(int64(o.Catalog.Total))},
		{Label: "Enabled Products", Value: humanize.Comma(int64(o.Catalog.Enabled))},
	}
	system := []services.InfoRow{
		{Label: "PHP Version", Value: orNA(d.System.PHPVersion)},
		{Label: "Magento Version", Value: orNA(d.System.MagentoVersion)},
		{Label: "CPU", Value: fmt.Sprintf("%.1f%%", host.CPUPercent)},
		{Label: "Memory Usage", Value: fmt.Sprintf("%s / %s", humanize.IBytes(host.MemUsed), humanize.IBytes(host.MemTotal))},
	}

	top := columns(width,
		func(w int) string { return components.Panel("Live Metrics", infoRows(live), w) },
		func(w int) string { return components.Panel("Orders & Revenue (Today)", infoRows(today), w) },
	)
	middle := columns(width,
		func(w int) string { return components.Panel("Customers & Catalog", infoRows(customers), w) },
		func(w int) string { return components.Panel("System Info", infoRows(system), w) },
	)
	bottom := columns(width,
		func(w int) string { return components.Panel("Recent Orders", recentOrders(o.Recent, w), w) },
		func(w int) string { return components.Panel("Top Products (30 days)", topProducts(o.Top, w), w) },
	)

	status := MutedStyle.Render(fmt.Sprintf("Updated %s", s.loadedAt.Format("15:04:05")))
	if d.Err != nil {
		status = WarningStyle.Render("⚠ " + components.SanitizeOneLine(d.Err.Error()))
	}

	return page(
		components.TitledBox("Live Dashboard - Real-Time Statistics", joinBlocks(top, middle, bottom, status), width),
		hintBar(width, dashboardKeys.Refresh, nav.Back),
	)
}

func recentOrders(orders []services.RecentOrder, width int) string {
	if len(orders) == 0 {
		return MutedStyle.Render("No orders")
	}
	cw := contentWidth(width - 4)
	cols := []components.TableColumn{
		{Header: "ID", Width: cw * 40 / 100},
		{Header: "Status", Width: cw * 30 / 100},
		{Header: "Total", Width: cw * 30 / 100, Align: lipgloss.Right},
	}
	rows := make([][]string, 0, len(orders))
	for i, o := range orders {
		if i == services.RecentOrdersLimit {
			break
		}
		rows = append(rows, []string{o.IncrementID, o.Status, eur(o.GrandTotal)})
	}
	return components.TableGrid(cols, rows, cw)
}

func topProducts(products []services.TopProduct, width int) string {
	if len(products) == 0 {
		return MutedStyle.Render("No sales in the last 30 days")
	}
	cw := contentWidth(width - 4)
	cols := []components.TableColumn{
		{Header: "Product", Width: cw * 75 / 100},
		{Header: "Qty", Width: cw * 25 / 100, Align: lipgloss.Right},
	}
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{p.Name, "x" + humanize.Ftoa(p.Qty)})
	}
	return components.TableGrid(cols, rows, cw)
}
