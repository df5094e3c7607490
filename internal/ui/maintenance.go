package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/tidycode/magetui/internal/input"
	"github.com/tidycode/magetui/internal/logging"
	"github.com/tidycode/magetui/internal/ui/components"
)

// maxIPLength fits a full IPv6 address with an embedded IPv4 suffix.
const maxIPLength = 45

var maintenanceKeys = struct {
	Toggle, Add, Delete, AddCurrent, Clear key.Binding
}{
	Toggle:     binding("t", "toggle", "t", "T"),
	Add:        binding("a", "add ip", "a", "A"),
	Delete:     binding("d", "delete ip", "d", "D"),
	AddCurrent: binding("c", "add my ip", "c", "C"),
	Clear:      binding("x", "clear ips", "x", "X"),
}

// MaintenanceScreen controls maintenance mode and its IP allow list.
type MaintenanceScreen struct {
	list  *components.List
	ips   []string
	input prompt
	msg   string
}

func NewMaintenanceScreen() *MaintenanceScreen {
	return &MaintenanceScreen{
		list:  components.NewList(10),
		input: newPrompt("203.0.113.7", maxIPLength),
	}
}

func (s *MaintenanceScreen) load(c *Context) {
	s.ips = c.Maintenance.Status().AllowedIP
	s.list.SetLen(len(s.ips))
}

func (s *MaintenanceScreen) NeedsAutoRefresh(*Context) bool {
	return false
}

func (s *MaintenanceScreen) HandleInput(k input.Key, c *Context) ScreenID {
	if s.input.active {
		s.handleAdd(k, c)
		return ScreenNone
	}
	s.load(c)
	ctx := c.ctx()

	switch {
	case matches(k, maintenanceKeys.Toggle):
		on, err := c.Maintenance.Toggle(ctx)
		s.report(err, "Maintenance mode "+strings.ToLower(onOff(on)))
	case matches(k, maintenanceKeys.Add):
		s.input.open("")
	case matches(k, maintenanceKeys.Delete):
		if len(s.ips) == 0 {
			return ScreenNone
		}
		ip := s.ips[s.list.Selected()]
		s.report(c.Maintenance.RemoveIP(ctx, ip), "Removed "+ip)
	case matches(k, maintenanceKeys.AddCurrent):
		ip := c.Maintenance.Status().CurrentIP
		s.report(c.Maintenance.AddIP(ctx, ip), "Added "+ip)
	case matches(k, maintenanceKeys.Clear):
		s.report(c.Maintenance.ClearIPs(ctx), "Allowed IP list cleared")
	default:
		return handleNav(k, s.list)
	}
	s.load(c)
	return ScreenNone
}

func (s *MaintenanceScreen) handleAdd(k input.Key, c *Context) {
	switch {
	case isEscape(k):
		s.input.close()
	case isEnter(k):
		ip := strings.TrimSpace(s.input.value())
		s.input.close()
		if ip == "" {
			return
		}
		s.report(c.Maintenance.AddIP(c.ctx(), ip), "Added "+ip)
		s.load(c)
	default:
		s.input.update(k)
	}
}

func (s *MaintenanceScreen) report(err error, ok string) {
	if err != nil {
		logging.Error("ui", err, "maintenance action")
		s.msg = failMsg(err.Error())
		return
	}
	s.msg = okMsg(ok)
}

func (s *MaintenanceScreen) Render(width, height int, c *Context) string {
	if s.input.active {
		return components.PromptDialog("Add Allowed IP", "IP address: "+s.input.view(), "", width)
	}
	st := c.Maintenance.Status()
	s.ips = st.AllowedIP
	s.list.SetLen(len(s.ips))
	s.list.SetPageSize(visibleRows(height, 22))

	var status string
	if st.Enabled {
		status = components.AlertBanner("MAINTENANCE MODE ENABLED", ColorError, width)
	} else {
		status = components.AlertBanner("MAINTENANCE MODE DISABLED", ColorSuccess, width)
	}

	ipBody := MutedStyle.Render("No IP restrictions - maintenance applies to everyone")
	if len(s.ips) > 0 {
		start, end := s.list.Window()
		lines := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			if s.list.IsSelected(i) {
				lines = append(lines, SelectedStyle.Render("► "+s.ips[i]))
				continue
			}
			lines = append(lines, "  "+s.ips[i])
		}
		ipBody = strings.Join(lines, "\n")
	}

	return page(
		joinBlocks(
			components.TitledBox("Maintenance Mode Management", status, width),
			components.Panel("Your Current IP Address", AccentStyle.Render(st.CurrentIP), width),
			components.Panel("Allowed IP Addresses", ipBody, width),
			message(s.msg),
		),
		hintBar(width, nav.Move, maintenanceKeys.Toggle, maintenanceKeys.Add, maintenanceKeys.Delete,
			maintenanceKeys.AddCurrent, maintenanceKeys.Clear, nav.Back),
	)
}
