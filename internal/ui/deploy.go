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

const deployOutputLines = 8

var deployKeys = struct {
	Execute, Maintenance, ClearOutput key.Binding
}{
	Execute:     binding("enter", "execute", "enter"),
	Maintenance: binding("m", "maintenance", "m", "M"),
	ClearOutput: binding("c", "clear output", "c", "C"),
}

// DeployScreen shows the deployment state and runs deploy operations.
type DeployScreen struct {
	list *components.List
	ops  []services.Operation
	msg  string
}

func NewDeployScreen() *DeployScreen {
	return &DeployScreen{list: components.NewList(10)}
}

func (s *DeployScreen) load(c *Context) {
	s.ops = c.Deploy.Operations()
	s.list.SetLen(len(s.ops))
}

func (s *DeployScreen) NeedsAutoRefresh(c *Context) bool {
	return c.Deploy.IsExecuting()
}

func (s *DeployScreen) HandleInput(k input.Key, c *Context) ScreenID {
	s.load(c)
	if matches(k, deployKeys.ClearOutput) {
		c.Deploy.ClearOutput()
		s.msg = ""
		return ScreenNone
	}
	if c.Deploy.IsExecuting() {
		return handleNav(k, s.list)
	}

	ctx := c.ctx()
	switch {
	case isEnter(k):
		if len(s.ops) == 0 {
			return ScreenNone
		}
		op := s.ops[s.list.Selected()]
		if err := c.Deploy.Execute(ctx, op); err != nil {
			logging.Error("ui", err, "execute %s", op.ID)
			s.msg = failMsg(err.Error())
			return ScreenNone
		}
		s.msg = ""
	case matches(k, deployKeys.Maintenance):
		on, err := c.Deploy.ToggleMaintenance(ctx)
		if err != nil {
			logging.Error("ui", err, "toggle maintenance")
			s.msg = failMsg(err.Error())
			return ScreenNone
		}
		s.msg = okMsg("Maintenance mode " + strings.ToLower(onOff(on)))
	default:
		return handleNav(k, s.list)
	}
	return ScreenNone
}

func onOff(on bool) string {
	if on {
		return "Enabled"
	}
	return "Disabled"
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

func (s *DeployScreen) Render(width, height int, c *Context) string {
	s.load(c)
	st := c.Deploy.Status(c.ctx())
	running := c.Deploy.IsExecuting()

	modeStyle := NormalStyle
	switch st.Mode {
	case "developer":
		modeStyle = WarningStyle
	case "production":
		modeStyle = SuccessStyle
	}
	status := strings.Join([]string{
		styledRow("Mode", strings.ToUpper(st.Mode), modeStyle),
		components.InfoRow("Static Content", yesNo(st.StaticDeployed, "Deployed", "Not Deployed")),
		components.InfoRow("DI Compiled", yesNo(st.DICompiled, "Yes", "No")),
		styledRow("Maintenance", onOff(st.Maintenance), EnabledStyle(!st.Maintenance)),
	}, "\n")

	var items []string
	if len(s.ops) == 0 {
		items = append(items, MutedStyle.Render("No operations available"))
	}
	for i, op := range s.ops {
		line := fmt.Sprintf("%s - %s", op.Title, op.Description)
		if i == s.list.Selected() {
			items = append(items, SelectedStyle.Render("► "+line))
			continue
		}
		items = append(items, NormalStyle.Render("  "+line))
	}

	var output string
	if out := c.Deploy.Output(); running || out != "" {
		head := "Last Operation Output"
		if running {
			head = "Execution in Progress: " + c.Deploy.Current()
		}
		output = outputPanel(head, out, deployOutputLines, running, c.now(), width)
	}

	hints := []key.Binding{nav.Move, deployKeys.Execute, deployKeys.Maintenance, deployKeys.ClearOutput, nav.Back}
	if running {
		hints = []key.Binding{nav.Move, deployKeys.ClearOutput, nav.Back}
	}
	return page(
		joinBlocks(
			components.TitledBox("System Status", status, width),
			components.TitledBox("Available Operations", strings.Join(items, "\n"), width),
			output,
			message(s.msg),
		),
		hintBar(width, hints...),
	)
}
